package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/heartguard-ai-go/internal/config"
	"github.com/irfndi/heartguard-ai-go/internal/wizard"
)

// ErrConflict is returned when an update kept losing optimistic-lock races.
var ErrConflict = errors.New("session update conflict")

const defaultMaxRetries = 10

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(cfg config.RedisConfig, logger *logrus.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if logger != nil {
		logger.WithField("addr", cfg.Addr()).Info("Successfully connected to Redis")
	}
	return rdb, nil
}

// RedisStore keeps each session as a JSON document under its own key. The
// key TTL is renewed on every write. Update uses WATCH/MULTI so concurrent
// requests for a session serialize even across server replicas.
type RedisStore struct {
	rdb        *redis.Client
	prefix     string
	ttl        time.Duration
	maxRetries int
	logger     *logrus.Logger

	mu    sync.Mutex
	stats Stats
}

// NewRedisStore creates a RedisStore on an existing client.
func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration, logger *logrus.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisStore{
		rdb:        rdb,
		prefix:     prefix,
		ttl:        ttl,
		maxRetries: defaultMaxRetries,
		logger:     logger,
	}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

func (r *RedisStore) count(f func(*Stats)) {
	r.mu.Lock()
	f(&r.stats)
	r.mu.Unlock()
}

// Load returns the state of id, or the initial state when the key is absent.
func (r *RedisStore) Load(ctx context.Context, id string) (wizard.State, error) {
	data, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.count(func(s *Stats) { s.Misses++ })
		return wizard.Initial(), nil
	}
	if err != nil {
		return wizard.State{}, fmt.Errorf("redis get %s: %w", id, err)
	}

	state, err := decodeState(data)
	if err != nil {
		r.logger.WithError(err).WithField("session_id", id).Warn("Discarding unreadable session")
		r.count(func(s *Stats) { s.Misses++ })
		return wizard.Initial(), nil
	}
	r.count(func(s *Stats) { s.Hits++ })
	return state, nil
}

// Update applies fn inside a WATCH/MULTI transaction, retrying when another
// writer changed the key first.
func (r *RedisStore) Update(ctx context.Context, id string, fn func(wizard.State) (wizard.State, error)) (wizard.State, error) {
	key := r.key(id)

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		var next wizard.State
		err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
			current := wizard.Initial()
			data, err := tx.Get(ctx, key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
			case err != nil:
				return fmt.Errorf("redis get %s: %w", id, err)
			default:
				if decoded, derr := decodeState(data); derr == nil {
					current = decoded
				}
			}

			updated, err := fn(current)
			if err != nil {
				next = current
				return err
			}
			payload, err := json.Marshal(updated)
			if err != nil {
				return fmt.Errorf("encode session %s: %w", id, err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, r.ttl)
				return nil
			})
			if err == nil {
				next = updated
			}
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			r.count(func(s *Stats) { s.Conflicts++ })
			continue
		}
		if err != nil {
			return next, err
		}
		r.count(func(s *Stats) { s.Writes++ })
		return next, nil
	}

	r.logger.WithField("session_id", id).Warn("Session update gave up after repeated conflicts")
	return wizard.State{}, fmt.Errorf("%w: %s", ErrConflict, id)
}

// Delete removes a session.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", id, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// GetStats returns a copy of the store counters.
func (r *RedisStore) GetStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func decodeState(data []byte) (wizard.State, error) {
	var state wizard.State
	if err := json.Unmarshal(data, &state); err != nil {
		return wizard.State{}, fmt.Errorf("decode session: %w", err)
	}
	return state, nil
}
