// Package session stores the wizard state of each browser session, in
// process memory or in Redis.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/heartguard-ai-go/internal/wizard"
)

// DefaultIdleTTL is how long an untouched session is kept.
const DefaultIdleTTL = 30 * time.Minute

// Stats tracks store activity.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Writes    int64 `json:"writes"`
	Expired   int64 `json:"expired"`
	Conflicts int64 `json:"conflicts"`
}

type memoryEntry struct {
	state   wizard.State
	touched time.Time
}

// MemoryStore keeps sessions in a map guarded by one mutex. Entries idle for
// longer than the TTL are dropped on access and by the janitor.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	now     func() time.Time
	stats   Stats
	logger  *logrus.Logger

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewMemoryStore creates a MemoryStore. The janitor is not running until
// StartJanitor is called.
func NewMemoryStore(ttl time.Duration, logger *logrus.Logger) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Load returns the state of id, or the initial state for an unknown or
// expired session.
func (m *MemoryStore) Load(_ context.Context, id string) (wizard.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.live(id); ok {
		m.stats.Hits++
		return e.state, nil
	}
	m.stats.Misses++
	return wizard.Initial(), nil
}

// Update applies fn to the state of id under the store lock.
func (m *MemoryStore) Update(ctx context.Context, id string, fn func(wizard.State) (wizard.State, error)) (wizard.State, error) {
	if err := ctx.Err(); err != nil {
		return wizard.State{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := wizard.Initial()
	if e, ok := m.live(id); ok {
		current = e.state
	}

	next, err := fn(current)
	if err != nil {
		return current, err
	}
	m.entries[id] = &memoryEntry{state: next, touched: m.now()}
	m.stats.Writes++
	return next, nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// live returns the entry of id if it has not expired. Caller holds m.mu.
func (m *MemoryStore) live(id string) (*memoryEntry, bool) {
	e, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	if m.now().Sub(e.touched) >= m.ttl {
		delete(m.entries, id)
		m.stats.Expired++
		return nil, false
	}
	return e, true
}

// Prune drops every expired session and returns how many were removed.
func (m *MemoryStore) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	now := m.now()
	for id, e := range m.entries {
		if now.Sub(e.touched) >= m.ttl {
			delete(m.entries, id)
			removed++
		}
	}
	m.stats.Expired += int64(removed)
	return removed
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// GetStats returns a copy of the store counters.
func (m *MemoryStore) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// StartJanitor prunes expired sessions every interval until Stop.
func (m *MemoryStore) StartJanitor(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				if n := m.Prune(); n > 0 {
					m.logger.WithField("removed", n).Debug("Pruned expired wizard sessions")
				}
			}
		}
	}()
}

// Stop ends the janitor and waits for it to exit. Safe to call more than
// once, and when the janitor was never started.
func (m *MemoryStore) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	if m.started.Load() {
		<-m.done
	}
}
