package prediction

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/irfndi/heartguard-ai-go/internal/models"
)

// DefaultHealthTTL is how long a health verdict is reused.
const DefaultHealthTTL = 15 * time.Second

// HealthChecker queries the scoring service.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*models.HealthStatus, error)
}

// HealthMonitor caches the scoring service's health. Concurrent checks
// collapse into one request and the verdict is reused for the TTL.
type HealthMonitor struct {
	checker HealthChecker
	ttl     time.Duration
	group   singleflight.Group
	now     func() time.Time

	mu        sync.RWMutex
	status    *models.HealthStatus
	healthy   bool
	checkedAt time.Time
}

// NewHealthMonitor creates a HealthMonitor. A zero ttl disables caching.
func NewHealthMonitor(checker HealthChecker, ttl time.Duration) *HealthMonitor {
	if ttl < 0 {
		ttl = DefaultHealthTTL
	}
	return &HealthMonitor{checker: checker, ttl: ttl, now: time.Now}
}

type checkResult struct {
	status  *models.HealthStatus
	healthy bool
}

// Check reports whether the scoring service answered its last check.
func (m *HealthMonitor) Check(ctx context.Context) bool {
	_, healthy := m.Status(ctx)
	return healthy
}

// Status returns the last health payload (nil when unreachable) and verdict.
func (m *HealthMonitor) Status(ctx context.Context) (*models.HealthStatus, bool) {
	if status, healthy, ok := m.cached(); ok {
		return status, healthy
	}

	// The verdict is shared by every waiter, so the request must not inherit
	// the first caller's cancellation. The client timeout still bounds it.
	callCtx := context.WithoutCancel(ctx)
	v, _, _ := m.group.Do("health", func() (interface{}, error) {
		status, err := m.checker.HealthCheck(callCtx)
		res := checkResult{status: status, healthy: err == nil}

		m.mu.Lock()
		m.status = res.status
		m.healthy = res.healthy
		m.checkedAt = m.now()
		m.mu.Unlock()

		return res, nil
	})
	res := v.(checkResult)
	return res.status, res.healthy
}

func (m *HealthMonitor) cached() (*models.HealthStatus, bool, bool) {
	if m.ttl == 0 {
		return nil, false, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.checkedAt.IsZero() || m.now().Sub(m.checkedAt) >= m.ttl {
		return nil, false, false
	}
	return m.status, m.healthy, true
}

// Invalidate forces the next Check to query the service.
func (m *HealthMonitor) Invalidate() {
	m.mu.Lock()
	m.checkedAt = time.Time{}
	m.mu.Unlock()
}
