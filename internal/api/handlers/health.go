package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/irfndi/heartguard-ai-go/internal/models"
)

var startTime = time.Now()

// Service states reported by /health.
const (
	statusHealthy       = "healthy"
	statusDegraded      = "degraded"
	statusUnhealthy     = "unhealthy"
	statusNotConfigured = "not configured"
)

// PredictionHealth reports the scoring service's cached health.
type PredictionHealth interface {
	Status(ctx context.Context) (*models.HealthStatus, bool)
}

// StorePinger checks the session store backend.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages the health check endpoint.
type HealthHandler struct {
	prediction PredictionHealth
	store      StorePinger
	version    string
}

// HealthResponse represents the health status response.
type HealthResponse struct {
	// Status is the overall status ("healthy", "degraded", "unhealthy").
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	// Scoring is the scoring service's own payload when it answered.
	Scoring *models.HealthStatus `json:"scoring,omitempty"`
	System  SystemStats          `json:"system"`
}

// SystemStats is a snapshot of the host process.
type SystemStats struct {
	Goroutines    int     `json:"goroutines"`
	HeapAllocMB   float64 `json:"heap_alloc_mb"`
	MemoryUsedPct float64 `json:"memory_used_pct,omitempty"`
}

// NewHealthHandler creates a HealthHandler. store may be nil when sessions
// live in process memory.
func NewHealthHandler(prediction PredictionHealth, store StorePinger, version string) *HealthHandler {
	return &HealthHandler{prediction: prediction, store: store, version: version}
}

// HealthCheck handles GET /health. Only the session store is critical: an
// unreachable scoring service degrades the site but the pages still serve.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	servicesStatus := make(map[string]string)

	var scoring *models.HealthStatus
	if h.prediction != nil {
		status, healthy := h.prediction.Status(ctx)
		scoring = status
		if healthy {
			servicesStatus["prediction"] = statusHealthy
		} else {
			servicesStatus["prediction"] = statusUnhealthy
		}
	} else {
		servicesStatus["prediction"] = statusNotConfigured
	}

	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			servicesStatus["session_store"] = "unhealthy: " + err.Error()
		} else {
			servicesStatus["session_store"] = statusHealthy
		}
	} else {
		servicesStatus["session_store"] = statusNotConfigured
	}

	criticalServices := map[string]bool{"session_store": true}
	criticalUnhealthy := false
	status := statusHealthy
	for name, s := range servicesStatus {
		if s != statusHealthy && s != statusNotConfigured {
			status = statusDegraded
			if criticalServices[name] {
				criticalUnhealthy = true
			}
		}
	}

	code := http.StatusOK
	if criticalUnhealthy {
		status = statusUnhealthy
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  servicesStatus,
		Version:   h.version,
		Uptime:    time.Since(startTime).String(),
		Scoring:   scoring,
		System:    systemStats(ctx),
	})
}

func systemStats(ctx context.Context) SystemStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := SystemStats{
		Goroutines:  runtime.NumGoroutine(),
		HeapAllocMB: float64(ms.HeapAlloc) / (1024 * 1024),
	}
	// Host memory is best effort; some sandboxes hide /proc/meminfo.
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryUsedPct = vm.UsedPercent
	}
	return stats
}
