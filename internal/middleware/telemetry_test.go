package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(t.Context())
	})
	return recorder
}

func TestSkipTracing(t *testing.T) {
	tests := []struct {
		path string
		skip bool
	}{
		{"/health", true},
		{"/favicon.ico", true},
		{"/static/site.css", true},
		{"/figures/training/fig01_optuna.png", true},
		{"/demo", false},
		{"/api/v1/wizard", false},
		{"/healthz", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.skip, SkipTracing(tt.path), tt.path)
	}
}

func TestHealthCheckTelemetryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := installRecorder(t)

	router := gin.New()
	router.Use(HealthCheckTelemetryMiddleware())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "Health /health", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "server_error", attrs["health.status"])
	assert.Equal(t, "503", attrs["http.status_code"])
}

func TestStartSpanAndHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := installRecorder(t)

	router := gin.New()
	router.GET("/work", func(c *gin.Context) {
		_, span := StartSpan(c, "work")
		AddSpanAttribute(c, "wizard.step", 2)
		AddSpanAttribute(c, "wizard.preset", "high_risk")
		AddSpanAttribute(c, "wizard.loading", true)
		AddSpanAttribute(c, "other", []int{1})
		RecordError(c, errors.New("boom"), "failed")
		span.End()
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/work", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "work", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "2", attrs["wizard.step"])
	assert.Equal(t, "high_risk", attrs["wizard.preset"])
	assert.Equal(t, "true", attrs["wizard.loading"])
	assert.Equal(t, "[1]", attrs["other"])
}

func TestHealthStatusFromCode(t *testing.T) {
	assert.Equal(t, "healthy", healthStatusFromCode(200))
	assert.Equal(t, "client_error", healthStatusFromCode(404))
	assert.Equal(t, "server_error", healthStatusFromCode(500))
	assert.Equal(t, "unknown", healthStatusFromCode(301))
}
