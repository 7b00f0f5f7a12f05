package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestStandardLogger_ContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStandardLoggerWithWriter(&buf, "debug", "test")

	logger.WithComponent("wizard").Info("step changed")
	logger.WithSession("abc").Debug("loaded")
	logger.WithError(errors.New("boom")).Error("failed")
	logger.WithRequestID("req-1").Info("request")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 4)
	assert.Equal(t, "wizard", entries[0]["component"])
	assert.Equal(t, "test", entries[0]["environment"])
	assert.Equal(t, "abc", entries[1]["session_id"])
	assert.Equal(t, "boom", entries[2]["error"])
	assert.Equal(t, "req-1", entries[3]["request_id"])
}

func TestStandardLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStandardLoggerWithWriter(&buf, "warn", "")

	logger.Logger().Info("hidden")
	logger.Logger().Warn("shown")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["msg"])
}

func TestStandardLogger_StandardEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStandardLoggerWithWriter(&buf, "info", "")

	logger.LogStartup("heartguard-web", "1.0.0", 8080)
	logger.LogAPIRequest("POST", "/demo/step", 503, 12, "sess-1")
	logger.LogBusinessEvent("prediction_completed", map[string]interface{}{"risk_level": "high"})
	logger.LogShutdown("heartguard-web", "signal")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 4)
	assert.Equal(t, "startup", entries[0]["event"])
	assert.Equal(t, float64(8080), entries[0]["port"])
	assert.Equal(t, "ERROR", entries[1]["level"])
	assert.Equal(t, "sess-1", entries[1]["session_id"])
	assert.Equal(t, "prediction_completed", entries[2]["event_type"])
	assert.Equal(t, "shutdown", entries[3]["event"])
}

func TestStandardLogger_WithErrorNil(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStandardLoggerWithWriter(&buf, "info", "")

	logger.WithError(nil).Info("ok")
	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0], "error")
}

func TestParseLogrusLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogrusLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, ParseLogrusLevel("warning"))
	assert.Equal(t, logrus.ErrorLevel, ParseLogrusLevel("error"))
	assert.Equal(t, logrus.InfoLevel, ParseLogrusLevel("verbose"))
}

func TestNewLogrus(t *testing.T) {
	logger := NewLogrus("debug")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

type recordingLogger struct {
	embedded.Logger
	records []otellog.Record
}

func (r *recordingLogger) Emit(_ context.Context, record otellog.Record) {
	r.records = append(r.records, record)
}

func (r *recordingLogger) Enabled(context.Context, otellog.EnabledParameters) bool {
	return true
}

func TestOTLPHandler(t *testing.T) {
	rec := &recordingLogger{}
	logger := slog.New(NewOTLPHandler(rec, slog.LevelInfo)).With("component", "prediction")

	logger.Debug("dropped")
	logger.WithGroup("http").Warn("slow response", "status", 200, "retry", false)

	require.Len(t, rec.records, 1)
	record := rec.records[0]
	assert.Equal(t, "slow response", record.Body().AsString())
	assert.Equal(t, otellog.SeverityWarn, record.Severity())

	attrs := map[string]otellog.Value{}
	record.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})
	assert.Equal(t, "prediction", attrs["component"].AsString())
	assert.Equal(t, int64(200), attrs["http.status"].AsInt64())
	assert.False(t, attrs["http.retry"].AsBool())
}

func TestConvertSlogLevelToSeverity(t *testing.T) {
	assert.Equal(t, otellog.SeverityDebug, convertSlogLevelToSeverity(slog.LevelDebug))
	assert.Equal(t, otellog.SeverityInfo, convertSlogLevelToSeverity(slog.LevelInfo))
	assert.Equal(t, otellog.SeverityWarn, convertSlogLevelToSeverity(slog.LevelWarn))
	assert.Equal(t, otellog.SeverityError, convertSlogLevelToSeverity(slog.LevelError+4))
}
