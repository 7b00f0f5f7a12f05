package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger interface defines the common logging methods
// This interface is implemented by both the plain JSON logger and the OTLP logger
type Logger interface {
	WithComponent(componentName string) *slog.Logger
	WithRequestID(requestID string) *slog.Logger
	WithSession(sessionID string) *slog.Logger
	WithError(err error) *slog.Logger
	LogStartup(serviceName string, version string, port int)
	LogShutdown(serviceName string, reason string)
	LogAPIRequest(method string, path string, statusCode int, duration int64, sessionID string)
	LogBusinessEvent(eventType string, details map[string]interface{})
	Logger() *slog.Logger
}

// StandardLogger provides a standardized logging interface
type StandardLogger struct {
	logger Logger
}

// NewStandardLogger creates a JSON logger on stdout
func NewStandardLogger(logLevel string, environment string) *StandardLogger {
	return NewStandardLoggerWithWriter(os.Stdout, logLevel, environment)
}

// NewStandardLoggerWithWriter creates a JSON logger on w
func NewStandardLoggerWithWriter(w io.Writer, logLevel string, environment string) *StandardLogger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: getSlogLevel(logLevel),
	}))
	if environment != "" {
		logger = logger.With("environment", environment)
	}
	return &StandardLogger{logger: &slogLogger{logger: logger}}
}

// NewStandardOTLPLogger creates a new standardized logger with OTLP support.
// The returned OTLPLogger must be shut down to flush pending records; it is
// nil when the exporter could not be created and stdout is used instead.
func NewStandardOTLPLogger(config OTLPConfig) (*StandardLogger, *OTLPLogger) {
	otlpLogger, err := NewOTLPLogger(config)
	if err != nil {
		fallback := NewStandardLogger(config.LogLevel, config.Environment)
		fallback.Logger().Warn("OTLP log exporter unavailable, using stdout", "error", err.Error())
		return fallback, nil
	}
	return &StandardLogger{logger: &slogLogger{logger: otlpLogger.Logger()}}, otlpLogger
}

// WithComponent creates a logger with component context
func (l *StandardLogger) WithComponent(componentName string) *slog.Logger {
	return l.logger.WithComponent(componentName)
}

// WithRequestID creates a logger with request ID context
func (l *StandardLogger) WithRequestID(requestID string) *slog.Logger {
	return l.logger.WithRequestID(requestID)
}

// WithSession creates a logger with wizard session context
func (l *StandardLogger) WithSession(sessionID string) *slog.Logger {
	return l.logger.WithSession(sessionID)
}

// WithError creates a logger with error context
func (l *StandardLogger) WithError(err error) *slog.Logger {
	return l.logger.WithError(err)
}

// LogStartup logs application startup information
func (l *StandardLogger) LogStartup(serviceName string, version string, port int) {
	l.logger.LogStartup(serviceName, version, port)
}

// LogShutdown logs application shutdown information
func (l *StandardLogger) LogShutdown(serviceName string, reason string) {
	l.logger.LogShutdown(serviceName, reason)
}

// LogAPIRequest logs HTTP requests in a standardized format
func (l *StandardLogger) LogAPIRequest(method string, path string, statusCode int, duration int64, sessionID string) {
	l.logger.LogAPIRequest(method, path, statusCode, duration, sessionID)
}

// LogBusinessEvent logs wizard and prediction events in a standardized format
func (l *StandardLogger) LogBusinessEvent(eventType string, details map[string]interface{}) {
	l.logger.LogBusinessEvent(eventType, details)
}

// Logger returns the underlying *slog.Logger
func (l *StandardLogger) Logger() *slog.Logger {
	return l.logger.Logger()
}

// NewLogrus creates the JSON logrus logger handed to services.
func NewLogrus(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(ParseLogrusLevel(level))
	return logger
}

// getSlogLevel converts string level to slog.Level
func getSlogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogrusLevel converts string level to logrus.Level
func ParseLogrusLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// slogLogger implements Logger on top of any *slog.Logger
type slogLogger struct {
	logger *slog.Logger
}

func (s *slogLogger) WithComponent(componentName string) *slog.Logger {
	return s.logger.With("component", componentName)
}

func (s *slogLogger) WithRequestID(requestID string) *slog.Logger {
	return s.logger.With("request_id", requestID)
}

func (s *slogLogger) WithSession(sessionID string) *slog.Logger {
	return s.logger.With("session_id", sessionID)
}

func (s *slogLogger) WithError(err error) *slog.Logger {
	if err == nil {
		return s.logger
	}
	return s.logger.With("error", err.Error())
}

func (s *slogLogger) LogStartup(serviceName string, version string, port int) {
	s.logger.Info("Application startup",
		"service", serviceName,
		"version", version,
		"port", port,
		"event", "startup",
	)
}

func (s *slogLogger) LogShutdown(serviceName string, reason string) {
	s.logger.Info("Application shutdown",
		"service", serviceName,
		"reason", reason,
		"event", "shutdown",
	)
}

func (s *slogLogger) LogAPIRequest(method string, path string, statusCode int, duration int64, sessionID string) {
	level := slog.LevelInfo
	if statusCode >= 500 {
		level = slog.LevelError
	}
	s.logger.Log(context.Background(), level, "HTTP request",
		"method", method,
		"path", path,
		"status", statusCode,
		"duration_ms", duration,
		"session_id", sessionID,
		"event", "api",
	)
}

func (s *slogLogger) LogBusinessEvent(eventType string, details map[string]interface{}) {
	s.logger.Info("Business event",
		"event_type", eventType,
		"details", details,
		"event", "business",
	)
}

func (s *slogLogger) Logger() *slog.Logger {
	return s.logger
}
