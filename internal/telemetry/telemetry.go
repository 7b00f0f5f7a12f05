package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Service information
	ServiceName    = "github.com/irfndi/heartguard-ai-go"
	ServiceVersion = "1.0.0"
)

// Exporter kinds.
const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
)

// TelemetryConfig holds configuration for telemetry
type TelemetryConfig struct {
	Enabled        bool
	Exporter       string
	OTLPEndpoint   string
	ServiceName    string
	ServiceVersion string
	Environment    string
	SampleRate     float64
	BatchTimeout   time.Duration
	MaxExportBatch int
	MaxQueueSize   int
}

// DefaultConfig returns default telemetry configuration
func DefaultConfig() *TelemetryConfig {
	return &TelemetryConfig{
		Enabled:        false,
		Exporter:       ExporterOTLP,
		OTLPEndpoint:   "http://localhost:4318",
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    "development",
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		MaxExportBatch: 512,
		MaxQueueSize:   2048,
	}
}

// Provider holds the telemetry provider
type Provider struct {
	Shutdown func(context.Context) error
	logger   *slog.Logger
}

// Endpoint is a resolved OTLP/HTTP collector address for one signal.
type Endpoint struct {
	HostPort string
	URLPath  string
	Insecure bool
	URL      string
}

// ResolveOTLPEndpoint splits a collector base URL into the exporter options
// for signal ("traces" or "logs"). A bare host:port is treated as plain http.
func ResolveOTLPEndpoint(raw, signal string) (Endpoint, error) {
	if raw == "" {
		return Endpoint{}, fmt.Errorf("invalid OTLPEndpoint: empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid OTLPEndpoint %q: %w", raw, err)
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Endpoint{}, fmt.Errorf("invalid OTLPEndpoint %q", raw)
	}

	suffix := "/v1/" + signal
	path := strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(path, suffix) {
		path += suffix
	}

	return Endpoint{
		HostPort: u.Host,
		URLPath:  path,
		Insecure: u.Scheme == "http",
		URL:      u.Scheme + "://" + u.Host + path,
	}, nil
}

// InitTelemetryWithProvider installs the global tracer provider and W3C
// propagator. When telemetry is disabled the returned provider is a no-op.
func InitTelemetryWithProvider(ctx context.Context, config *TelemetryConfig, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config == nil || !config.Enabled {
		return &Provider{Shutdown: func(context.Context) error { return nil }, logger: logger}, nil
	}

	exporter, err := newExporter(ctx, config)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironment(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	sampleRate := config.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(orDefault(config.BatchTimeout, 5*time.Second)),
			sdktrace.WithMaxExportBatchSize(orDefaultInt(config.MaxExportBatch, 512)),
			sdktrace.WithMaxQueueSize(orDefaultInt(config.MaxQueueSize, 2048)),
		),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Telemetry initialized",
		"exporter", config.Exporter,
		"endpoint", config.OTLPEndpoint,
		"service", config.ServiceName,
	)

	return &Provider{Shutdown: tp.Shutdown, logger: logger}, nil
}

func newExporter(ctx context.Context, config *TelemetryConfig) (sdktrace.SpanExporter, error) {
	switch config.Exporter {
	case ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		return exp, nil
	case ExporterOTLP, "":
		ep, err := ResolveOTLPEndpoint(config.OTLPEndpoint, "traces")
		if err != nil {
			return nil, err
		}
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(ep.HostPort),
			otlptracehttp.WithURLPath(ep.URLPath),
		}
		if ep.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("unsupported exporter %q", config.Exporter)
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func orDefaultInt(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}

// GetTracer returns a named tracer from the global provider
func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// GetHTTPTracer returns the tracer for inbound HTTP handling
func GetHTTPTracer() trace.Tracer {
	return GetTracer(ServiceName + "/http")
}

// GetExternalTracer returns the tracer for calls to the prediction service
func GetExternalTracer() trace.Tracer {
	return GetTracer(ServiceName + "/external")
}

// GetBusinessTracer returns the tracer for wizard operations
func GetBusinessTracer() trace.Tracer {
	return GetTracer(ServiceName + "/business")
}

// RecordError records err on span and marks it failed
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
