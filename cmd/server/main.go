package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/irfndi/heartguard-ai-go/internal/api"
	"github.com/irfndi/heartguard-ai-go/internal/api/handlers"
	"github.com/irfndi/heartguard-ai-go/internal/catalog"
	"github.com/irfndi/heartguard-ai-go/internal/charts"
	"github.com/irfndi/heartguard-ai-go/internal/config"
	"github.com/irfndi/heartguard-ai-go/internal/logging"
	"github.com/irfndi/heartguard-ai-go/internal/middleware"
	"github.com/irfndi/heartguard-ai-go/internal/prediction"
	"github.com/irfndi/heartguard-ai-go/internal/session"
	"github.com/irfndi/heartguard-ai-go/internal/telemetry"
	"github.com/irfndi/heartguard-ai-go/internal/web"
	"github.com/irfndi/heartguard-ai-go/internal/wizard"
)

const serviceName = "heartguard-web"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, otlpLogger := newStandardLogger(cfg)
	if otlpLogger != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otlpLogger.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to flush OTLP logs: %v\n", err)
			}
		}()
	}
	logrusLogger := logging.NewLogrus(cfg.LogLevel)

	tp, err := telemetry.InitTelemetryWithProvider(context.Background(), telemetryConfig(cfg), logger.WithComponent("telemetry"))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shutdown telemetry: %v\n", err)
		}
	}()

	a, err := newApp(cfg, logger, logrusLogger)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           a.router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.LogStartup(serviceName, cfg.Telemetry.ServiceVersion, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-quit:
		logger.LogShutdown(serviceName, "signal received")
	}

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logrusLogger.Info("Server exited gracefully")
	return nil
}

func newStandardLogger(cfg *config.Config) (*logging.StandardLogger, *logging.OTLPLogger) {
	if !cfg.Telemetry.Enabled || !cfg.Telemetry.LogsEnabled {
		return logging.NewStandardLogger(cfg.LogLevel, cfg.Environment), nil
	}

	ep, err := telemetry.ResolveOTLPEndpoint(cfg.Telemetry.OTLPEndpoint, "logs")
	if err != nil {
		logger := logging.NewStandardLogger(cfg.LogLevel, cfg.Environment)
		logger.WithError(err).Warn("Invalid OTLP endpoint for logs, using stdout")
		return logger, nil
	}
	return logging.NewStandardOTLPLogger(logging.OTLPConfig{
		Endpoint:       ep.HostPort,
		URLPath:        ep.URLPath,
		Insecure:       ep.Insecure,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Environment,
		LogLevel:       cfg.LogLevel,
	})
}

func telemetryConfig(cfg *config.Config) *telemetry.TelemetryConfig {
	tc := telemetry.DefaultConfig()
	tc.Enabled = cfg.Telemetry.Enabled
	tc.Exporter = cfg.Telemetry.Exporter
	tc.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	tc.ServiceName = cfg.Telemetry.ServiceName
	tc.ServiceVersion = cfg.Telemetry.ServiceVersion
	tc.Environment = cfg.Environment
	return tc
}

// app is the wired site. close releases what newApp started.
type app struct {
	router  *gin.Engine
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(cfg *config.Config, logger *logging.StandardLogger, logrusLogger *logrus.Logger) (*app, error) {
	a := &app{}

	store, pinger, err := newSessionStore(cfg, logrusLogger, a)
	if err != nil {
		a.close()
		return nil, err
	}

	client := prediction.NewClient(&cfg.Prediction, logrusLogger)
	monitor := prediction.NewHealthMonitor(client, cfg.Prediction.HealthTTL)
	controller := wizard.NewController(store, client, monitor, logrusLogger,
		wizard.WithStaleAfter(3*client.Timeout()),
		wizard.WithEventLog(logger),
	)

	cat, err := catalog.Load()
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	pages, err := web.NewHandler(cat, controller, client, charts.NewRenderer(cat), logrusLogger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to prepare pages: %w", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName, otelgin.WithFilter(func(r *http.Request) bool {
		return !middleware.SkipTracing(r.URL.Path)
	})))
	router.Use(middleware.RequestID())
	router.Use(middleware.NewSessionMiddleware(cfg.Session.CookieName, cfg.Session.IdleTTL, cfg.Session.CookieSecure).Handler())
	router.Use(middleware.RequestLogger(logger))

	api.SetupRoutes(router, api.Dependencies{
		Wizard:     controller,
		Models:     client,
		Prediction: monitor,
		Store:      pinger,
		Pages:      pages,
		FiguresDir: figuresDir(cfg.Assets.FiguresDir, logrusLogger),
		Version:    cfg.Telemetry.ServiceVersion,
	})

	a.router = router
	return a, nil
}

// newSessionStore builds the configured backend. The pinger is nil for the
// memory store, which cannot fail.
func newSessionStore(cfg *config.Config, logger *logrus.Logger, a *app) (wizard.Store, handlers.StorePinger, error) {
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		rdb, err := session.NewRedisClient(cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() {
			if err := rdb.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close Redis client")
			}
		})
		store := session.NewRedisStore(rdb, cfg.Redis.KeyPrefix, cfg.Session.IdleTTL, logger)
		return store, store, nil
	default:
		store := session.NewMemoryStore(cfg.Session.IdleTTL, logger)
		store.StartJanitor(cfg.Session.JanitorEvery)
		a.closers = append(a.closers, store.Stop)
		return store, nil, nil
	}
}

// figuresDir returns dir when it exists, or "" so /figures is not mounted.
func figuresDir(dir string, logger *logrus.Logger) string {
	if dir == "" {
		return ""
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		logger.WithField("dir", dir).Warn("Figures directory not found; figure images will not be served")
		return ""
	}
	return dir
}
