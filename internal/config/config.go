package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Session storage backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Telemetry exporters.
const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	Prediction  PredictionConfig `mapstructure:"prediction"`
	Session     SessionConfig    `mapstructure:"session"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Telemetry   TelemetryConfig  `mapstructure:"telemetry"`
	Assets      AssetsConfig     `mapstructure:"assets"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// PredictionConfig points at the external scoring service.
type PredictionConfig struct {
	ServiceURL string        `mapstructure:"service_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	HealthTTL  time.Duration `mapstructure:"health_ttl"`
}

type SessionConfig struct {
	Backend      string        `mapstructure:"backend"`
	IdleTTL      time.Duration `mapstructure:"idle_ttl"`
	JanitorEvery time.Duration `mapstructure:"janitor_every"`
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Exporter       string `mapstructure:"exporter"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
	LogsEnabled    bool   `mapstructure:"logs_enabled"`
}

type AssetsConfig struct {
	FiguresDir string `mapstructure:"figures_dir"`
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// API_URL is the historical name of the scoring service address.
	if err := viper.BindEnv("prediction.service_url", "PREDICTION_SERVICE_URL", "API_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind API_URL environment variable: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)
	config.Session.Backend = strings.ToLower(config.Session.Backend)
	config.Telemetry.Exporter = strings.ToLower(config.Telemetry.Exporter)
	config.Prediction.ServiceURL = strings.TrimSuffix(config.Prediction.ServiceURL, "/")

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks values that cannot be fixed with a default.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Prediction.ServiceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid prediction service URL %q", c.Prediction.ServiceURL)
	}
	if c.Prediction.Timeout <= 0 {
		return fmt.Errorf("prediction timeout must be positive, got %s", c.Prediction.Timeout)
	}
	if c.Prediction.HealthTTL < 0 {
		return fmt.Errorf("prediction health TTL must not be negative, got %s", c.Prediction.HealthTTL)
	}

	switch c.Session.Backend {
	case SessionBackendMemory, SessionBackendRedis:
	default:
		return fmt.Errorf("unsupported session backend %q", c.Session.Backend)
	}
	if c.Session.IdleTTL <= 0 {
		return fmt.Errorf("session idle TTL must be positive, got %s", c.Session.IdleTTL)
	}

	if c.Telemetry.Enabled {
		switch c.Telemetry.Exporter {
		case ExporterOTLP, ExporterStdout:
		default:
			return fmt.Errorf("unsupported telemetry exporter %q", c.Telemetry.Exporter)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	return nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Prediction service
	viper.SetDefault("prediction.service_url", "http://localhost:8000")
	viper.SetDefault("prediction.timeout", "10s")
	viper.SetDefault("prediction.health_ttl", "15s")

	// Sessions
	viper.SetDefault("session.backend", SessionBackendMemory)
	viper.SetDefault("session.idle_ttl", "30m")
	viper.SetDefault("session.janitor_every", "1m")
	viper.SetDefault("session.cookie_name", "heartguard_session")
	viper.SetDefault("session.cookie_secure", false)

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.key_prefix", "heartguard:wizard:")

	// Telemetry
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.exporter", ExporterOTLP)
	viper.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	viper.SetDefault("telemetry.service_name", "heartguard-web")
	viper.SetDefault("telemetry.service_version", "1.0.0")
	viper.SetDefault("telemetry.logs_enabled", false)

	// Assets
	viper.SetDefault("assets.figures_dir", "./figures")
}
