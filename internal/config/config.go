package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Environments accepted in APP_ENV.
const (
	EnvLocal      = "local"
	EnvStaging    = "staging"
	EnvProduction = "production"
)

// SupportedAlgorithms lists the HMAC signing methods the token codec may be configured with.
var SupportedAlgorithms = []string{"HS256", "HS384", "HS512"}

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Domain          string        `env:"DOMAIN" envDefault:"localhost"`
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	Env             string        `env:"APP_ENV" envDefault:"local"` // local, staging or production
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	AllowedOrigins  []string      `env:"ALLOWED_CORS_ORIGINS,required,notEmpty" envSeparator:","`
	// TrustProxyHeaders takes the client IP from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
}

type DatabaseConfig struct {
	// URI selects the driver: postgres:// or postgresql:// for Postgres,
	// sqlite:// or file: for SQLite.
	URI string `env:"DATABASE_URI,required,notEmpty"`
}

type AuthConfig struct {
	SecretKey                string `env:"SECRET_KEY,required,notEmpty"`
	Algorithm                string `env:"ALGORITHM" envDefault:"HS256"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"120"`
	// Scheme expected in the Authorization header, compared case-insensitively.
	Scheme string `env:"AUTH_SCHEME" envDefault:"Token"`
}

type RedisConfig struct {
	Addr              string        `env:"REDIS_ADDR"`
	Password          string        `env:"REDIS_PASSWORD"`
	DB                int           `env:"REDIS_DB" envDefault:"0"`
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"20"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
}

type TelemetryConfig struct {
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"conduit-api"`
}

// Load reads configuration from environment variables, after loading an
// optional .env file. Missing required variables are reported together.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Server.AllowedOrigins = trimAll(cfg.Server.AllowedOrigins)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	switch c.Server.Env {
	case EnvLocal, EnvStaging, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, staging, production, got %q", c.Server.Env))
	}

	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("ALLOWED_CORS_ORIGINS must list at least one origin"))
	}

	if strings.TrimSpace(c.Auth.SecretKey) == "" {
		errs = append(errs, errors.New("SECRET_KEY must not be blank"))
	}

	if !slices.Contains(SupportedAlgorithms, c.Auth.Algorithm) {
		errs = append(errs, fmt.Errorf("ALGORITHM must be one of %s, got %q", strings.Join(SupportedAlgorithms, ", "), c.Auth.Algorithm))
	}

	if c.Auth.AccessTokenExpireMinutes <= 0 {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", c.Auth.AccessTokenExpireMinutes))
	}

	if c.Auth.Scheme == "" || strings.ContainsAny(c.Auth.Scheme, " \t") {
		errs = append(errs, fmt.Errorf("AUTH_SCHEME must be a single word, got %q", c.Auth.Scheme))
	}

	if c.Redis.Enabled() && (c.Redis.RateLimitRequests <= 0 || c.Redis.RateLimitWindow <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive"))
	}

	return errors.Join(errs...)
}

// AccessTokenTTL returns the lifetime of issued access tokens.
func (c *AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// IsDevelopment returns true if the environment is set to local
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == EnvLocal
}

// Enabled reports whether a Redis address was configured.
func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

func trimAll(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
