// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// DevSessionSecret is the default SESSION_SECRET. It is rejected in production.
const DevSessionSecret = "dev-session-secret-change-me-please"

// Checkout modes.
const (
	CheckoutSimulated = "simulated"
	CheckoutBackend   = "backend"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Marketplace backend
	BackendAPIURL  string        `env:"BACKEND_API_URL,required"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`
	BackendRPS     float64       `env:"BACKEND_RPS" envDefault:"20"`
	BackendBurst   int           `env:"BACKEND_BURST" envDefault:"10"`

	// Database (PostgreSQL). Empty keeps notifications and preferences in memory.
	DatabaseURL string `env:"DATABASE_URL"`

	// Cache (Redis). Empty keeps sessions, rate limits and key overlays in memory.
	RedisURL string `env:"REDIS_URL"`

	// Cookie session signing key
	SessionSecret string        `env:"SESSION_SECRET" envDefault:"dev-session-secret-change-me-please"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPM     int  `env:"RATE_LIMIT_RPM" envDefault:"300"`
	RateLimitBurst   int  `env:"RATE_LIMIT_BURST" envDefault:"30"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`

	// Timezone used for notification grouping
	Timezone string `env:"PORTAL_TIMEZONE" envDefault:"UTC"`

	// Optional catalog YAML replacing the embedded one
	CatalogPath string `env:"CATALOG_PATH"`

	// Checkout
	CheckoutMode  string        `env:"CHECKOUT_MODE" envDefault:"simulated"`
	CheckoutDelay time.Duration `env:"CHECKOUT_DELAY" envDefault:"1500ms"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid PORTAL_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks settings that env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.CheckoutMode != CheckoutSimulated && c.CheckoutMode != CheckoutBackend {
		errs = append(errs, fmt.Errorf("CHECKOUT_MODE must be %q or %q", CheckoutSimulated, CheckoutBackend))
	}
	if c.BackendRPS <= 0 {
		errs = append(errs, errors.New("BACKEND_RPS must be positive"))
	}
	if len(c.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 32 bytes"))
	}
	if c.IsProduction() && c.SessionSecret == DevSessionSecret {
		errs = append(errs, errors.New("SESSION_SECRET must be set in production"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Load reads an optional .env file, parses environment variables and
// returns a validated Config.
func Load() (*Config, error) {
	// Real environment wins over .env; a missing file is fine.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
