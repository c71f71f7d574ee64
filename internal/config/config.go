package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Service names accepted by `medisched serve` and `medisched migrate`.
const (
	ServiceAuth         = "auth"
	ServicePatients     = "patients"
	ServiceDoctors      = "doctors"
	ServiceAppointments = "appointments"
	ServiceRecords      = "records"
	ServiceBilling      = "billing"
)

// Services lists every deployable service in start-up documentation order.
var Services = []string{
	ServiceAuth, ServicePatients, ServiceDoctors,
	ServiceAppointments, ServiceRecords, ServiceBilling,
}

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`
	PasswordHash   string        `mapstructure:"PASSWORD_HASH"`
	AuthServiceURL string        `mapstructure:"AUTH_SERVICE_URL"`
	AuthTimeout    time.Duration `mapstructure:"AUTH_TIMEOUT"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("PASSWORD_HASH", "sha256")
	v.SetDefault("AUTH_SERVICE_URL", "http://localhost:8000")
	v.SetDefault("AUTH_TIMEOUT", "5s")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"JWT_SECRET", "TOKEN_TTL", "PASSWORD_HASH",
		"AUTH_SERVICE_URL", "AUTH_TIMEOUT", "REQUEST_TIMEOUT",
		"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	cfg.AuthServiceURL = strings.TrimRight(cfg.AuthServiceURL, "/")

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks the settings the given service depends on. The identity
// service is the only holder of the signing secret; every other service needs
// a reachable authority and a bounded verification timeout.
func (c *Config) Validate(service string) error {
	if !IsService(service) {
		return fmt.Errorf("unknown service %q (expected one of %s)", service, strings.Join(Services, ", "))
	}

	if service == ServiceAuth {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for the auth service")
		}
		if c.IsProduction() && len(c.JWTSecret) < 16 {
			return fmt.Errorf("JWT_SECRET must be at least 16 bytes in production, got %d", len(c.JWTSecret))
		}
		if c.TokenTTL <= 0 {
			return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
		}
		if c.PasswordHash != "sha256" && c.PasswordHash != "bcrypt" {
			return fmt.Errorf("PASSWORD_HASH must be \"sha256\" or \"bcrypt\", got %q", c.PasswordHash)
		}
		return nil
	}

	if c.AuthServiceURL == "" {
		return fmt.Errorf("AUTH_SERVICE_URL is required for the %s service", service)
	}
	if c.AuthTimeout <= 0 {
		return fmt.Errorf("AUTH_TIMEOUT must be positive, got %s", c.AuthTimeout)
	}
	return nil
}

// IsService reports whether name is a deployable service.
func IsService(name string) bool {
	for _, s := range Services {
		if s == name {
			return true
		}
	}
	return false
}
