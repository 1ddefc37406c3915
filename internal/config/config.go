// Package config loads service configuration from TOML files and the environment
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/janskylukas/bond-service/internal/domain"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds all configuration for the bond service
type Config struct {
	Environment string          `toml:"environment"`
	HTTP        HTTPConfig      `toml:"http"`
	GRPC        GRPCConfig      `toml:"grpc"`
	Storage     StorageConfig   `toml:"storage"`
	Registry    RegistryConfig  `toml:"registry"`
	Auth        AuthConfig      `toml:"auth"`
	Logging     LoggingConfig   `toml:"logging"`
	Valuation   ValuationConfig `toml:"valuation"`
	Seed        SeedConfig      `toml:"seed"`
}

// HTTPConfig holds REST server configuration
type HTTPConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Addr returns the listen address
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GRPCConfig holds gRPC server configuration; port 0 disables the server
type GRPCConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the listen address
func (c GRPCConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig selects and configures the bond repository
type StorageConfig struct {
	Driver   string         `toml:"driver"`
	Postgres PostgresConfig `toml:"postgres"`
}

// PostgresConfig holds database connection settings
// ConnString wins over the individual fields when set
type PostgresConfig struct {
	ConnString string `toml:"conn_string"`
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	User       string `toml:"user"`
	Password   string `toml:"password"`
	Name       string `toml:"name"`
	SSLMode    string `toml:"sslmode"`
}

// ConnectionString returns a lib/pq connection string
func (c PostgresConfig) ConnectionString() string {
	if c.ConnString != "" {
		return c.ConnString
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RegistryConfig holds the ISIN registry client configuration
type RegistryConfig struct {
	Enabled   bool   `toml:"enabled"`
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"` // requests per second
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the request timeout
func (c *RegistryConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// AuthConfig holds bearer token configuration
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"` // duration string, "0" for tokens that never expire
}

// GetTokenExpiry parses and returns the token expiry duration
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// ValuationConfig holds the numeric context used for valuation
type ValuationConfig struct {
	Precision int32  `toml:"precision"`
	Rounding  string `toml:"rounding"`
}

// NumericContext converts the configuration into a domain.NumericContext
func (c ValuationConfig) NumericContext() (domain.NumericContext, error) {
	mode, err := domain.ParseRoundingMode(c.Rounding)
	if err != nil {
		return domain.NumericContext{}, err
	}
	return domain.NumericContext{Precision: c.Precision, Rounding: mode}, nil
}

// SeedConfig holds the owner that receives the demo portfolio at startup
type SeedConfig struct {
	Owner string `toml:"owner"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		HTTP: HTTPConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			AllowedOrigins: []string{"*"},
		},
		GRPC: GRPCConfig{
			Host: "0.0.0.0",
			Port: 9090,
		},
		Storage: StorageConfig{
			Driver: StorageMemory,
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "postgres",
				Password: "postgres",
				Name:     "bonds",
				SSLMode:  "disable",
			},
		},
		Registry: RegistryConfig{
			Enabled:   false,
			BaseURL:   "https://www.cdcp.cz/isbpublicjson/api",
			RateLimit: 5,
			Timeout:   "10s",
		},
		Auth: AuthConfig{
			JWTSecret:   "dev-jwt-secret-change-in-production",
			TokenExpiry: "24h",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Valuation: ValuationConfig{
			Precision: domain.DefaultNumericContext.Precision,
			Rounding:  domain.DefaultNumericContext.Rounding.String(),
		},
	}
}

// Load loads configuration from files with environment overrides
func Load(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) error {
	if env := os.Getenv("BOND_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("BOND_HTTP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid BOND_HTTP_PORT %q: %w", port, err)
		}
		config.HTTP.Port = p
	}

	if port := os.Getenv("BOND_GRPC_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid BOND_GRPC_PORT %q: %w", port, err)
		}
		config.GRPC.Port = p
	}

	if driver := os.Getenv("BOND_STORAGE_DRIVER"); driver != "" {
		config.Storage.Driver = driver
	}

	// Database overrides
	pg := &config.Storage.Postgres
	if v := os.Getenv("DB_CONN_STR"); v != "" {
		pg.ConnString = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		pg.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT %q: %w", v, err)
		}
		pg.Port = p
	}
	if v := os.Getenv("DB_USER"); v != "" {
		pg.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		pg.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		pg.Name = v
	}

	// Auth overrides
	if v := os.Getenv("BOND_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("BOND_TOKEN_EXPIRY"); v != "" {
		config.Auth.TokenExpiry = v
	}

	// Registry overrides
	if v := os.Getenv("BOND_REGISTRY_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid BOND_REGISTRY_ENABLED %q: %w", v, err)
		}
		config.Registry.Enabled = enabled
	}
	if v := os.Getenv("BOND_REGISTRY_URL"); v != "" {
		config.Registry.BaseURL = v
	}

	if level := os.Getenv("BOND_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	return nil
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port %d", c.HTTP.Port)
	}
	if c.GRPC.Port < 0 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid gRPC port %d", c.GRPC.Port)
	}

	if c.Valuation.Precision <= 0 {
		return fmt.Errorf("valuation precision must be positive, got %d", c.Valuation.Precision)
	}
	if _, err := domain.ParseRoundingMode(c.Valuation.Rounding); err != nil {
		return err
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.IsProduction() && c.Auth.JWTSecret == NewDefaultConfig().Auth.JWTSecret {
		return fmt.Errorf("auth.jwt_secret must be changed in production")
	}

	if err := validateDuration("registry.timeout", c.Registry.Timeout); err != nil {
		return err
	}
	if err := validateDuration("auth.token_expiry", c.Auth.TokenExpiry); err != nil {
		return err
	}

	if c.Registry.Enabled && c.Registry.RateLimit <= 0 {
		return fmt.Errorf("registry.rate_limit must be positive, got %d", c.Registry.RateLimit)
	}

	return nil
}

// validateDuration rejects malformed or negative durations; empty keeps the default
func validateDuration(key, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d < 0 {
		return fmt.Errorf("invalid %s %q: must not be negative", key, value)
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
