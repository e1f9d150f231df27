package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the networth server
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Provider    ProviderConfig `toml:"provider"`
	Auth        AuthConfig     `toml:"auth"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the BadgerHold data directory and the key used to
// encrypt provider access secrets at rest (64 hex chars, 32 bytes).
type StorageConfig struct {
	Path      string `toml:"path"`
	CipherKey string `toml:"cipher_key"`
}

// ProviderConfig holds the financial-data provider API configuration.
type ProviderConfig struct {
	BaseURL   string `toml:"base_url"`
	ClientID  string `toml:"client_id"`
	Secret    string `toml:"secret"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`

	// MaxReadyRetries caps readiness retries per page fetch. Zero means
	// unbounded, matching the provider's eventual-success contract.
	MaxReadyRetries int `toml:"max_ready_retries"`
}

// GetTimeout parses and returns the timeout duration
func (c *ProviderConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// AuthConfig holds authentication configuration for JWT issuance.
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"` // duration string, default "24h"
}

// GetTokenExpiry parses and returns the token expiry duration.
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

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path: "data/networth",
		},
		Provider: ProviderConfig{
			BaseURL:   "https://sandbox.plaid.com",
			RateLimit: 10,
			Timeout:   "30s",
		},
		Auth: AuthConfig{
			JWTSecret:   "dev-jwt-secret-change-in-production",
			TokenExpiry: "24h",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
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

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NETWORTH_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("NETWORTH_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("NETWORTH_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("NETWORTH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("NETWORTH_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if v := os.Getenv("NETWORTH_CIPHER_KEY"); v != "" {
		config.Storage.CipherKey = v
	}

	if v := os.Getenv("NETWORTH_PROVIDER_URL"); v != "" {
		config.Provider.BaseURL = v
	}
	if v := os.Getenv("NETWORTH_PROVIDER_CLIENT_ID"); v != "" {
		config.Provider.ClientID = v
	}
	if v := os.Getenv("NETWORTH_PROVIDER_SECRET"); v != "" {
		config.Provider.Secret = v
	}

	if v := os.Getenv("NETWORTH_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("NETWORTH_AUTH_TOKEN_EXPIRY"); v != "" {
		config.Auth.TokenExpiry = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
