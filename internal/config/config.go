// Package config loads service configuration from .env and DEVFLOW_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/albertomtferreira/devflow/internal/store/pgstore"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  pgstore.Config  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Templates TemplatesConfig `mapstructure:"templates"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port       string `mapstructure:"port"`
	CORSOrigin string `mapstructure:"corsorigin"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"addsource"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requestsperminute"`
	Burst             int `mapstructure:"burst"`
}

// AuthConfig holds identity provider settings. SessionsFile points to
// a JSON file of token-to-user entries for the static dev provider;
// empty means no static sessions.
type AuthConfig struct {
	SessionsFile string `mapstructure:"sessionsfile"`
}

// TemplatesConfig holds status template catalog settings. PackFile
// points to an optional YAML pack of extra templates.
type TemplatesConfig struct {
	PackFile string `mapstructure:"packfile"`
}

// Load reads configuration from .env (optional) and environment
// variables prefixed DEVFLOW_, e.g. DEVFLOW_SERVER_PORT -> server.port.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	// Viper's AutomaticEnv doesn't populate Unmarshal when the keys
	// aren't already known, so map the prefixed env vars in by hand.
	const prefix = "DEVFLOW_"
	for _, envStr := range os.Environ() {
		pair := strings.SplitN(envStr, "=", 2)
		key, value := pair[0], pair[1]
		if strings.HasPrefix(key, prefix) {
			propKey := strings.TrimPrefix(key, prefix)
			propKey = strings.ToLower(strings.ReplaceAll(propKey, "_", "."))
			v.Set(propKey, value)
		}
	}

	cfg := defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:       "3001",
			CORSOrigin: "http://localhost:5173",
		},
		Log: LogConfig{
			Level:  "INFO",
			Format: "json",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 120,
			Burst:             30,
		},
	}
}
