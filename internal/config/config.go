// Package config loads client settings from the environment and an
// optional .env file. Every knob has a usable default so the binary
// runs against a local backend with zero setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds the runtime settings for the client.
type Config struct {
	ServerURL       string        `mapstructure:"MEDICRM_SERVER_URL"`
	CredentialsFile string        `mapstructure:"MEDICRM_CREDENTIALS_FILE"`
	LogFile         string        `mapstructure:"MEDICRM_LOG_FILE"`
	LogLevel        string        `mapstructure:"MEDICRM_LOG_LEVEL"`
	PollInterval    time.Duration `mapstructure:"MEDICRM_POLL_INTERVAL"`
	PageSize        int           `mapstructure:"MEDICRM_PAGE_SIZE"`
	RequestTimeout  time.Duration `mapstructure:"MEDICRM_REQUEST_TIMEOUT"`
}

// Load reads configuration with env vars taking precedence over the
// optional .env file. A missing .env is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	home, _ := os.UserHomeDir()
	stateDir := filepath.Join(home, ".medicrm")

	v.SetDefault("MEDICRM_SERVER_URL", "http://127.0.0.1:5000/api")
	v.SetDefault("MEDICRM_CREDENTIALS_FILE", filepath.Join(stateDir, "credentials.json"))
	v.SetDefault("MEDICRM_LOG_FILE", filepath.Join(stateDir, "medicrm.log"))
	v.SetDefault("MEDICRM_LOG_LEVEL", "info")
	v.SetDefault("MEDICRM_POLL_INTERVAL", "10s")
	v.SetDefault("MEDICRM_PAGE_SIZE", 3)
	v.SetDefault("MEDICRM_REQUEST_TIMEOUT", "15s")

	for _, key := range []string{
		"MEDICRM_SERVER_URL",
		"MEDICRM_CREDENTIALS_FILE",
		"MEDICRM_LOG_FILE",
		"MEDICRM_LOG_LEVEL",
		"MEDICRM_POLL_INTERVAL",
		"MEDICRM_PAGE_SIZE",
		"MEDICRM_REQUEST_TIMEOUT",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("MEDICRM_SERVER_URL must not be empty")
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("MEDICRM_POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("MEDICRM_PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}
	return cfg, nil
}
