// Package config loads supervisor configuration from a file and the
// environment using viper. Environment variables take precedence over
// file values and use the JOBWARD_ prefix.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the jobward binary needs at startup.
type Config struct {
	DatabaseURL       string        `mapstructure:"database_url"`
	StoreDriver       string        `mapstructure:"store_driver"`
	PollingInterval   time.Duration `mapstructure:"polling_interval"`
	MaxConcurrentJobs int           `mapstructure:"max_concurrent_jobs"`
	MetricsAddr       string        `mapstructure:"metrics_addr"`
	OTELEndpoint      string        `mapstructure:"otel_endpoint"`
	LogLevel          string        `mapstructure:"log_level"`
}

// Load reads configuration from the given file path (optional) and the
// environment. An empty path skips the file and uses env vars and
// defaults only.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("database_url", "")
	v.SetDefault("store_driver", "postgres")
	v.SetDefault("polling_interval", "5s")
	v.SetDefault("max_concurrent_jobs", 4)
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("otel_endpoint", "")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("JOBWARD")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required (env: JOBWARD_DATABASE_URL)")
	}
	switch strings.ToLower(c.StoreDriver) {
	case "postgres", "sqlite":
		c.StoreDriver = strings.ToLower(c.StoreDriver)
	default:
		return fmt.Errorf("store_driver must be postgres or sqlite, got %q", c.StoreDriver)
	}
	return nil
}
