// Package config loads Maestro's runtime settings: data directory, rolling
// log caps, sweep cadence, and sync behavior. Settings come from defaults,
// an optional config file in the data directory, and MAESTRO_* environment
// variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration.
type Config struct {
	DataDir        string        `mapstructure:"data_dir"`
	ProjectRoot    string        `mapstructure:"project_root"`
	ContextCap     int           `mapstructure:"context_cap"`
	SessionCap     int           `mapstructure:"session_cap"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	SessionTimeout time.Duration `mapstructure:"session_timeout"`
	SyncWindow     time.Duration `mapstructure:"sync_window"`
	SimLatency     time.Duration `mapstructure:"sim_latency"`
}

// Load resolves the configuration. A missing config file is not an error;
// invalid values are.
func Load() (*Config, error) {
	v := viper.New()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v.SetDefault("data_dir", filepath.Join(home, ".maestro"))
	v.SetDefault("project_root", ".")
	v.SetDefault("context_cap", 1000)
	v.SetDefault("session_cap", 500)
	v.SetDefault("sweep_interval", "30m")
	v.SetDefault("session_timeout", "24h")
	v.SetDefault("sync_window", "5m")
	v.SetDefault("sim_latency", "100ms")

	v.SetEnvPrefix("MAESTRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(v.GetString("data_dir"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		DataDir:        v.GetString("data_dir"),
		ProjectRoot:    v.GetString("project_root"),
		ContextCap:     v.GetInt("context_cap"),
		SessionCap:     v.GetInt("session_cap"),
		SweepInterval:  v.GetDuration("sweep_interval"),
		SessionTimeout: v.GetDuration("session_timeout"),
		SyncWindow:     v.GetDuration("sync_window"),
		SimLatency:     v.GetDuration("sim_latency"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.ContextCap <= 0 {
		return fmt.Errorf("context_cap must be positive, got %d", c.ContextCap)
	}
	if c.SessionCap <= 0 {
		return fmt.Errorf("session_cap must be positive, got %d", c.SessionCap)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be positive, got %s", c.SweepInterval)
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("session_timeout must be positive, got %s", c.SessionTimeout)
	}
	if c.SyncWindow <= 0 {
		return fmt.Errorf("sync_window must be positive, got %s", c.SyncWindow)
	}
	return nil
}
