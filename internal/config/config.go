// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/codr1/themestudio/internal/store"
)

type StorageConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
	Path     string `yaml:"path"`
}

type Config struct {
	App struct {
		Name            string        `yaml:"name"`
		Environment     string        `yaml:"environment"`
		Port            int           `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"app"`

	Storage StorageConfig `yaml:"storage"`

	History struct {
		MaxEntries int `yaml:"max_entries"`
	} `yaml:"history"`

	Sessions struct {
		IdleTimeout time.Duration `yaml:"idle_timeout"`
		SweepCron   string        `yaml:"sweep_cron"`
		MaxOpen     int           `yaml:"max_open"`
	} `yaml:"sessions"`

	RateLimit struct {
		ClientWritesPerMinute int  `yaml:"client_writes_per_minute"`
		TenantWritesPerMinute int  `yaml:"tenant_writes_per_minute"`
		TrustProxy            bool `yaml:"trust_proxy"`
	} `yaml:"rate_limit"`
}

// Default returns a configuration that runs without any file: in-memory storage on
// port 8080.
func Default() *Config {
	var cfg Config
	cfg.App.Name = "themestudio"
	cfg.App.Environment = "development"
	cfg.App.Port = 8080
	cfg.App.ShutdownTimeout = 10 * time.Second
	cfg.Storage.Driver = store.DriverMemory
	cfg.History.MaxEntries = 50
	cfg.Sessions.IdleTimeout = 2 * time.Hour
	cfg.Sessions.SweepCron = "*/15 * * * *"
	cfg.Sessions.MaxOpen = 1000
	cfg.RateLimit.ClientWritesPerMinute = 120
	cfg.RateLimit.TenantWritesPerMinute = 600
	return &cfg
}

// Load loads both .env and yaml configuration. A missing yaml file falls back to Default.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := Default()
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("error reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.App.Environment = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.App.Port = port
	}
	if v := os.Getenv("THEMESTUDIO_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("THEMESTUDIO_STORAGE_FILENAME"); v != "" {
		c.Storage.Filename = v
	}
	if v := os.Getenv("THEMESTUDIO_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("THEMESTUDIO_HISTORY_MAX_ENTRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid THEMESTUDIO_HISTORY_MAX_ENTRIES %q: %w", v, err)
		}
		c.History.MaxEntries = n
	}
	if v := os.Getenv("THEMESTUDIO_SESSION_IDLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid THEMESTUDIO_SESSION_IDLE_TIMEOUT %q: %w", v, err)
		}
		c.Sessions.IdleTimeout = d
	}
	if v := os.Getenv("THEMESTUDIO_SESSION_MAX_OPEN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid THEMESTUDIO_SESSION_MAX_OPEN %q: %w", v, err)
		}
		c.Sessions.MaxOpen = n
	}
	if v := os.Getenv("THEMESTUDIO_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid THEMESTUDIO_TRUST_PROXY %q: %w", v, err)
		}
		c.RateLimit.TrustProxy = trust
	}
	return nil
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app port must be between 1 and 65535")
	}
	if c.App.ShutdownTimeout <= 0 {
		return fmt.Errorf("app shutdown_timeout must be positive")
	}

	switch c.Storage.Driver {
	case store.DriverMemory:
	case store.DriverSQLite:
		if c.Storage.Filename == "" {
			return fmt.Errorf("storage filename is required for sqlite")
		}
	case store.DriverFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for file")
		}
	case "":
		return fmt.Errorf("storage driver is required")
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}

	if c.History.MaxEntries <= 0 {
		return fmt.Errorf("history max_entries must be positive")
	}
	if c.Sessions.IdleTimeout <= 0 {
		return fmt.Errorf("sessions idle_timeout must be positive")
	}
	if _, err := cron.ParseStandard(c.Sessions.SweepCron); err != nil {
		return fmt.Errorf("sessions sweep_cron %q: %w", c.Sessions.SweepCron, err)
	}
	if c.Sessions.MaxOpen < 0 {
		return fmt.Errorf("sessions max_open must not be negative")
	}
	if c.RateLimit.ClientWritesPerMinute < 0 || c.RateLimit.TenantWritesPerMinute < 0 {
		return fmt.Errorf("rate_limit values must not be negative")
	}
	return nil
}

// StoreConfig maps the storage section onto the store package.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Driver:   c.Storage.Driver,
		Filename: c.Storage.Filename,
		Path:     c.Storage.Path,
	}
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
