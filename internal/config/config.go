package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the CLI and the HTTP server.
type Config struct {
	DataPath        string        `yaml:"data_path"`
	LogLevel        string        `yaml:"log_level"`
	HTTPAddr        string        `yaml:"http_addr"`
	Efficiency      float64       `yaml:"efficiency"`
	KWhPrice        float64       `yaml:"kwh_price"`
	Workers         int           `yaml:"workers"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

const (
	DefaultDataPath        = "data/o2_saturation.json"
	DefaultLogLevel        = "ERROR"
	DefaultHTTPAddr        = ":8080"
	DefaultEfficiency      = 0.9
	DefaultWorkers         = 4
	DefaultShutdownTimeout = 10 * time.Second
)

// Load reads the YAML file at path, if any, over the defaults, applies AQUAOX_*
// environment overrides, and validates the result. An empty path skips the file.
// Keys present in the file replace the defaults even when they are zero.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file or environment is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	c.DataPath = DefaultDataPath
	c.LogLevel = DefaultLogLevel
	c.HTTPAddr = DefaultHTTPAddr
	c.Efficiency = DefaultEfficiency
	c.Workers = DefaultWorkers
	c.ShutdownTimeout = DefaultShutdownTimeout
}

func (c *Config) applyEnv() error {
	c.DataPath = envOrDefault("AQUAOX_DATA_PATH", c.DataPath)
	c.LogLevel = envOrDefault("AQUAOX_LOG_LEVEL", c.LogLevel)
	c.HTTPAddr = envOrDefault("AQUAOX_HTTP_ADDR", c.HTTPAddr)

	if s := os.Getenv("AQUAOX_EFFICIENCY"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.New("invalid AQUAOX_EFFICIENCY")
		}
		c.Efficiency = v
	}
	if s := os.Getenv("AQUAOX_KWH_PRICE"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.New("invalid AQUAOX_KWH_PRICE")
		}
		c.KWhPrice = v
	}
	if s := os.Getenv("AQUAOX_WORKERS"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return errors.New("invalid AQUAOX_WORKERS")
		}
		c.Workers = n
	}
	if s := os.Getenv("AQUAOX_SHUTDOWN_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return errors.New("invalid AQUAOX_SHUTDOWN_TIMEOUT")
		}
		c.ShutdownTimeout = d
	}
	return nil
}

func (c *Config) validate() error {
	if c.DataPath == "" {
		return errors.New("data_path is required")
	}
	if c.HTTPAddr == "" {
		return errors.New("http_addr is required")
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR", "CRITICAL":
	default:
		return fmt.Errorf("log_level must be one of DEBUG, INFO, WARN, ERROR, CRITICAL, got %q", c.LogLevel)
	}
	if !(c.Efficiency > 0 && c.Efficiency <= 1) {
		return fmt.Errorf("efficiency must be in (0, 1], got %g", c.Efficiency)
	}
	if c.KWhPrice < 0 {
		return fmt.Errorf("kwh_price must not be negative, got %g", c.KWhPrice)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
