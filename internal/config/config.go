package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/klausondrag/meteosat-background-image-linux/pkg/meteosat"
)

// Config defines configuration for the meteosat CLI.
type Config struct {
	BaseURL      string        `yaml:"base_url"`
	SaveDir      string        `yaml:"save_dir"`
	Workers      int           `yaml:"workers"`
	MaxAttempts  int           `yaml:"max_attempts"`
	Grid         bool          `yaml:"grid"`
	Quality      string        `yaml:"quality"`
	Timeout      time.Duration `yaml:"-"`
	UserAgent    string        `yaml:"user_agent"`
	AnimateDelay int           `yaml:"animate_delay"`
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	BaseURL      string `yaml:"base_url"`
	SaveDir      string `yaml:"save_dir"`
	Workers      int    `yaml:"workers"`
	MaxAttempts  int    `yaml:"max_attempts"`
	Grid         *bool  `yaml:"grid"`
	Quality      string `yaml:"quality"`
	Timeout      string `yaml:"timeout"`
	UserAgent    string `yaml:"user_agent"`
	AnimateDelay int    `yaml:"animate_delay"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		BaseURL:      "http://www.sat.dundee.ac.uk/xrit/000.0E/MSG",
		SaveDir:      "images",
		Workers:      4,
		MaxAttempts:  48,
		Grid:         false,
		Quality:      "low",
		Timeout:      30 * time.Second,
		UserAgent:    "meteosat-background-image/1.0",
		AnimateDelay: 10,
	}
}

// LoadFromFile loads configuration from a YAML file, applying defaults
// for fields the file omits.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()
	if yc.BaseURL != "" {
		cfg.BaseURL = yc.BaseURL
	}
	if yc.SaveDir != "" {
		cfg.SaveDir = yc.SaveDir
	}
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}
	if yc.MaxAttempts != 0 {
		cfg.MaxAttempts = yc.MaxAttempts
	}
	if yc.Grid != nil {
		cfg.Grid = *yc.Grid
	}
	if yc.Quality != "" {
		cfg.Quality = yc.Quality
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if yc.UserAgent != "" {
		cfg.UserAgent = yc.UserAgent
	}
	if yc.AnimateDelay != 0 {
		cfg.AnimateDelay = yc.AnimateDelay
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the METEOSAT_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("METEOSAT_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("METEOSAT_SAVE_DIR"); v != "" {
		c.SaveDir = v
	}
	if v := os.Getenv("METEOSAT_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse METEOSAT_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("METEOSAT_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse METEOSAT_MAX_ATTEMPTS: %w", err)
		}
		c.MaxAttempts = n
	}
	if v := os.Getenv("METEOSAT_GRID"); v != "" {
		c.Grid = v == "true" || v == "1"
	}
	if v := os.Getenv("METEOSAT_QUALITY"); v != "" {
		c.Quality = v
	}
	if v := os.Getenv("METEOSAT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse METEOSAT_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("METEOSAT_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("METEOSAT_ANIMATE_DELAY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse METEOSAT_ANIMATE_DELAY: %w", err)
		}
		c.AnimateDelay = n
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("config: base_url is required")
	}
	if c.SaveDir == "" {
		return errors.New("config: save_dir is required")
	}
	if c.Workers <= 0 {
		return errors.New("config: workers must be positive")
	}
	if c.MaxAttempts <= 0 {
		return errors.New("config: max_attempts must be positive")
	}
	if _, err := meteosat.ParseQuality(c.Quality); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	return nil
}

// Variant returns the image variant selected by the configuration. Call
// Validate first; an unknown quality falls back to low here.
func (c *Config) Variant() meteosat.Variant {
	q, err := meteosat.ParseQuality(c.Quality)
	if err != nil {
		q = meteosat.Low
	}
	return meteosat.Variant{Grid: c.Grid, Quality: q}
}
