// Package config loads the demo server configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultAddr is the listen address used when none is configured
	DefaultAddr = ":8080"

	// DefaultLogLevel is the zap level used when none is configured
	DefaultLogLevel = "info"

	// DefaultIdleTimeout closes websocket sessions without actions for this long
	DefaultIdleTimeout = 10 * time.Minute
)

// Config represents the demo server configuration
type Config struct {
	// Addr is the HTTP listen address
	Addr string `yaml:"addr" validate:"required,hostname_port"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Minify strips insignificant whitespace from rendered frames
	Minify bool `yaml:"minify"`

	// IdleTimeout closes websocket sessions idle for longer; 0 keeps them open
	IdleTimeout time.Duration `yaml:"idle_timeout" validate:"gte=0"`

	// Items seeds the demo list
	Items []string `yaml:"items" validate:"dive,required,max=64"`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Addr:        DefaultAddr,
		LogLevel:    DefaultLogLevel,
		IdleTimeout: DefaultIdleTimeout,
		Items:       []string{"alpha", "bravo", "charlie", "delta", "echo"},
	}
}

// Load reads the configuration at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, fills defaults for missing fields and validates.
func Parse(data []byte) (*Config, error) {
	config := DefaultConfig()
	config.Items = nil
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults for missing fields
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.LogLevel == "" {
		config.LogLevel = DefaultLogLevel
	}
	if config.Items == nil {
		config.Items = DefaultConfig().Items
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
