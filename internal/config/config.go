// Package config provides configuration loading and management for the playground API server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Load when the file leaves a field unset.
const (
	DefaultAddress        = ":7007"
	DefaultMongoURI       = "mongodb://localhost:27017"
	DefaultDatabase       = "kbhlegeplads"
	DefaultConnectTimeout = 10 * time.Second
	DefaultLogLevel       = "info"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Address is the host:port the HTTP server listens on
	Address string `yaml:"address,omitempty"`

	// LogLevel is the zap level name (debug, info, warn, error)
	LogLevel string `yaml:"logLevel,omitempty"`

	Mongo MongoConfig `yaml:"mongo,omitempty"`
}

// MongoConfig defines document store connection settings
type MongoConfig struct {
	// URI is the mongodb:// connection string
	URI string `yaml:"uri,omitempty"`

	// Database is the database name. Tests may redirect it at runtime
	// through the service data-source hook.
	Database string `yaml:"database,omitempty"`

	// ConnectTimeout bounds the initial connect and ping (e.g., "10s")
	ConnectTimeout string `yaml:"connectTimeout,omitempty"`
}

// Load loads and parses configuration from a YAML file. With no options it
// returns the defaults.
func Load(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	var config Config
	if loaderCfg.path != "" {
		data, err := os.ReadFile(loaderCfg.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Address == "" {
		c.Address = DefaultAddress
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = DefaultMongoURI
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = DefaultDatabase
	}
	if c.Mongo.ConnectTimeout == "" {
		c.Mongo.ConnectTimeout = DefaultConnectTimeout.String()
	}
}

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logLevel must be one of debug, info, warn, error, got %q", c.LogLevel)
	}

	if _, err := time.ParseDuration(c.Mongo.ConnectTimeout); err != nil {
		return fmt.Errorf("mongo.connectTimeout must be a valid duration (e.g., '10s'): %w", err)
	}

	return nil
}

// GetConnectTimeout returns the parsed connect timeout. Load has already
// validated the string.
func (c *Config) GetConnectTimeout() time.Duration {
	d, err := time.ParseDuration(c.Mongo.ConnectTimeout)
	if err != nil {
		return DefaultConnectTimeout
	}
	return d
}
