// Package config loads and validates AssetFlow configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (ASSETFLOW_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the AssetFlow configuration.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Backend selects and configures the resource backend
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`

	// Cache configures the remote backend's disk cache
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// API configures the ops HTTP server
	API APIConfig `mapstructure:"api" yaml:"api"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// BackendConfig selects the resource backend.
type BackendConfig struct {
	// Type is the backend kind
	// Valid values: local, s3
	Type string `mapstructure:"type" validate:"required,oneof=local s3" yaml:"type"`

	// Local configures the filesystem backend (type: local)
	Local LocalConfig `mapstructure:"local" yaml:"local"`

	// S3 configures the remote backend (type: s3)
	S3 S3Config `mapstructure:"s3" yaml:"s3"`
}

// LocalConfig configures the filesystem backend.
type LocalConfig struct {
	// Root is the directory logical paths resolve under
	Root string `mapstructure:"root" yaml:"root"`
}

// S3Config configures the S3 remote store.
type S3Config struct {
	// Endpoint overrides the AWS endpoint for S3-compatible stores
	// (MinIO, Localstack). Empty uses AWS.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Region is the AWS region
	Region string `mapstructure:"region" yaml:"region"`

	// Bucket is the S3 bucket holding the assets
	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// KeyPrefix is an optional prefix for all object keys
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix"`

	// AccessKeyID is the static access key. Empty falls back to the
	// default AWS credential chain.
	AccessKeyID string `mapstructure:"access_key_id" yaml:"access_key_id"`

	// SecretAccessKey is the static secret key
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
}

// CacheConfig configures the remote backend's disk cache.
type CacheConfig struct {
	// Dir holds the cached payload files
	Dir string `mapstructure:"dir" validate:"required" yaml:"dir"`

	// IndexDir holds the identity record database
	IndexDir string `mapstructure:"index_dir" validate:"required" yaml:"index_dir"`
}

// APIConfig configures the ops HTTP server.
type APIConfig struct {
	// Enabled controls whether the HTTP server is started
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Addr is the listen address, for example ":8080"
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Load loads configuration from file, environment, and defaults.
// An empty configPath uses the default location; a missing file falls back
// to defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves the configuration to the given path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Config files may carry credentials, so keep them owner-only.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks struct-level constraints plus the cross-field rules the
// tags cannot express: each backend type requires its own section.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	switch cfg.Backend.Type {
	case "local":
		if cfg.Backend.Local.Root == "" {
			return errors.New("backend.local.root is required for the local backend")
		}
	case "s3":
		if cfg.Backend.S3.Bucket == "" {
			return errors.New("backend.s3.bucket is required for the s3 backend")
		}
		if cfg.Backend.S3.Region == "" {
			return errors.New("backend.s3.region is required for the s3 backend")
		}
	}
	return nil
}

// setupViper configures environment variable support and config file search.
// Environment variables use the ASSETFLOW_ prefix with underscores, for
// example ASSETFLOW_LOGGING_LEVEL=DEBUG.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("ASSETFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. A missing file
// is not an error; the caller falls back to defaults.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}
