package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyBackendDefaults(&cfg.Backend)
	applyCacheDefaults(&cfg.Cache)
	applyAPIDefaults(&cfg.API)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyBackendDefaults sets backend defaults.
func applyBackendDefaults(cfg *BackendConfig) {
	if cfg.Type == "" {
		cfg.Type = "local"
	}
	if cfg.Type == "local" && cfg.Local.Root == "" {
		cfg.Local.Root = "."
	}
	if cfg.Type == "s3" && cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
}

// applyCacheDefaults sets disk cache defaults under the user cache
// directory.
func applyCacheDefaults(cfg *CacheConfig) {
	base := getCacheDir()
	if cfg.Dir == "" {
		cfg.Dir = filepath.Join(base, "objects")
	}
	if cfg.IndexDir == "" {
		cfg.IndexDir = filepath.Join(base, "index")
	}
}

// applyAPIDefaults sets ops server defaults. The server is opt-in.
func applyAPIDefaults(cfg *APIConfig) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
}

// GetDefaultConfig returns a Config with all default values applied. Useful
// for generating sample configuration files and for tests.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// getConfigDir returns the configuration directory, following
// XDG_CONFIG_HOME when set.
func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "assetflow")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "assetflow")
}

// getCacheDir returns the base cache directory, following XDG_CACHE_HOME
// when set.
func getCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "assetflow")
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "assetflow")
	}
	return filepath.Join(dir, "assetflow")
}

// GetDefaultConfigPath returns the default config file location.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
