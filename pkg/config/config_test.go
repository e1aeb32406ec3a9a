package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, "local", cfg.Backend.Type)
	assert.NotEmpty(t, cfg.Cache.Dir)
	assert.NotEmpty(t, cfg.Cache.IndexDir)
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.False(t, cfg.API.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
backend:
  type: s3
  s3:
    endpoint: http://localhost:9000
    region: eu-west-1
    bucket: assets
    key_prefix: game/
cache:
  dir: /var/cache/assetflow/objects
  index_dir: /var/cache/assetflow/index
api:
  enabled: true
  addr: ":9999"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "s3", cfg.Backend.Type)
	assert.Equal(t, "http://localhost:9000", cfg.Backend.S3.Endpoint)
	assert.Equal(t, "eu-west-1", cfg.Backend.S3.Region)
	assert.Equal(t, "assets", cfg.Backend.S3.Bucket)
	assert.Equal(t, "game/", cfg.Backend.S3.KeyPrefix)
	assert.Equal(t, "/var/cache/assetflow/objects", cfg.Cache.Dir)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, ":9999", cfg.API.Addr)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: verbose
`)
	_, err := Load(path)
	assert.Error(t, err)

	path = writeConfig(t, `
backend:
  type: ftp
`)
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidateS3RequiresBucketAndRegion(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Backend.Type = "s3"
	cfg.Backend.S3.Region = ""
	cfg.Backend.S3.Bucket = ""

	err := Validate(cfg)
	require.Error(t, err)

	cfg.Backend.S3.Bucket = "assets"
	err = Validate(cfg)
	require.Error(t, err)

	cfg.Backend.S3.Region = "us-east-1"
	assert.NoError(t, Validate(cfg))
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "WARN"
	cfg.Backend.Type = "local"
	cfg.Backend.Local.Root = "/srv/assets"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "WARN", loaded.Logging.Level)
	assert.Equal(t, "/srv/assets", loaded.Backend.Local.Root)
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, Validate(GetDefaultConfig()))
}
