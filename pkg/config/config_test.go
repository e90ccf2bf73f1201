package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, "./policies", cfg.Policy.Dir)
	assert.True(t, cfg.Policy.Recursive)
	assert.Equal(t, "./bundle.tar.gz", cfg.Bundle.Output)
	assert.Equal(t, 6, cfg.Bundle.CompressionLevel)
	assert.Equal(t, "none", cfg.Registry.Auth.Type)
	assert.Equal(t, 3, cfg.Distribution.MaxRetries)
	assert.Equal(t, 0.05, cfg.Distribution.Rollback.ErrorRateThreshold)
	assert.Equal(t, "sqlite", cfg.Audit.Backend)
	assert.Equal(t, "info", cfg.Telemetry.Logging.Level)
	assert.Equal(t, "1.3", cfg.Security.PushTLS.MinVersion)
}

func TestApplyDefaultsIdempotent(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Policy.Dir = "./custom"
	ApplyDefaults(cfg)
	assert.Equal(t, "./custom", cfg.Policy.Dir)
}

func TestValidateRejectsBadRegistryAuth(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Registry.Auth.Type = "basic"
	err := Validate(cfg)
	require.Error(t, err)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "registry.auth.username", cerr.Field)
}

func TestValidateRejectsOutOfRangeErrorRate(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Distribution.Rollback.ErrorRateThreshold = 1.5
	require.Error(t, Validate(cfg))
}

func TestValidateRequiresTLSFiles(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Security.PushTLS.Enabled = true
	require.Error(t, Validate(cfg))

	cfg.Security.PushTLS.CertFile = "cert.pem"
	cfg.Security.PushTLS.KeyFile = "key.pem"
	require.NoError(t, Validate(cfg))
}

func TestLoadConfigAppliesDefaultsAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eunomia.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
policy:
  dir: ./policies
registry:
  url: registry.example.com
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "registry.example.com", cfg.Registry.URL)
	assert.Equal(t, "sqlite", cfg.Audit.Backend)
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eunomia.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
policy:
  dir: ./policies
`), 0o644))

	t.Setenv("EUNOMIA_REGISTRY_URL", "registry.override.example.com")
	cfg, err := LoadConfigWithEnvOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, "registry.override.example.com", cfg.Registry.URL)
}

func TestValidateCanaryPercentage(t *testing.T) {
	require.NoError(t, ValidateCanaryPercentage(0))
	require.NoError(t, ValidateCanaryPercentage(100))
	require.Error(t, ValidateCanaryPercentage(-1))
	require.Error(t, ValidateCanaryPercentage(101))
}
