package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults, and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables always take
// precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file (already applies defaults)
//  2. Apply environment variable overrides
//  3. Re-validate the final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format EUNOMIA_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("EUNOMIA_POLICY_DIR"); val != "" {
		cfg.Policy.Dir = val
	}
	if val := os.Getenv("EUNOMIA_BUNDLE_SERVICE"); val != "" {
		cfg.Bundle.Service = val
	}
	if val := os.Getenv("EUNOMIA_BUNDLE_OUTPUT"); val != "" {
		cfg.Bundle.Output = val
	}
	if val := os.Getenv("EUNOMIA_REGISTRY_URL"); val != "" {
		cfg.Registry.URL = val
	}
	if val := os.Getenv("EUNOMIA_REGISTRY_INSECURE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Registry.Insecure = b
		}
	}
	if val := os.Getenv("EUNOMIA_REGISTRY_CACHE_DIR"); val != "" {
		cfg.Registry.Cache.Dir = val
	}
	if val := os.Getenv("EUNOMIA_REGISTRY_CACHE_MAX_AGE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Registry.Cache.MaxAge = d
		}
	}
	if val := os.Getenv("EUNOMIA_DISTRIBUTION_MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Distribution.MaxRetries = i
		}
	}
	if val := os.Getenv("EUNOMIA_AUDIT_BACKEND"); val != "" {
		cfg.Audit.Backend = val
	}
	if val := os.Getenv("EUNOMIA_AUDIT_SQLITE_PATH"); val != "" {
		cfg.Audit.SQLitePath = val
	}
	if val := os.Getenv("EUNOMIA_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("EUNOMIA_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("EUNOMIA_SIGNING_KEY_ID"); val != "" {
		cfg.Security.SigningKey.KeyID = val
	}
	// EUNOMIA_SIGNING_KEY and EUNOMIA_REGISTRY_TOKEN are read directly by the
	// signing keyring and registry auth providers, not mirrored into Config.
}
