// Package config loads, defaults, and validates the eunomia control-plane
// configuration file. Configuration is plain YAML (gopkg.in/yaml.v3) with
// EUNOMIA_-prefixed environment variable overrides layered on top; see
// LoadConfigWithEnvOverrides.
package config
