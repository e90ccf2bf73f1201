package config

import "fmt"

// Validate checks a fully-defaulted Config for impossible combinations and
// returns the first error found. It never mutates cfg.
func Validate(cfg *Config) error {
	if cfg.Policy.Dir == "" {
		return &ConfigError{Field: "policy.dir", Message: "must not be empty"}
	}

	if cfg.Registry.Auth.Type != "" {
		switch cfg.Registry.Auth.Type {
		case "none", "basic", "bearer":
		default:
			return &ConfigError{Field: "registry.auth.type", Message: fmt.Sprintf("unknown auth type %q", cfg.Registry.Auth.Type)}
		}
	}
	if cfg.Registry.Auth.Type == "basic" && cfg.Registry.Auth.Username == "" {
		return &ConfigError{Field: "registry.auth.username", Message: "required when auth.type is basic"}
	}

	if cfg.Registry.Cache.MaxAge < 0 {
		return &ConfigError{Field: "registry.cache.max_age", Message: "must not be negative"}
	}
	if cfg.Registry.Cache.MaxSizeBytes < 0 {
		return &ConfigError{Field: "registry.cache.max_size_bytes", Message: "must not be negative"}
	}

	if err := validateDistribution(&cfg.Distribution); err != nil {
		return err
	}

	switch cfg.Audit.Backend {
	case "", "sqlite", "memory":
	default:
		return &ConfigError{Field: "audit.backend", Message: fmt.Sprintf("unknown backend %q", cfg.Audit.Backend)}
	}

	switch cfg.Telemetry.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return &ConfigError{Field: "telemetry.logging.level", Message: fmt.Sprintf("unknown level %q", cfg.Telemetry.Logging.Level)}
	}
	switch cfg.Telemetry.Logging.Format {
	case "", "json", "text", "console":
	default:
		return &ConfigError{Field: "telemetry.logging.format", Message: fmt.Sprintf("unknown format %q", cfg.Telemetry.Logging.Format)}
	}

	if err := validateTLS(&cfg.Security.PushTLS, "security.push_tls"); err != nil {
		return err
	}
	if err := validateTLS(&cfg.Security.ControlPlaneTLS, "security.control_plane_tls"); err != nil {
		return err
	}

	switch cfg.Security.SigningKey.Provider {
	case "", "env", "file", "aws_kms", "gcp_kms", "vault":
	default:
		return &ConfigError{Field: "security.signing_key.provider", Message: fmt.Sprintf("unknown provider %q", cfg.Security.SigningKey.Provider)}
	}
	if cfg.Security.SigningKey.Provider == "file" && cfg.Security.SigningKey.Path == "" {
		return &ConfigError{Field: "security.signing_key.path", Message: "required when provider is file"}
	}

	return nil
}

func validateDistribution(d *DistributionConfig) error {
	if d.MaxRetries < 0 {
		return &ConfigError{Field: "distribution.max_retries", Message: "must not be negative"}
	}
	if d.MaxConcurrentGlobal < 0 || d.MaxConcurrentPerService < 0 {
		return &ConfigError{Field: "distribution.max_concurrent", Message: "must not be negative"}
	}
	if d.Rollback.ErrorRateThreshold < 0 || d.Rollback.ErrorRateThreshold > 1 {
		return &ConfigError{Field: "distribution.rollback.error_rate_threshold", Message: "must be within [0,1]"}
	}
	return nil
}

func validateTLS(t *TLSConfig, field string) error {
	if !t.Enabled {
		return nil
	}
	if t.CertFile == "" || t.KeyFile == "" {
		return &ConfigError{Field: field, Message: "cert_file and key_file are required when enabled"}
	}
	switch t.MinVersion {
	case "", "1.2", "1.3":
	default:
		return &ConfigError{Field: field + ".min_version", Message: fmt.Sprintf("unsupported TLS version %q", t.MinVersion)}
	}
	switch t.IdentitySource {
	case "", "subject.CN", "subject.OU", "subject.O", "SAN":
	default:
		return &ConfigError{Field: field + ".identity_source", Message: fmt.Sprintf("unknown identity source %q", t.IdentitySource)}
	}
	return nil
}

// ConfigError represents a single configuration validation failure.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// ValidateCanaryPercentage rejects out-of-range canary percentages; kept
// separate from Validate because it is checked against CLI flags, not the
// static Config (percentage is a per-invocation rollout parameter).
func ValidateCanaryPercentage(pct int) error {
	if pct < 0 || pct > 100 {
		return &ConfigError{Field: "push.canary_percentage", Message: "must be within [0,100]"}
	}
	return nil
}
