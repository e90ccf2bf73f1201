package config

import "time"

// ApplyDefaults fills zero-valued fields of cfg with their documented
// defaults. It is idempotent and safe to call on a partially-populated
// configuration loaded from YAML.
func ApplyDefaults(cfg *Config) {
	applyPolicyDefaults(&cfg.Policy)
	applyBundleDefaults(&cfg.Bundle)
	applyRegistryDefaults(&cfg.Registry)
	applyDistributionDefaults(&cfg.Distribution)
	applyAuditDefaults(&cfg.Audit)
	applyTelemetryDefaults(&cfg.Telemetry)
	applySecurityDefaults(&cfg.Security)
}

func applyPolicyDefaults(p *PolicyConfig) {
	if p.Dir == "" {
		p.Dir = "./policies"
	}
	if len(p.ExcludeDirs) == 0 {
		p.ExcludeDirs = []string{".git", "vendor"}
	}
	if !p.Recursive {
		p.Recursive = true
	}
}

func applyBundleDefaults(b *BundleConfig) {
	if b.Output == "" {
		b.Output = "./bundle.tar.gz"
	}
	if !b.GitCommitFromHEAD {
		b.GitCommitFromHEAD = true
	}
	if b.CompressionLevel == 0 {
		b.CompressionLevel = 6
	}
}

func applyRegistryDefaults(r *RegistryConfig) {
	if r.Auth.Type == "" {
		r.Auth.Type = "none"
	}
	if r.Auth.TokenEnv == "" {
		r.Auth.TokenEnv = "EUNOMIA_REGISTRY_TOKEN"
	}
	if r.Cache.Dir == "" {
		r.Cache.Dir = defaultCacheDir()
	}
	if r.Cache.MaxAge == 0 {
		r.Cache.MaxAge = 24 * time.Hour
	}
	if r.Cache.MaxSizeBytes == 0 {
		r.Cache.MaxSizeBytes = 512 * 1024 * 1024
	}
}

func applyDistributionDefaults(d *DistributionConfig) {
	if d.MaxRetries == 0 {
		d.MaxRetries = 3
	}
	if d.AttemptTimeout == 0 {
		d.AttemptTimeout = 10 * time.Second
	}
	if d.BackoffBase == 0 {
		d.BackoffBase = 500 * time.Millisecond
	}
	if d.MaxConcurrentGlobal == 0 {
		d.MaxConcurrentGlobal = 8
	}
	if d.MaxConcurrentPerService == 0 {
		d.MaxConcurrentPerService = 1
	}
	if d.Health.HealthyThreshold == 0 {
		d.Health.HealthyThreshold = 3
	}
	if d.Health.UnhealthyThreshold == 0 {
		d.Health.UnhealthyThreshold = 3
	}
	if d.Rollback.ErrorRateThreshold == 0 {
		d.Rollback.ErrorRateThreshold = 0.05
	}
	if d.Rollback.LatencyThresholdP99 == 0 {
		d.Rollback.LatencyThresholdP99 = 5 * time.Second
	}
	if d.Rollback.ConsecutiveHealthFailures == 0 {
		d.Rollback.ConsecutiveHealthFailures = 3
	}
	if d.Rollback.Window == 0 {
		d.Rollback.Window = 60 * time.Second
	}
	if d.PruneSchedule == "" {
		d.PruneSchedule = "*/15 * * * *"
	}
	if d.ControlPlaneListenAddress == "" {
		d.ControlPlaneListenAddress = ":8443"
	}
}

func applyAuditDefaults(a *AuditConfig) {
	if a.Backend == "" {
		a.Backend = "sqlite"
	}
	if a.SQLitePath == "" {
		a.SQLitePath = "data/audit.db"
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = "info"
	}
	if t.Logging.Format == "" {
		t.Logging.Format = "json"
	}
	if t.Logging.BufferSize == 0 {
		t.Logging.BufferSize = 4096
	}
	if !t.Metrics.Enabled {
		t.Metrics.Enabled = true
	}
	if t.Metrics.ListenAddress == "" {
		t.Metrics.ListenAddress = "127.0.0.1:9090"
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = "/metrics"
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = "eunomia"
	}
}

func applySecurityDefaults(s *SecurityConfig) {
	applyTLSDefaults(&s.PushTLS, "SAN")
	applyTLSDefaults(&s.ControlPlaneTLS, "SAN")
	if s.ControlPlaneTLS.ReloadInterval == 0 {
		s.ControlPlaneTLS.ReloadInterval = time.Hour
	}
	if s.SigningKey.Provider == "" {
		s.SigningKey.Provider = "env"
	}
	if s.SigningKey.EnvVar == "" {
		s.SigningKey.EnvVar = "EUNOMIA_SIGNING_KEY"
	}
	if len(s.RegistrySecrets.Providers) == 0 {
		s.RegistrySecrets.Providers = []SecretsProviderConfig{
			{Type: "env", EnvPrefix: "EUNOMIA_SECRET_"},
		}
	}
}

func applyTLSDefaults(t *TLSConfig, identitySource string) {
	if t.MinVersion == "" {
		t.MinVersion = "1.3"
	}
	if t.IdentitySource == "" {
		t.IdentitySource = identitySource
	}
}

func defaultCacheDir() string {
	if home, err := userCacheHome(); err == nil {
		return home + "/eunomia/bundles"
	}
	return "/tmp/eunomia/bundles"
}
