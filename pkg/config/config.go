// Package config defines the configuration schema for the eunomia control
// plane: policy source location, bundler defaults, signing key provider,
// registry transport, distribution strategy, audit storage, and the
// ambient telemetry/security sections shared by every subcommand.
package config

import "time"

// Config is the root configuration structure for eunomia.
type Config struct {
	// Policy contains policy source location and validation settings.
	Policy PolicyConfig `yaml:"policy"`

	// Bundle contains defaults for the build/sign pipeline.
	Bundle BundleConfig `yaml:"bundle"`

	// Registry contains OCI registry transport and cache configuration.
	Registry RegistryConfig `yaml:"registry"`

	// Distribution contains rollout strategy, health, and rollback settings.
	Distribution DistributionConfig `yaml:"distribution"`

	// Audit contains audit event sink configuration.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Security contains TLS/mTLS configuration for the push transport and
	// the control-plane health-check listener.
	Security SecurityConfig `yaml:"security"`
}

// PolicyConfig contains configuration for locating and validating policy
// sources.
type PolicyConfig struct {
	// Dir is the root directory containing .rego policy sources, fixtures,
	// and data files.
	// Default: "./policies"
	Dir string `yaml:"dir"`

	// ExcludeDirs lists directory names skipped during discovery (e.g.
	// "vendor", "testdata").
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// Recursive controls whether subdirectories are walked.
	// Default: true
	Recursive bool `yaml:"recursive"`

	// Watch is read from the config file but no command consults it;
	// `validate` has no watch mode.
	// Default: false
	Watch bool `yaml:"watch"`

	// Lint contains per-rule lint suppression configuration.
	Lint LintConfig `yaml:"lint"`

	// ServiceContract, if set, points to a JSON file enumerating the valid
	// operation_id values used by the OperationId semantic check.
	ServiceContract string `yaml:"service_contract"`
}

// LintConfig contains lint suppression configuration.
type LintConfig struct {
	// Suppress maps a lint rule id (e.g. "style/explicit-imports") to a
	// list of file globs for which that rule is not enforced.
	Suppress map[string][]string `yaml:"suppress"`
}

// BundleConfig contains defaults for bundle assembly.
type BundleConfig struct {
	// Service is the default service name embedded in the manifest.
	Service string `yaml:"service"`

	// Output is the default output path for a built bundle archive.
	// Default: "./bundle.tar.gz"
	Output string `yaml:"output"`

	// GitCommitFromHEAD resolves the manifest's git_commit field from the
	// repository containing Dir, when --git-commit is not given explicitly.
	// Default: true
	GitCommitFromHEAD bool `yaml:"git_commit_from_head"`

	// CompressionLevel is the gzip compression level (1-9, or 0 for the
	// package default).
	CompressionLevel int `yaml:"compression_level"`
}

// RegistryConfig contains OCI registry transport and cache configuration.
type RegistryConfig struct {
	// URL is the registry host, e.g. "registry.example.com".
	URL string `yaml:"url"`

	// Insecure allows plain HTTP for local/dev registries.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Auth configures how the registry client authenticates.
	Auth RegistryAuthConfig `yaml:"auth"`

	// Cache contains local bundle cache configuration.
	Cache RegistryCacheConfig `yaml:"cache"`
}

// RegistryAuthConfig configures registry authentication.
type RegistryAuthConfig struct {
	// Type: "none", "basic", "bearer".
	// Default: "none"
	Type string `yaml:"type"`

	// Username for basic auth.
	Username string `yaml:"username"`

	// Password for basic auth (supports env var expansion).
	Password string `yaml:"password"`

	// TokenEnv names the environment variable holding a bearer token.
	// Default: "EUNOMIA_REGISTRY_TOKEN"
	TokenEnv string `yaml:"token_env"`
}

// RegistryCacheConfig contains local bundle cache configuration.
type RegistryCacheConfig struct {
	// Dir is the cache directory root.
	// Default: "$XDG_CACHE_HOME/eunomia/bundles"
	Dir string `yaml:"dir"`

	// MaxAge is the duration after which a cache entry is considered stale
	// and eligible for eviction ahead of LRU.
	// Default: 24h
	MaxAge time.Duration `yaml:"max_age"`

	// MaxSizeBytes bounds total cache size; LRU eviction runs once exceeded.
	// Default: 536870912 (512MiB)
	MaxSizeBytes int64 `yaml:"max_size_bytes"`
}

// DistributionConfig contains rollout strategy and health defaults.
type DistributionConfig struct {
	// MaxRetries is the per-instance push attempt cap.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`

	// AttemptTimeout is the per-push-attempt timeout.
	// Default: 10s
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`

	// BackoffBase is the exponential backoff base interval between retries.
	// Default: 500ms
	BackoffBase time.Duration `yaml:"backoff_base"`

	// MaxConcurrentGlobal caps concurrently in-flight deployments across all
	// services.
	// Default: 8
	MaxConcurrentGlobal int `yaml:"max_concurrent_global"`

	// MaxConcurrentPerService caps concurrently in-flight deployments for a
	// single service.
	// Default: 1
	MaxConcurrentPerService int `yaml:"max_concurrent_per_service"`

	// Health contains health tracker thresholds.
	Health HealthTrackerConfig `yaml:"health"`

	// Rollback contains auto-rollback trigger thresholds.
	Rollback RollbackConfig `yaml:"rollback"`

	// PruneSchedule is a cron expression controlling how often the local
	// cache and stale health records are swept.
	// Default: "*/15 * * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// ControlPlaneListenAddress is the mTLS address instances call back
	// into for health check-ins and decision audit relay.
	// Default: ":8443"
	ControlPlaneListenAddress string `yaml:"control_plane_listen_address"`
}

// HealthTrackerConfig contains per-instance health state-transition
// thresholds.
type HealthTrackerConfig struct {
	// HealthyThreshold is the consecutive success count required to
	// transition Unhealthy -> Healthy.
	// Default: 3
	HealthyThreshold int `yaml:"healthy_threshold"`

	// UnhealthyThreshold is the consecutive failure count required to
	// transition Healthy -> Unhealthy.
	// Default: 3
	UnhealthyThreshold int `yaml:"unhealthy_threshold"`
}

// RollbackConfig contains auto-rollback trigger thresholds.
type RollbackConfig struct {
	// ErrorRateThreshold is the fraction (0.0-1.0) of failed pushes within
	// the rollout window that triggers an automatic rollback.
	// Default: 0.05
	ErrorRateThreshold float64 `yaml:"error_rate_threshold"`

	// LatencyThresholdP99 is the p99 push latency above which rollback
	// triggers.
	// Default: 5s
	LatencyThresholdP99 time.Duration `yaml:"latency_threshold_p99"`

	// ConsecutiveHealthFailures is the count of consecutive failed health
	// checks on a canary group that triggers rollback.
	// Default: 3
	ConsecutiveHealthFailures int `yaml:"consecutive_health_failures"`

	// Window is the rollout window over which error rate and latency are
	// evaluated.
	// Default: 60s
	Window time.Duration `yaml:"window"`
}

// AuditConfig contains audit event sink configuration.
type AuditConfig struct {
	// Backend: "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path when Backend is "sqlite".
	// Default: "data/audit.db"
	SQLitePath string `yaml:"sqlite_path"`
}

// TelemetryConfig contains logging and metrics configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format: "json", "text", "console".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log entries.
	AddSource bool `yaml:"add_source"`

	// BufferSize is the async log buffer capacity.
	// Default: 4096
	BufferSize int `yaml:"buffer_size"`

	// RedactSecrets enables redaction of signing keys, registry credentials,
	// and bearer tokens from log output.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`

	// RedactPatterns contains custom secret redaction patterns, applied in
	// addition to the built-in ones.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom secret redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address for the metrics HTTP server.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "eunomia"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric name's second segment, e.g.
	// "eunomia_distributor_push_duration_seconds".
	// Default: "distributor"
	Subsystem string `yaml:"subsystem"`

	// PushDurationBuckets are the histogram buckets for push/rollout
	// latency, in seconds.
	// Default: 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60
	PushDurationBuckets []float64 `yaml:"push_duration_buckets"`

	// Auth configures API key authentication for the operational server.
	// The metrics/health/ready endpoints sit outside the mTLS control
	// plane trust boundary, so this is opt-in.
	Auth OpsAuthConfig `yaml:"auth"`
}

// OpsAuthConfig configures API key authentication guarding the
// operational server's endpoints.
type OpsAuthConfig struct {
	// Enabled turns on API key enforcement.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sources lists where to look for the API key, tried in order.
	Sources []OpsAuthSource `yaml:"sources"`

	// Keys lists the accepted API keys and their owning identities.
	Keys []OpsAuthKey `yaml:"keys"`
}

// OpsAuthSource names one place an API key may be presented.
type OpsAuthSource struct {
	Type   string `yaml:"type"` // "header" or "query"
	Name   string `yaml:"name"`
	Scheme string `yaml:"scheme,omitempty"`
}

// OpsAuthKey is one accepted API key and its owning identity.
type OpsAuthKey struct {
	Key       string `yaml:"key"`
	UserID    string `yaml:"user_id"`
	TeamID    string `yaml:"team_id"`
	Enabled   bool   `yaml:"enabled"`
	RateLimit string `yaml:"rate_limit,omitempty"`
}

// SecurityConfig contains TLS/mTLS configuration.
type SecurityConfig struct {
	// PushTLS configures the client TLS used when pushing policy updates to
	// instances.
	PushTLS TLSConfig `yaml:"push_tls"`

	// ControlPlaneTLS configures the server TLS for the health-check
	// listener.
	ControlPlaneTLS TLSConfig `yaml:"control_plane_tls"`

	// SigningKey configures how the Ed25519 signing key is obtained.
	SigningKey SigningKeyConfig `yaml:"signing_key"`

	// WorkloadAllowlist lists the workload identity strings (e.g.
	// "spiffe://cluster.local/ns/prod/sa/enforcer") permitted to call the
	// control-plane HealthCheck RPC.
	WorkloadAllowlist []string `yaml:"workload_allowlist"`

	// RegistrySecrets configures the provider chain used to resolve
	// ${secret:name} references in registry credentials.
	RegistrySecrets SecretsManagerConfig `yaml:"registry_secrets"`
}

// SecretsManagerConfig configures a pkg/security/secrets.Manager provider
// chain. Providers are tried in the order listed; the first one that
// resolves a given reference wins.
type SecretsManagerConfig struct {
	Providers    []SecretsProviderConfig `yaml:"providers"`
	CacheEnabled bool                    `yaml:"cache_enabled"`
	CacheTTL     time.Duration           `yaml:"cache_ttl"`
	CacheMaxSize int                     `yaml:"cache_max_size"`
}

// SecretsProviderConfig describes a single secrets backend. Type selects
// which fields apply: "env", "file", "aws_kms", "gcp_kms", or "vault".
type SecretsProviderConfig struct {
	Type string `yaml:"type"`

	// env
	EnvPrefix string `yaml:"env_prefix,omitempty"`

	// file
	FilePath  string `yaml:"file_path,omitempty"`
	FileWatch bool   `yaml:"file_watch,omitempty"`

	// aws_kms
	AWSRegion string `yaml:"aws_region,omitempty"`
	AWSKeyID  string `yaml:"aws_key_id,omitempty"`

	// gcp_kms
	GCPProject  string `yaml:"gcp_project,omitempty"`
	GCPLocation string `yaml:"gcp_location,omitempty"`
	GCPKeyRing  string `yaml:"gcp_key_ring,omitempty"`
	GCPKey      string `yaml:"gcp_key,omitempty"`

	// vault
	VaultAddress string `yaml:"vault_address,omitempty"`
	VaultToken   string `yaml:"vault_token,omitempty"`
	VaultPath    string `yaml:"vault_path,omitempty"`

	// aws_kms, gcp_kms, vault are stub providers: Enabled gates whether
	// they're constructed at all, since GetSecret always errors until
	// real backend wiring lands.
	Enabled bool `yaml:"enabled"`
}

// TLSConfig contains TLS configuration shared by client and server sides.
type TLSConfig struct {
	// Enabled controls whether TLS is used at all.
	Enabled bool `yaml:"enabled"`

	// CertFile/KeyFile are this side's leaf certificate and key.
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// ClientCAFile is the CA bundle used to verify the peer (required for
	// mTLS on both client and server sides).
	ClientCAFile string `yaml:"client_ca_file"`

	// MinVersion: "1.2" or "1.3".
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`

	// IdentitySource: "subject.CN", "subject.OU", "subject.O", "SAN".
	// Default: "SAN"
	IdentitySource string `yaml:"identity_source"`

	// ReloadInterval, if positive, enables background hot-reload of
	// CertFile/KeyFile so certificate rotation doesn't require a restart.
	// Only meaningful on the server side (ControlPlaneTLS).
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// SigningKeyConfig configures signing key acquisition.
type SigningKeyConfig struct {
	// Provider: "env", "file", "aws_kms", "gcp_kms", "vault".
	// Default: "env"
	Provider string `yaml:"provider"`

	// EnvVar names the environment variable holding a base64 Ed25519
	// private key.
	// Default: "EUNOMIA_SIGNING_KEY"
	EnvVar string `yaml:"env_var"`

	// Path is the raw 64-byte Ed25519 key file path when Provider is "file".
	Path string `yaml:"path"`

	// KeyID is the identifier embedded in produced signatures.
	KeyID string `yaml:"key_id"`

	// EncryptCacheAtRest enables envelope encryption of cached bundle bytes
	// using this same key material as a process-wide secretbox key.
	// Default: false
	EncryptCacheAtRest bool `yaml:"encrypt_cache_at_rest"`
}
