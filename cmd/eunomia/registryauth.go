package main

import (
	"log/slog"

	"eunomia-hq/eunomia/pkg/config"
	"eunomia-hq/eunomia/pkg/security/secrets"
)

// buildSecretsManager builds the provider chain that resolves
// ${secret:name} references in registry credentials, per
// security.registry_secrets. Providers are tried in the order configured;
// the first one that resolves a given reference wins.
func buildSecretsManager(cfg config.SecretsManagerConfig) *secrets.Manager {
	providers := make([]secrets.SecretProvider, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		switch p.Type {
		case "env":
			prefix := p.EnvPrefix
			if prefix == "" {
				prefix = "EUNOMIA_SECRET_"
			}
			providers = append(providers, secrets.NewEnvProvider(prefix))
		case "file":
			fp, err := secrets.NewFileProvider(p.FilePath, p.FileWatch)
			if err != nil {
				slog.Warn("skipping file secret provider", "path", p.FilePath, "error", err)
				continue
			}
			providers = append(providers, fp)
		case "aws_kms":
			providers = append(providers, secrets.NewAWSKMSProvider(p.AWSRegion, p.AWSKeyID, p.Enabled))
		case "gcp_kms":
			providers = append(providers, secrets.NewGCPKMSProvider(p.GCPProject, p.GCPLocation, p.GCPKeyRing, p.GCPKey, p.Enabled))
		case "vault":
			providers = append(providers, secrets.NewVaultProvider(p.VaultAddress, p.VaultToken, p.VaultPath, p.Enabled))
		default:
			slog.Warn("unknown secret provider type, skipping", "type", p.Type)
		}
	}
	if len(providers) == 0 {
		providers = append(providers, secrets.NewEnvProvider("EUNOMIA_SECRET_"))
	}

	return secrets.NewManager(providers, secrets.CacheConfig{
		Enabled: cfg.CacheEnabled,
		TTL:     cfg.CacheTTL,
		MaxSize: cfg.CacheMaxSize,
	})
}
