package signing

import (
	"fmt"

	"eunomia-hq/eunomia/pkg/config"
)

// NewProvider builds the KeyProvider configured by cfg. The aws_kms,
// gcp_kms, and vault providers build successfully but always error on
// GetSigningKey until real credential wiring lands.
func NewProvider(cfg config.SigningKeyConfig) (KeyProvider, error) {
	switch cfg.Provider {
	case "", "env":
		envVar := cfg.EnvVar
		if envVar == "" {
			envVar = "EUNOMIA_SIGNING_KEY"
		}
		return NewEnvProvider(envVar), nil
	case "file":
		if cfg.Path == "" {
			return nil, fmt.Errorf("signing_key.path is required for the file provider")
		}
		return NewFileProvider(cfg.Path), nil
	case "aws_kms":
		return NewAWSKMSProvider(cfg.KeyID), nil
	case "gcp_kms":
		return NewGCPKMSProvider(cfg.KeyID), nil
	case "vault":
		return NewVaultProvider(cfg.Path, cfg.KeyID), nil
	default:
		return nil, fmt.Errorf("unknown signing key provider %q", cfg.Provider)
	}
}
