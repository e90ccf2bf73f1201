package registry

import (
	"context"
	"fmt"
	"os"

	"eunomia-hq/eunomia/pkg/config"
	"eunomia-hq/eunomia/pkg/security/secrets"
)

// ResolveAuthConfig builds an AuthConfig from a RegistryAuthConfig, resolving
// any ${secret:name} references in Username/Password through mgr. This lets
// registry credentials come from env vars, files, or a KMS/Vault-backed
// secret store without the registry package depending on any one backend.
//
// mgr may be nil, in which case Username and Password are used verbatim
// (no reference expansion).
func ResolveAuthConfig(ctx context.Context, cfg config.RegistryAuthConfig, mgr *secrets.Manager) (AuthConfig, error) {
	auth := AuthConfig{
		Username: cfg.Username,
		Password: cfg.Password,
	}

	switch cfg.Type {
	case "basic":
		auth.Mode = AuthBasic
	case "bearer":
		auth.Mode = AuthBearer
	default:
		auth.Mode = AuthNone
		return auth, nil
	}

	if mgr != nil {
		username, err := mgr.ResolveReferences(ctx, cfg.Username)
		if err != nil {
			return AuthConfig{}, fmt.Errorf("resolve registry username: %w", err)
		}
		password, err := mgr.ResolveReferences(ctx, cfg.Password)
		if err != nil {
			return AuthConfig{}, fmt.Errorf("resolve registry password: %w", err)
		}
		auth.Username = username
		auth.Password = password
	}

	if auth.Mode == AuthBearer {
		tokenEnv := cfg.TokenEnv
		if tokenEnv == "" {
			tokenEnv = "EUNOMIA_REGISTRY_TOKEN"
		}
		auth.Token = os.Getenv(tokenEnv)
	}

	return auth, nil
}
