package signing

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"os"
)

// EnvProvider loads a base64-encoded Ed25519 private key from a single
// environment variable (EUNOMIA_SIGNING_KEY by default). keyID is
// accepted but ignored, since an environment-backed store only ever
// carries one key.
type EnvProvider struct {
	EnvVar string
}

// NewEnvProvider returns an EnvProvider reading envVar.
func NewEnvProvider(envVar string) *EnvProvider {
	return &EnvProvider{EnvVar: envVar}
}

func (p *EnvProvider) Provider() string { return "env" }

func (p *EnvProvider) GetSigningKey(ctx context.Context, keyID string) (*Key, error) {
	encoded := os.Getenv(p.EnvVar)
	if encoded == "" {
		return nil, fmt.Errorf("signing key not found in environment variable %s", p.EnvVar)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("signing key in %s is not valid base64: %w", p.EnvVar, err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("signing key in %s has wrong length: got %d bytes, want %d", p.EnvVar, len(raw), ed25519.PrivateKeySize)
	}

	return &Key{ID: keyID, private: raw}, nil
}
