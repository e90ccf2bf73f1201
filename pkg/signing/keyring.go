package signing

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
)

// Keyring acquires a signing key from a KeyProvider for the duration of a
// single operation and guarantees it is zeroed afterward, regardless of
// how the caller exits.
type Keyring struct {
	provider KeyProvider
}

// NewKeyring wraps provider.
func NewKeyring(provider KeyProvider) *Keyring {
	return &Keyring{provider: provider}
}

// WithKey acquires keyID from the underlying provider, invokes fn with it,
// and zeroes the key material before returning — including when fn
// returns an error.
func (r *Keyring) WithKey(ctx context.Context, keyID string, fn func(*Key) error) error {
	key, err := r.provider.GetSigningKey(ctx, keyID)
	if err != nil {
		return fmt.Errorf("acquire signing key %s from %s: %w", keyID, r.provider.Provider(), err)
	}
	defer key.Zero()

	return fn(key)
}

// Sign signs digestHex — the bundle's hex-encoded SHA-256 checksum, not
// the raw archive bytes — with the named key. It returns the resulting
// Signature (base64 value, ready to append to a .signatures.json file)
// plus the corresponding public key as base64, for registration in a
// trust store.
func (r *Keyring) Sign(ctx context.Context, keyID string, digestHex string) (sig Signature, publicKeyBase64 string, err error) {
	err = r.WithKey(ctx, keyID, func(k *Key) error {
		priv := ed25519.PrivateKey(k.Private())
		raw := ed25519.Sign(priv, []byte(digestHex))
		pub := priv.Public().(ed25519.PublicKey)
		sig = Signature{
			Algorithm: "ed25519",
			KeyID:     keyID,
			Value:     base64.StdEncoding.EncodeToString(raw),
		}
		publicKeyBase64 = base64.StdEncoding.EncodeToString(pub)
		return nil
	})
	return
}

// Verify checks sig against digestHex using the given base64-encoded
// Ed25519 public key.
func Verify(publicKeyBase64 string, sig Signature, digestHex string) error {
	if sig.Algorithm != "" && sig.Algorithm != "ed25519" {
		return fmt.Errorf("unsupported signature algorithm %q", sig.Algorithm)
	}
	pub, err := base64.StdEncoding.DecodeString(publicKeyBase64)
	if err != nil {
		return fmt.Errorf("decode public key: %w", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("public key has wrong length: got %d, want %d", len(pub), ed25519.PublicKeySize)
	}
	raw, err := base64.StdEncoding.DecodeString(sig.Value)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	if len(raw) != ed25519.SignatureSize {
		return fmt.Errorf("signature has wrong length: got %d, want %d", len(raw), ed25519.SignatureSize)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), []byte(digestHex), raw) {
		return fmt.Errorf("signature verification failed for key %s", sig.KeyID)
	}
	return nil
}

// GenerateKeyPair creates a fresh Ed25519 key pair, returned as base64
// strings suitable for writing to EUNOMIA_SIGNING_KEY or a 0600 key file.
// Used by the keys subcommand.
func GenerateKeyPair() (publicKeyBase64, privateKeyBase64 string, err error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return "", "", fmt.Errorf("generate ed25519 key pair: %w", err)
	}
	return base64.StdEncoding.EncodeToString(pub), base64.StdEncoding.EncodeToString(priv), nil
}
