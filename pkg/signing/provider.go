package signing

import "context"

// KeyProvider retrieves Ed25519 signing key material from a backend.
//
// Implementations include environment variables, local files, and (as
// stubs) AWS KMS, GCP KMS, and HashiCorp Vault. A provider is a scoped
// collaborator: callers acquire a key with GetSigningKey, use it, and
// must call Zero on the returned Key when finished.
type KeyProvider interface {
	// GetSigningKey returns the named key's private material.
	GetSigningKey(ctx context.Context, keyID string) (*Key, error)

	// Provider returns the backend name (env, file, aws_kms, gcp_kms, vault).
	Provider() string
}

// Key holds Ed25519 private key material for the lifetime of a signing
// operation. Zero must be called on every exit path; it is safe to call
// more than once.
type Key struct {
	ID      string
	private []byte // 64-byte Ed25519 seed+public, ed25519.PrivateKey layout
}

// Private returns the raw private key bytes. The returned slice aliases
// the Key's internal storage and must not be retained past Zero.
func (k *Key) Private() []byte {
	return k.private
}

// Zero overwrites the key material in place so it does not linger in
// process memory after use.
func (k *Key) Zero() {
	for i := range k.private {
		k.private[i] = 0
	}
}
