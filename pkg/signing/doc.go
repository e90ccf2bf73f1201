// Package signing provides Ed25519 bundle signing and verification, and
// the KeyProvider chain (environment, file, and stubbed KMS/Vault
// backends) that supplies signing key material. Key material is zeroed on
// every exit path once a signing operation completes.
package signing
