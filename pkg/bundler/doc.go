// Package bundler assembles a deterministic, content-addressed policy
// bundle archive, signs it with an Ed25519 key from pkg/signing, and
// verifies signed bundles against a trust store.
package bundler
