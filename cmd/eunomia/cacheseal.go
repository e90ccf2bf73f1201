package main

import (
	"context"

	"eunomia-hq/eunomia/pkg/config"
	"eunomia-hq/eunomia/pkg/registry"
	"eunomia-hq/eunomia/pkg/signing"
)

// applyCacheEncryption enables envelope encryption of the bundle cache
// when security.signing_key.encrypt_cache_at_rest is set, deriving the
// seal key from the same signing key material used for bundle
// signatures rather than managing a second secret.
func applyCacheEncryption(ctx context.Context, cache *registry.FileCache, cfg config.SigningKeyConfig) error {
	if !cfg.EncryptCacheAtRest {
		return nil
	}

	provider, err := signing.NewProvider(cfg)
	if err != nil {
		return err
	}
	keyring := signing.NewKeyring(provider)

	return keyring.WithKey(ctx, cfg.KeyID, func(k *signing.Key) error {
		sealKey, err := registry.DeriveCacheSealKey(k.Private())
		if err != nil {
			return err
		}
		cache.SetEncryptionKey(sealKey)
		return nil
	})
}
