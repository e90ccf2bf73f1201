package registry

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// sealer performs envelope encryption of cached bundle bytes at rest,
// used when security.signing_key.encrypt_cache_at_rest is set.
type sealer struct {
	key [32]byte
}

// DeriveCacheSealKey derives a 32-byte secretbox key from signing key
// material via scrypt, so the same signing key configured for bundle
// signatures can also protect the local bundle cache without a second
// secret to manage.
func DeriveCacheSealKey(signingKeyMaterial []byte) ([32]byte, error) {
	var key [32]byte
	derived, err := scrypt.Key(signingKeyMaterial, []byte("eunomia-cache-seal"), 1<<15, 8, 1, 32)
	if err != nil {
		return key, fmt.Errorf("derive cache seal key: %w", err)
	}
	copy(key[:], derived)
	return key, nil
}

func (s *sealer) seal(plain []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generate seal nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &s.key), nil
}

func (s *sealer) open(sealed []byte) ([]byte, error) {
	if len(sealed) < 24 {
		return nil, fmt.Errorf("sealed cache entry too short")
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, &s.key)
	if !ok {
		return nil, fmt.Errorf("cache entry failed authentication")
	}
	return plain, nil
}
