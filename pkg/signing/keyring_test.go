package signing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSignAndVerifyRoundTrip(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	t.Setenv("EUNOMIA_SIGNING_KEY", priv)
	ring := NewKeyring(NewEnvProvider("EUNOMIA_SIGNING_KEY"))

	digest := "a3f5c1..." // stand-in for a bundle's hex checksum
	sig, pubB64, err := ring.Sign(context.Background(), "key-1", digest)
	require.NoError(t, err)
	assert.Equal(t, pub, pubB64)
	assert.Equal(t, "ed25519", sig.Algorithm)
	assert.Equal(t, "key-1", sig.KeyID)

	require.NoError(t, Verify(pubB64, sig, digest))
	assert.Error(t, Verify(pubB64, sig, "tampered-digest"))
}

func TestWithKeyZeroesMaterialOnError(t *testing.T) {
	_, priv, err := GenerateKeyPair()
	require.NoError(t, err)
	t.Setenv("EUNOMIA_SIGNING_KEY", priv)

	ring := NewKeyring(NewEnvProvider("EUNOMIA_SIGNING_KEY"))
	var captured *Key
	err = ring.WithKey(context.Background(), "key-1", func(k *Key) error {
		captured = k
		return assert.AnError
	})
	require.Error(t, err)

	allZero := true
	for _, b := range captured.Private() {
		if b != 0 {
			allZero = false
			break
		}
	}
	assert.True(t, allZero, "key material must be zeroed after WithKey returns")
}

func TestEnvProviderMissingVar(t *testing.T) {
	p := NewEnvProvider("EUNOMIA_SIGNING_KEY_MISSING")
	_, err := p.GetSigningKey(context.Background(), "key-1")
	assert.Error(t, err)
}

func TestKMSProvidersAreStubbed(t *testing.T) {
	_, err := NewAWSKMSProvider("arn:aws:kms:1").GetSigningKey(context.Background(), "k")
	assert.Error(t, err)
	_, err = NewGCPKMSProvider("projects/p/keys/k").GetSigningKey(context.Background(), "k")
	assert.Error(t, err)
	_, err = NewVaultProvider("https://vault", "transit").GetSigningKey(context.Background(), "k")
	assert.Error(t, err)
}

func TestSignatureFileVerifyAny(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)
	t.Setenv("EUNOMIA_SIGNING_KEY", priv)
	ring := NewKeyring(NewEnvProvider("EUNOMIA_SIGNING_KEY"))

	digest := "deadbeef"
	sig, _, err := ring.Sign(context.Background(), "k1", digest)
	require.NoError(t, err)

	trust := StaticTrustStore{"k1": pub}
	f := SignatureFile{Signatures: []Signature{sig}}
	require.NoError(t, f.VerifyAny(digest, trust))
	assert.Error(t, f.VerifyAny("other-digest", trust))
}
