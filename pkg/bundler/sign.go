package bundler

import (
	"context"

	"eunomia-hq/eunomia/pkg/eerrors"
	"eunomia-hq/eunomia/pkg/signing"
)

// Sign produces a SignatureFile for bundle b using keyID from keyring.
// Callers typically write the result adjacent to the archive as
// <bundle>.signatures.json.
func Sign(ctx context.Context, keyring *signing.Keyring, b Bundle, keyID string) (signing.SignatureFile, error) {
	sig, _, err := keyring.Sign(ctx, keyID, b.Digest)
	if err != nil {
		return signing.SignatureFile{}, &eerrors.SignatureError{Reason: "sign bundle digest", Cause: err}
	}
	return signing.SignatureFile{Signatures: []signing.Signature{sig}}, nil
}

// Verify recomputes the bundle's content digest from archive, checks it
// against the manifest's claimed checksum, then checks at least one
// signature in sigs verifies against that digest using trust.
func Verify(archive []byte, trust signing.TrustStore, sigs signing.SignatureFile) error {
	manifest, files, err := Extract(archive)
	if err != nil {
		return err
	}

	digest, err := recomputeDigest(manifest, files)
	if err != nil {
		return err
	}
	if digest != manifest.Metadata.Eunomia.Checksum.Value {
		return &eerrors.BundleError{Reason: "checksum mismatch: archive does not match manifest checksum"}
	}
	if err := sigs.VerifyAny(digest, trust); err != nil {
		return &eerrors.SignatureError{Reason: "no valid signature", Cause: err}
	}
	return nil
}
