package registry

import (
	"context"
	"encoding/json"

	v1 "github.com/opencontainers/image-spec/specs-go/v1"

	"eunomia-hq/eunomia/pkg/bundler"
	"eunomia-hq/eunomia/pkg/eerrors"
	"eunomia-hq/eunomia/pkg/signing"
)

const signatureMediaType = "application/vnd.eunomia.policy-bundle.signatures.v1+json"

// PublishResult is returned by Publish: the tag it was published under
// and the manifest digest that now identifies this bundle revision.
type PublishResult struct {
	Tag    string
	Digest string
}

// Publish uploads a signed bundle's archive and signature file as OCI
// blobs, then pushes a manifest referencing both and tags it with the
// bundle's semantic version.
func Publish(ctx context.Context, client *Client, b bundler.Bundle, sigs signing.SignatureFile) (PublishResult, error) {
	archiveDesc, err := client.UploadBlob(ctx, ArtifactMediaType, b.Archive)
	if err != nil {
		return PublishResult{}, err
	}

	sigBytes, err := sigs.Marshal()
	if err != nil {
		return PublishResult{}, &eerrors.BundleError{Reason: "marshal signature file", Cause: err}
	}
	sigDesc, err := client.UploadBlob(ctx, signatureMediaType, sigBytes)
	if err != nil {
		return PublishResult{}, err
	}

	configBytes, err := json.Marshal(b.Manifest)
	if err != nil {
		return PublishResult{}, &eerrors.BundleError{Reason: "marshal manifest config", Cause: err}
	}
	configDesc, err := client.UploadBlob(ctx, "application/vnd.eunomia.config.v1+json", configBytes)
	if err != nil {
		return PublishResult{}, err
	}

	manifest := v1.Manifest{
		Versioned: specVersioned(),
		MediaType: ManifestMediaType,
		Config:    configDesc,
		Layers:    []v1.Descriptor{archiveDesc, sigDesc},
	}

	tag := b.Manifest.Metadata.Eunomia.Version
	desc, err := client.PushManifest(ctx, tag, manifest)
	if err != nil {
		return PublishResult{}, err
	}

	return PublishResult{Tag: tag, Digest: desc.Digest.String()}, nil
}

// FetchResult is the outcome of a Fetch: the bundle archive, its parsed
// manifest, and the signatures shipped alongside it.
type FetchResult struct {
	Archive   []byte
	Manifest  bundler.Manifest
	Signatures signing.SignatureFile
}

// Fetch resolves q against the repository's tag list and downloads the
// matching bundle's archive and signature blobs.
func Fetch(ctx context.Context, client *Client, q VersionQuery) (FetchResult, error) {
	tags, err := client.ListTags(ctx)
	if err != nil {
		return FetchResult{}, err
	}
	tag, err := Resolve(q, tags)
	if err != nil {
		return FetchResult{}, err
	}

	ociManifest, _, err := client.FetchManifest(ctx, tag)
	if err != nil {
		return FetchResult{}, err
	}
	if len(ociManifest.Layers) < 2 {
		return FetchResult{}, &eerrors.BundleError{Reason: "manifest is missing archive or signature layer"}
	}

	archive, err := client.FetchBlob(ctx, ociManifest.Layers[0])
	if err != nil {
		return FetchResult{}, err
	}
	sigBytes, err := client.FetchBlob(ctx, ociManifest.Layers[1])
	if err != nil {
		return FetchResult{}, err
	}
	sigs, err := signing.ParseSignatureFile(sigBytes)
	if err != nil {
		return FetchResult{}, &eerrors.BundleError{Reason: "parse signature file", Cause: err}
	}

	manifest, _, err := bundler.Extract(archive)
	if err != nil {
		return FetchResult{}, err
	}

	return FetchResult{Archive: archive, Manifest: manifest, Signatures: sigs}, nil
}

func specVersioned() v1.Versioned {
	return v1.Versioned{SchemaVersion: 2}
}
