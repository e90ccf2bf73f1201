package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/opencontainers/go-digest"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"

	"eunomia-hq/eunomia/pkg/eerrors"
)

// ArtifactMediaType identifies an eunomia policy bundle as an OCI
// artifact, distinguishing it from generic container image layers.
const ArtifactMediaType = "application/vnd.eunomia.bundle.v1+tar+gzip"

// ManifestMediaType identifies the manifest describing a bundle's layers.
const ManifestMediaType = "application/vnd.oci.image.manifest.v1+json"

// Client talks to one OCI repository (registry/namespace pair) over the
// Distribution Spec v1 HTTP API.
type Client struct {
	repo *remote.Repository
}

// NewClient builds a Client for repository ref (e.g.
// "registry.example.com/eunomia/checkout") authenticated per cfg.
func NewClient(ref string, cfg AuthConfig) (*Client, error) {
	repo, err := remote.NewRepository(ref)
	if err != nil {
		return nil, &eerrors.RegistryError{Kind: eerrors.RegistryNotFound, Reason: "parse repository reference", Cause: err}
	}

	httpClient, err := cfg.httpClient()
	if err != nil {
		return nil, &eerrors.RegistryError{Kind: eerrors.RegistryAuth, Reason: "build transport", Cause: err}
	}

	repo.Client = &auth.Client{
		Client:     httpClient,
		Cache:      auth.NewCache(),
		Credential: cfg.credentialFunc(),
	}
	repo.PlainHTTP = cfg.PlainHTTP

	return &Client{repo: repo}, nil
}

// Exists reports whether ref (tag or digest) resolves in the repository.
func (c *Client) Exists(ctx context.Context, ref string) (bool, error) {
	_, err := c.repo.Resolve(ctx, ref)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, classify("resolve tag", err)
	}
	return true, nil
}

// ListTags returns every tag registered in the repository.
func (c *Client) ListTags(ctx context.Context) ([]string, error) {
	var tags []string
	err := c.repo.Tags(ctx, "", func(page []string) error {
		tags = append(tags, page...)
		return nil
	})
	if err != nil {
		return nil, classify("list tags", err)
	}
	return tags, nil
}

// FetchManifest retrieves the OCI manifest tagged or digested by ref.
func (c *Client) FetchManifest(ctx context.Context, ref string) (v1.Manifest, digest.Digest, error) {
	desc, rc, err := c.repo.FetchReference(ctx, ref)
	if err != nil {
		return v1.Manifest{}, "", classify("fetch manifest", err)
	}
	defer rc.Close()

	var manifest v1.Manifest
	if err := content.Decode(rc, desc, &manifest); err != nil {
		return v1.Manifest{}, "", &eerrors.RegistryError{Kind: eerrors.RegistryNetwork, Reason: "decode manifest", Cause: err}
	}
	return manifest, desc.Digest, nil
}

// FetchBlob retrieves the blob content for desc.
func (c *Client) FetchBlob(ctx context.Context, desc v1.Descriptor) ([]byte, error) {
	rc, err := c.repo.Fetch(ctx, desc)
	if err != nil {
		return nil, classify("fetch blob", err)
	}
	defer rc.Close()

	data, err := content.ReadAll(rc, desc)
	if err != nil {
		return nil, &eerrors.RegistryError{Kind: eerrors.RegistryNetwork, Reason: "read blob", Cause: err}
	}
	return data, nil
}

// UploadBlob pushes a raw blob and returns its descriptor. Pushing a blob
// that already exists by digest is treated as success, not an error.
func (c *Client) UploadBlob(ctx context.Context, mediaType string, data []byte) (v1.Descriptor, error) {
	desc := content.NewDescriptorFromBytes(mediaType, data)
	if err := c.repo.Push(ctx, desc, bytes.NewReader(data)); err != nil {
		if isAlreadyExists(err) {
			return desc, nil
		}
		return v1.Descriptor{}, classify("upload blob", err)
	}
	return desc, nil
}

// PushManifest pushes manifest and tags it as tag.
func (c *Client) PushManifest(ctx context.Context, tag string, manifest v1.Manifest) (v1.Descriptor, error) {
	encoded, err := json.Marshal(manifest)
	if err != nil {
		return v1.Descriptor{}, &eerrors.RegistryError{Kind: eerrors.RegistryConflict, Reason: "encode manifest", Cause: err}
	}
	desc := content.NewDescriptorFromBytes(ManifestMediaType, encoded)

	if err := c.repo.PushReference(ctx, desc, bytes.NewReader(encoded), tag); err != nil {
		return v1.Descriptor{}, classify("push manifest", err)
	}
	return desc, nil
}

func isNotFound(err error) bool {
	return containsAny(err.Error(), "not found", "404", "NAME_UNKNOWN", "MANIFEST_UNKNOWN")
}

func isAlreadyExists(err error) bool {
	return containsAny(err.Error(), "already exists", "BLOB_UPLOAD_INVALID")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func classify(op string, err error) error {
	if isNotFound(err) {
		return &eerrors.RegistryError{Kind: eerrors.RegistryNotFound, Reason: op, Cause: err}
	}
	return &eerrors.RegistryError{Kind: eerrors.RegistryNetwork, Reason: op, Cause: err}
}
