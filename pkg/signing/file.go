package signing

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"os"
	"path/filepath"
)

// FileProvider loads an Ed25519 private key from a raw 64-byte file on
// disk. Permissions are validated the same way a mounted secret would be:
// only 0600 or 0400 is accepted.
type FileProvider struct {
	Path string
}

// NewFileProvider returns a FileProvider reading the key from path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

func (p *FileProvider) Provider() string { return "file" }

func (p *FileProvider) GetSigningKey(ctx context.Context, keyID string) (*Key, error) {
	info, err := os.Stat(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat signing key file %s: %w", p.Path, err)
	}
	mode := info.Mode().Perm()
	if mode != 0600 && mode != 0400 {
		return nil, fmt.Errorf("insecure permissions on %s: %o (expected 0600 or 0400)", p.Path, mode)
	}

	data, err := os.ReadFile(filepath.Clean(p.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key file: %w", err)
	}
	if len(data) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("signing key file %s has wrong length: got %d bytes, want %d", p.Path, len(data), ed25519.PrivateKeySize)
	}

	return &Key{ID: keyID, private: data}, nil
}
