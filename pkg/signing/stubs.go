package signing

import (
	"context"
	"fmt"
)

// AWSKMSProvider is a placeholder for a future AWS KMS-backed provider.
// It always fails: the repository carries no live AWS credentials or SDK
// wiring, so constructing one is a configuration error until that lands.
type AWSKMSProvider struct {
	KeyARN string
}

func NewAWSKMSProvider(keyARN string) *AWSKMSProvider { return &AWSKMSProvider{KeyARN: keyARN} }

func (p *AWSKMSProvider) Provider() string { return "aws_kms" }

func (p *AWSKMSProvider) GetSigningKey(ctx context.Context, keyID string) (*Key, error) {
	return nil, fmt.Errorf("aws_kms signing provider is not implemented: no live AWS credentials configured for key %s", p.KeyARN)
}

// GCPKMSProvider is a placeholder for a future GCP KMS-backed provider.
type GCPKMSProvider struct {
	ResourceID string
}

func NewGCPKMSProvider(resourceID string) *GCPKMSProvider { return &GCPKMSProvider{ResourceID: resourceID} }

func (p *GCPKMSProvider) Provider() string { return "gcp_kms" }

func (p *GCPKMSProvider) GetSigningKey(ctx context.Context, keyID string) (*Key, error) {
	return nil, fmt.Errorf("gcp_kms signing provider is not implemented: no live GCP credentials configured for resource %s", p.ResourceID)
}

// VaultProvider is a placeholder for a future HashiCorp Vault transit
// backend provider.
type VaultProvider struct {
	Address string
	Mount   string
}

func NewVaultProvider(address, mount string) *VaultProvider {
	return &VaultProvider{Address: address, Mount: mount}
}

func (p *VaultProvider) Provider() string { return "vault" }

func (p *VaultProvider) GetSigningKey(ctx context.Context, keyID string) (*Key, error) {
	return nil, fmt.Errorf("vault signing provider is not implemented: no live Vault session for %s", p.Address)
}
