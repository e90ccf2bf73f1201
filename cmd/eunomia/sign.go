package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"eunomia-hq/eunomia/pkg/bundler"
	"eunomia-hq/eunomia/pkg/cli"
	"eunomia-hq/eunomia/pkg/signing"
)

var signFlags struct {
	bundlePath string
	keyID      string
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a bundle archive with the configured Ed25519 signing key",
	RunE:  runSign,
}

func init() {
	rootCmd.AddCommand(signCmd)
	signCmd.Flags().StringVar(&signFlags.bundlePath, "bundle", "", "path to the bundle archive")
	signCmd.Flags().StringVar(&signFlags.keyID, "key-id", "default", "signing key id")
	_ = signCmd.MarkFlagRequired("bundle")
}

type signResult struct {
	Bundle        string `json:"bundle"`
	SignatureFile string `json:"signature_file"`
	KeyID         string `json:"key_id"`
	Digest        string `json:"digest"`
}

func (r signResult) String() string {
	return fmt.Sprintf("signed %s with key %s\n  digest:         %s\n  signature file: %s", r.Bundle, r.KeyID, r.Digest, r.SignatureFile)
}

func runSign(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	archive, err := os.ReadFile(signFlags.bundlePath)
	if err != nil {
		return &cli.CommandError{Command: "sign", Cause: fmt.Errorf("read bundle: %w", err)}
	}
	manifest, files, err := bundler.Extract(archive)
	if err != nil {
		return err
	}
	b := bundler.Bundle{Archive: archive, Manifest: manifest, Digest: manifest.Metadata.Eunomia.Checksum.Value}
	_ = files

	provider, err := signing.NewProvider(cfg.Security.SigningKey)
	if err != nil {
		return &cli.CommandError{Command: "sign", Cause: err}
	}
	keyring := signing.NewKeyring(provider)

	sigs, err := bundler.Sign(cmd.Context(), keyring, b, signFlags.keyID)
	if err != nil {
		return err
	}

	sigBytes, err := sigs.Marshal()
	if err != nil {
		return &cli.CommandError{Command: "sign", Cause: err}
	}
	sigPath := signFlags.bundlePath + ".signatures.json"
	if err := os.WriteFile(sigPath, sigBytes, 0o644); err != nil {
		return &cli.CommandError{Command: "sign", Cause: fmt.Errorf("write signature file: %w", err)}
	}

	return emit(signResult{
		Bundle:        signFlags.bundlePath,
		SignatureFile: sigPath,
		KeyID:         signFlags.keyID,
		Digest:        b.Digest,
	})
}
