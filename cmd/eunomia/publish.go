package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"eunomia-hq/eunomia/pkg/bundler"
	"eunomia-hq/eunomia/pkg/cli"
	"eunomia-hq/eunomia/pkg/registry"
	"eunomia-hq/eunomia/pkg/signing"
)

var publishFlags struct {
	bundlePath string
	service    string
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a signed bundle archive to the configured OCI registry",
	RunE:  runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringVar(&publishFlags.bundlePath, "bundle", "", "path to the bundle archive")
	publishCmd.Flags().StringVar(&publishFlags.service, "service", "", "service name (default: bundle.service from config)")
	_ = publishCmd.MarkFlagRequired("bundle")
}

type publishResult struct {
	Repository string `json:"repository"`
	Tag        string `json:"tag"`
	Digest     string `json:"digest"`
}

func (r publishResult) String() string {
	return fmt.Sprintf("published %s:%s\n  digest: %s", r.Repository, r.Tag, r.Digest)
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	service := firstNonEmpty(publishFlags.service, cfg.Bundle.Service)

	archive, err := os.ReadFile(publishFlags.bundlePath)
	if err != nil {
		return &cli.CommandError{Command: "publish", Cause: fmt.Errorf("read bundle: %w", err)}
	}
	sigBytes, err := os.ReadFile(publishFlags.bundlePath + ".signatures.json")
	if err != nil {
		return &cli.CommandError{Command: "publish", Cause: fmt.Errorf("read signature file: %w", err)}
	}
	sigs, err := signing.ParseSignatureFile(sigBytes)
	if err != nil {
		return &cli.CommandError{Command: "publish", Cause: err}
	}
	manifest, _, err := bundler.Extract(archive)
	if err != nil {
		return err
	}
	b := bundler.Bundle{Archive: archive, Manifest: manifest, Digest: manifest.Metadata.Eunomia.Checksum.Value}

	ctx := cmd.Context()
	auth, err := registry.ResolveAuthConfig(ctx, cfg.Registry.Auth, buildSecretsManager(cfg.Security.RegistrySecrets))
	if err != nil {
		return &cli.CommandError{Command: "publish", Cause: err}
	}
	auth.PlainHTTP = cfg.Registry.Insecure

	repoRef := fmt.Sprintf("%s/%s", cfg.Registry.URL, service)
	client, err := registry.NewClient(repoRef, auth)
	if err != nil {
		return err
	}

	result, err := registry.Publish(ctx, client, b, sigs)
	if err != nil {
		return err
	}

	return emit(publishResult{Repository: repoRef, Tag: result.Tag, Digest: result.Digest})
}
