package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"eunomia-hq/eunomia/pkg/bundler"
	"eunomia-hq/eunomia/pkg/cli"
)

var buildFlags struct {
	dir       string
	service   string
	version   string
	gitCommit string
	output    string
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Assemble a deterministic, signed-ready bundle archive from a policy directory",
	RunE:  runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVar(&buildFlags.dir, "dir", "", "policy source directory (default: policy.dir from config)")
	buildCmd.Flags().StringVar(&buildFlags.service, "service", "", "service name embedded in the manifest (default: bundle.service from config)")
	buildCmd.Flags().StringVar(&buildFlags.version, "version", "", "semantic version for this bundle")
	buildCmd.Flags().StringVar(&buildFlags.gitCommit, "git-commit", "", "git commit recorded in the manifest (default: resolved from the policy directory's HEAD)")
	buildCmd.Flags().StringVar(&buildFlags.output, "output", "", "output archive path (default: bundle.output from config)")
	_ = buildCmd.MarkFlagRequired("version")
}

type buildResult struct {
	Service string   `json:"service"`
	Version string   `json:"version"`
	Roots   []string `json:"roots"`
	Digest  string   `json:"digest"`
	Output  string   `json:"output"`
}

func (r buildResult) String() string {
	return fmt.Sprintf("built %s@%s\n  roots:  %v\n  digest: %s\n  output: %s", r.Service, r.Version, r.Roots, r.Digest, r.Output)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir := firstNonEmpty(buildFlags.dir, cfg.Policy.Dir)
	output := firstNonEmpty(buildFlags.output, cfg.Bundle.Output)
	service := firstNonEmpty(buildFlags.service, cfg.Bundle.Service)

	files, roots, err := gatherPolicyFiles(dir, cfg.Policy.ExcludeDirs)
	if err != nil {
		return &cli.CommandError{Command: "build", Cause: err}
	}

	gitCommit := buildFlags.gitCommit
	if gitCommit == "" && cfg.Bundle.GitCommitFromHEAD {
		gitCommit = resolveGitCommit(dir)
	}

	b, err := bundler.Build(bundler.BuildOptions{
		Revision:  gitCommit,
		Roots:     roots,
		Version:   buildFlags.version,
		Service:   service,
		GitCommit: gitCommit,
	}, files)
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, b.Archive, 0o644); err != nil {
		return &cli.CommandError{Command: "build", Context: map[string]any{"output": output}, Cause: fmt.Errorf("write bundle archive: %w", err)}
	}

	return emit(buildResult{
		Service: service,
		Version: buildFlags.version,
		Roots:   roots,
		Digest:  b.Digest,
		Output:  output,
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
