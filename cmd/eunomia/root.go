package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"eunomia-hq/eunomia/pkg/cli"
	"eunomia-hq/eunomia/pkg/config"
)

var (
	cfgFile    string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "eunomia",
	Short: "Eunomia - GitOps-native authorization policy control plane",
	Long: `Eunomia validates, tests, bundles, signs, and distributes declarative
authorization policies to a fleet of runtime enforcement instances.

It turns a directory of Rego policy sources into a signed, content-addressed
bundle, publishes it to an OCI-compatible registry, and rolls it out under a
choice of deployment strategies with health-driven automatic rollback.

For more information, see https://github.com/eunomia-hq/eunomia`,
	Version:      Version,
	SilenceUsage: true,
	// Errors are rendered by Execute so --json output carries a structured
	// envelope instead of cobra's default stderr line.
	SilenceErrors: true,
}

// Execute runs the root command, rendering any returned error in the
// selected output format and exiting with the error's mapped exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if jsonOutput {
			_ = cli.JSONFormatter{Indent: true}.FormatTo(os.Stderr, cli.Envelope(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON output")
	rootCmd.CompletionOptions.DisableDefaultCmd = false
}

// loadConfig reads and validates the configuration named by --config,
// applying defaults and EUNOMIA_* environment overrides.
func loadConfig() (*config.Config, error) {
	return config.LoadConfigWithEnvOverrides(cfgFile)
}

// formatter returns the result Formatter selected by --json.
func formatter() cli.Formatter {
	if jsonOutput {
		return cli.NewFormatter(cli.FormatJSON)
	}
	return cli.NewFormatter(cli.FormatText)
}

func emit(v any) error {
	return formatter().FormatTo(os.Stdout, v)
}
