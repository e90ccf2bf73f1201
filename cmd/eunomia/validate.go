package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"eunomia-hq/eunomia/pkg/cli"
	"eunomia-hq/eunomia/pkg/validator"
)

var validateFlags struct {
	dir string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the syntax, lint, and semantic passes over a policy directory",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateFlags.dir, "dir", "", "policy source directory (default: policy.dir from config)")
}

type validateResult struct {
	Valid  bool              `json:"valid"`
	Issues []validateIssue   `json:"issues"`
	Counts map[string]int    `json:"counts"`
}

type validateIssue struct {
	Severity string `json:"severity"`
	Category string `json:"category"`
	RuleID   string `json:"rule_id,omitempty"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message"`
}

func (r validateResult) String() string {
	if r.Valid && len(r.Issues) == 0 {
		return "policies valid, no issues found"
	}
	out := fmt.Sprintf("valid: %v\n", r.Valid)
	for _, i := range r.Issues {
		loc := i.File
		if i.Line > 0 {
			loc = fmt.Sprintf("%s:%d", i.File, i.Line)
		}
		out += fmt.Sprintf("  [%s] %s %s: %s\n", i.Severity, i.Category, loc, i.Message)
	}
	return out
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir := firstNonEmpty(validateFlags.dir, cfg.Policy.Dir)

	files, _, err := gatherPolicyFiles(dir, cfg.Policy.ExcludeDirs)
	if err != nil {
		return &cli.CommandError{Command: "validate", Cause: err}
	}
	modules, err := parseModules(files)
	if err != nil {
		return &cli.CommandError{Command: "validate", Cause: err}
	}

	opIDs := map[string]bool{}
	if cfg.Policy.ServiceContract != "" {
		opIDs, err = loadOperationIDs(cfg.Policy.ServiceContract)
		if err != nil {
			return &cli.CommandError{Command: "validate", Cause: err}
		}
	}

	report := validator.Validate(modules, validator.Options{
		Suppress:     validator.Suppressions(cfg.Policy.Lint.Suppress),
		OperationIDs: opIDs,
	})

	result := validateResult{Valid: report.Valid(), Counts: map[string]int{}}
	for _, issue := range report.Issues {
		result.Counts[string(issue.Severity)]++
		result.Issues = append(result.Issues, validateIssue{
			Severity: string(issue.Severity),
			Category: string(issue.Category),
			RuleID:   issue.RuleID,
			File:     issue.Locator.File,
			Line:     issue.Locator.Line,
			Message:  issue.Message,
		})
	}

	if err := emit(result); err != nil {
		return err
	}
	if !result.Valid {
		return report.ToError()
	}
	return nil
}
