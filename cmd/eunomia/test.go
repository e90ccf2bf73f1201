package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"eunomia-hq/eunomia/pkg/cli"
	"eunomia-hq/eunomia/pkg/eerrors"
	"eunomia-hq/eunomia/pkg/testsuite"
)

var testFlags struct {
	dir      string
	filter   string
	parallel bool
	failFast bool
	timeout  time.Duration
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run native test rules and declarative fixtures against a policy directory",
	RunE:  runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
	testCmd.Flags().StringVar(&testFlags.dir, "dir", "", "policy source directory (default: policy.dir from config)")
	testCmd.Flags().StringVar(&testFlags.filter, "filter", "", "only run tests/fixtures matching this substring or glob")
	testCmd.Flags().BoolVar(&testFlags.parallel, "parallel", true, "run tests concurrently")
	testCmd.Flags().BoolVar(&testFlags.failFast, "fail-fast", false, "stop at the first failure")
	testCmd.Flags().DurationVar(&testFlags.timeout, "timeout", 10*time.Second, "per-test timeout")
}

type testSummaryResult struct {
	Passed  int              `json:"passed"`
	Failed  int              `json:"failed"`
	Errored int              `json:"errored"`
	Results []testResultItem `json:"results,omitempty"`
}

type testResultItem struct {
	Name     string `json:"name"`
	Outcome  string `json:"outcome"`
	Reason   string `json:"reason,omitempty"`
	Duration string `json:"duration"`
}

func (r testSummaryResult) String() string {
	out := fmt.Sprintf("passed: %d  failed: %d  errored: %d\n", r.Passed, r.Failed, r.Errored)
	for _, item := range r.Results {
		if item.Outcome == "passed" {
			continue
		}
		out += fmt.Sprintf("  [%s] %s (%s): %s\n", item.Outcome, item.Name, item.Duration, item.Reason)
	}
	return out
}

func runTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir := firstNonEmpty(testFlags.dir, cfg.Policy.Dir)

	suite, err := testsuite.Discover(dir, testsuite.DiscoverOptions{
		Recursive:  cfg.Policy.Recursive,
		ExcludeDir: cfg.Policy.ExcludeDirs,
	})
	if err != nil {
		return &cli.CommandError{Command: "test", Cause: err}
	}

	results := testsuite.Run(cmd.Context(), suite, testsuite.Options{
		FailFast: testFlags.failFast,
		Filter:   testFlags.filter,
		Parallel: testFlags.parallel,
		Timeout:  testFlags.timeout,
	})

	summary := testSummaryResult{
		Passed:  results.PassedCount(),
		Failed:  results.FailedCount(),
		Errored: results.ErroredCount(),
	}
	for _, res := range results.Results {
		summary.Results = append(summary.Results, testResultItem{
			Name:     res.Name,
			Outcome:  string(res.Outcome),
			Reason:   res.Reason,
			Duration: res.Duration.String(),
		})
	}

	if err := emit(summary); err != nil {
		return err
	}
	if !results.AssertAllPassed() {
		first := results.Failures()[0]
		return &eerrors.TestFailure{TestName: first.Name, Reason: fmt.Sprintf("%d failed, %d errored", summary.Failed, summary.Errored)}
	}
	return nil
}
