package validator

import "eunomia-hq/eunomia/pkg/policy/module"

// Options configures a Validate run.
type Options struct {
	Suppress     Suppressions
	OperationIDs map[string]bool
}

// Validate runs the syntax, lint, and semantic passes over modules in
// order and aggregates their issues into a single Report. Lint and
// semantic issues are only collected when syntax passes, since both
// passes assume parseable source.
func Validate(modules []module.Module, opts Options) Report {
	var report Report

	report.Issues = append(report.Issues, Syntax(modules)...)
	if !report.Valid() {
		return report
	}

	report.Issues = append(report.Issues, Lint(modules, opts.Suppress)...)
	report.Issues = append(report.Issues, Semantic(modules, opts.OperationIDs)...)

	return report
}
