package validator

import (
	"eunomia-hq/eunomia/pkg/eerrors"
	"eunomia-hq/eunomia/pkg/policy/module"
	"eunomia-hq/eunomia/pkg/ruleengine"
)

// Syntax loads every module into a fresh rule engine adapter and reports
// a ParseError-class Error issue for any module that fails to compile.
func Syntax(modules []module.Module) []Issue {
	var issues []Issue
	for _, m := range modules {
		adapter := ruleengine.New()
		adapter.AddPolicy(m.Path, m.Source)
		if err := adapter.Compile(); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Category: CategorySyntax,
				RuleID:   "syntax/parse-error",
				Locator:  eerrors.SourceLocator{File: m.Path},
				Message:  err.Error(),
			})
		}
	}
	return issues
}
