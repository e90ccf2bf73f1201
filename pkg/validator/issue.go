package validator

import "eunomia-hq/eunomia/pkg/eerrors"

// Severity is the severity of a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityHint    Severity = "hint"
)

// Category groups issues for suppression and reporting.
type Category string

const (
	CategorySyntax     Category = "syntax"
	CategorySecurity   Category = "security"
	CategoryStyle      Category = "style"
	CategoryUnused     Category = "unused"
	CategoryDeprecated Category = "deprecated"
	CategoryOperationId Category = "operation_id"
)

// Issue is one finding from any pass.
type Issue struct {
	Severity    Severity
	Category    Category
	RuleID      string
	Locator     eerrors.SourceLocator
	Message     string
	Remediation string
}

// Report aggregates issues from all three passes for a validation run.
type Report struct {
	Issues []Issue
}

// Valid reports whether the report contains no Error-severity issue.
func (r Report) Valid() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return false
		}
	}
	return true
}

// ByCategory filters issues to a single category.
func (r Report) ByCategory(cat Category) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Category == cat {
			out = append(out, i)
		}
	}
	return out
}

// ToError converts a non-valid report into a *eerrors.ValidationError
// describing the first Error-severity issue; returns nil for a valid
// report.
func (r Report) ToError() error {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return &eerrors.ValidationError{Locator: i.Locator, Message: i.Message}
		}
	}
	return nil
}
