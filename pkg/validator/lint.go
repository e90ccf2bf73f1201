package validator

import (
	"path/filepath"
	"regexp"
	"strings"

	"eunomia-hq/eunomia/pkg/eerrors"
	"eunomia-hq/eunomia/pkg/policy/module"
)

// Suppressions maps a lint rule id to the file globs it does not apply
// to. Suppressing a rule never hides an otherwise-Error-severity finding
// as a side effect — it only removes matching issues for that rule id.
type Suppressions map[string][]string

func (s Suppressions) suppressed(ruleID, path string) bool {
	for _, glob := range s[ruleID] {
		if ok, _ := filepath.Match(glob, path); ok {
			return true
		}
		if ok, _ := filepath.Match(glob, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}

var (
	defaultDenyRe    = regexp.MustCompile(`default\s+allow\s*:?=\s*false`)
	secretTokenRe    = regexp.MustCompile(`(?i)(password|secret|api_key|token)\s*(?:==|:=|[:=])\s*"[^"$][^"]{3,}"`)
	wildcardAllowRe  = regexp.MustCompile(`allow\s*(\[[^\]]*\])?\s*(:?=|if)?\s*\{\s*true\s*\}`)
	futureKeywordsRe = regexp.MustCompile(`import\s+future\.keywords`)
)

// Lint runs the four pattern-level lint rules over source text. modules
// must have already been Parsed so m.Rules/IsEntrypoint are populated.
func Lint(modules []module.Module, suppress Suppressions) []Issue {
	var issues []Issue

	for _, m := range modules {
		loc := eerrors.SourceLocator{File: m.Path}

		if m.IsEntrypoint() && !suppress.suppressed("security/default-deny", m.Path) {
			if !defaultDenyRe.MatchString(m.Source) {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Category: CategorySecurity,
					RuleID:   "security/default-deny",
					Locator:  loc,
					Message:  "entrypoint module declaring allow must also declare `default allow := false`",
				})
			}
		}

		if !suppress.suppressed("security/no-hardcoded-secrets", m.Path) {
			for _, match := range secretTokenRe.FindAllString(m.Source, -1) {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Category: CategorySecurity,
					RuleID:   "security/no-hardcoded-secrets",
					Locator:  loc,
					Message:  "hardcoded secret-like literal: " + match,
				})
			}
		}

		if !suppress.suppressed("security/no-wildcard-allow", m.Path) {
			if wildcardAllowRe.MatchString(m.Source) {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Category: CategorySecurity,
					RuleID:   "security/no-wildcard-allow",
					Locator:  loc,
					Message:  "allow rule whose body is unconditionally true",
				})
			}
		}

		if !suppress.suppressed("style/explicit-imports", m.Path) {
			if strings.Contains(m.Source, "allow") && !futureKeywordsRe.MatchString(m.Source) {
				issues = append(issues, Issue{
					Severity:    SeverityHint,
					Category:    CategoryStyle,
					RuleID:      "style/explicit-imports",
					Locator:     loc,
					Message:     "consider `import future.keywords.*` for forward-compatible syntax",
					Remediation: "add `import future.keywords.*` near the top of the module",
				})
			}
		}
	}

	return issues
}
