package validator

import (
	"regexp"
	"strings"

	"eunomia-hq/eunomia/pkg/eerrors"
	"eunomia-hq/eunomia/pkg/policy/module"
)

var (
	ruleRefRe       = regexp.MustCompile(`\b([a-z_][a-zA-Z0-9_]*)\s*(?:\[[^\]]*\])?\s*(?:==|!=|:=|,|\)|\s|$)`)
	deprecatedRe    = regexp.MustCompile(`input\.(action|resource)\b`)
	operationIdRe   = regexp.MustCompile(`input\.operation_id\s*==\s*"([^"]+)"`)
	exemptRuleNames = map[string]bool{"default": true, "allow": true, "deny": true}
)

// Semantic runs the four semantic checks over a fully loaded module set:
// undefined rule references, unused rules, deprecated input fields, and
// (when a service contract is supplied) unknown operation_id literals.
func Semantic(modules []module.Module, operationIDs map[string]bool) []Issue {
	var issues []Issue

	defined := map[string]bool{}
	for _, m := range modules {
		for _, r := range m.Rules {
			defined[r.Name] = true
		}
	}

	referenced := map[string]bool{}
	for _, m := range modules {
		loc := eerrors.SourceLocator{File: m.Path}

		for _, match := range ruleRefRe.FindAllStringSubmatch(m.Source, -1) {
			name := match[1]
			referenced[name] = true
		}

		if deprecatedRe.MatchString(m.Source) {
			for _, field := range deprecatedRe.FindAllString(m.Source, -1) {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Category: CategoryDeprecated,
					RuleID:   "semantic/deprecated-input-field",
					Locator:  loc,
					Message:  "use of deprecated input field: " + field,
				})
			}
		}

		if operationIDs != nil {
			for _, match := range operationIdRe.FindAllStringSubmatch(m.Source, -1) {
				opID := match[1]
				if !operationIDs[opID] {
					issues = append(issues, Issue{
						Severity: SeverityWarning,
						Category: CategoryOperationId,
						RuleID:   "semantic/unknown-operation-id",
						Locator:  loc,
						Message:  "operation_id " + opID + " is not declared in the service contract",
					})
				}
			}
		}
	}

	for name := range referenced {
		if isRuleLike(name) && !defined[name] && !isBuiltin(name) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Category: CategorySyntax,
				RuleID:   "semantic/undefined-rule",
				Message:  "rule referenced but never defined: " + name,
			})
		}
	}

	for name := range defined {
		if exemptRuleNames[name] || strings.HasPrefix(name, "test_") {
			continue
		}
		if !referenced[name] {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Category: CategoryUnused,
				RuleID:   "semantic/unused-rule",
				Message:  "rule defined but never referenced: " + name,
			})
		}
	}

	return issues
}

// isRuleLike filters out common local-variable-shaped identifiers that
// the lightweight regex scan over-matches; it is intentionally
// conservative (false negatives over false positives) since an Error
// here blocks a push.
func isRuleLike(name string) bool {
	switch name {
	case "input", "data", "true", "false", "null", "msg", "x", "i", "_":
		return false
	}
	return len(name) > 1
}

var builtinNames = map[string]bool{
	"count": true, "sum": true, "concat": true, "sprintf": true,
	"contains": true, "startswith": true, "endswith": true, "upper": true,
	"lower": true, "object": true, "array": true, "json": true,
	"time": true, "walk": true, "all": true, "any": true,
}

func isBuiltin(name string) bool {
	return builtinNames[name]
}
