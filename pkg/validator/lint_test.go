package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"eunomia-hq/eunomia/pkg/policy/module"
)

func TestLintRequiresDefaultDenyOnEntrypoint(t *testing.T) {
	src := `package authz

allow if {
	input.method == "GET"
}
`
	mods := []module.Module{module.Parse("authz.rego", src)}
	issues := Lint(mods, nil)

	var found bool
	for _, i := range issues {
		if i.RuleID == "security/default-deny" {
			found = true
			assert.Equal(t, SeverityError, i.Severity)
		}
	}
	assert.True(t, found)
}

func TestLintFlagsHardcodedSecret(t *testing.T) {
	src := `package authz

default allow := false

allow if {
	input.token == "sk-live-abcdef123456"
}
`
	mods := []module.Module{module.Parse("authz.rego", src)}
	issues := Lint(mods, nil)

	var found bool
	for _, i := range issues {
		if i.RuleID == "security/no-hardcoded-secrets" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLintFlagsWildcardAllow(t *testing.T) {
	src := `package authz

default allow := false

allow if {
	true
}
`
	mods := []module.Module{module.Parse("authz.rego", src)}
	issues := Lint(mods, nil)

	var found bool
	for _, i := range issues {
		if i.RuleID == "security/no-wildcard-allow" {
			found = true
			assert.Equal(t, SeverityWarning, i.Severity)
		}
	}
	assert.True(t, found)
}

func TestLintHintsExplicitImports(t *testing.T) {
	src := `package authz

default allow := false

allow if {
	input.method == "GET"
}
`
	mods := []module.Module{module.Parse("authz.rego", src)}
	issues := Lint(mods, nil)

	var found bool
	for _, i := range issues {
		if i.RuleID == "style/explicit-imports" {
			found = true
			assert.Equal(t, SeverityHint, i.Severity)
		}
	}
	assert.True(t, found)
}

func TestLintSuppressionMatchesBasenameAndFullPath(t *testing.T) {
	suppress := Suppressions{"security/no-wildcard-allow": []string{"*.rego"}}
	assert.True(t, suppress.suppressed("security/no-wildcard-allow", "policies/authz.rego"))
	assert.False(t, suppress.suppressed("security/default-deny", "policies/authz.rego"))
}
