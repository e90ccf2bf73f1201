package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"eunomia-hq/eunomia/pkg/policy/module"
)

func TestValidatePassesCleanPolicy(t *testing.T) {
	src := `package authz

import future.keywords.if

default allow := false

allow if {
	input.method == "GET"
}
`
	mods := []module.Module{module.Parse("authz.rego", src)}
	report := Validate(mods, Options{})
	assert.True(t, report.Valid())
}

func TestValidateStopsAtSyntaxFailure(t *testing.T) {
	src := `package authz

allow if {
`
	mods := []module.Module{module.Parse("authz.rego", src)}
	report := Validate(mods, Options{})
	assert.False(t, report.Valid())
	assert.Len(t, report.ByCategory(CategorySyntax), 1)
}

func TestValidateSuppressesLintRule(t *testing.T) {
	src := `package authz

default allow := false

allow if {
	true
}
`
	mods := []module.Module{module.Parse("authz.rego", src)}

	withoutSuppress := Validate(mods, Options{})
	assert.NotEmpty(t, withoutSuppress.ByCategory(CategorySecurity))

	withSuppress := Validate(mods, Options{
		Suppress: Suppressions{"security/no-wildcard-allow": []string{"authz.rego"}},
	})
	for _, i := range withSuppress.ByCategory(CategorySecurity) {
		assert.NotEqual(t, "security/no-wildcard-allow", i.RuleID)
	}
}
