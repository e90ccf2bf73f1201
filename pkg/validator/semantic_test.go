package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"eunomia-hq/eunomia/pkg/policy/module"
)

func TestSemanticFlagsDeprecatedInputFields(t *testing.T) {
	src := `package authz

default allow := false

allow if {
	input.action == "read"
}
`
	mods := []module.Module{module.Parse("authz.rego", src)}
	issues := Semantic(mods, nil)

	var found bool
	for _, i := range issues {
		if i.Category == CategoryDeprecated && i.RuleID == "semantic/deprecated-input-field" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSemanticFlagsUnknownOperationId(t *testing.T) {
	src := `package authz

default allow := false

allow if {
	input.operation_id == "CreateWidget"
}
`
	mods := []module.Module{module.Parse("authz.rego", src)}
	issues := Semantic(mods, map[string]bool{"DeleteWidget": true})

	var found bool
	for _, i := range issues {
		if i.Category == CategoryOperationId {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSemanticAllowsKnownOperationId(t *testing.T) {
	src := `package authz

default allow := false

allow if {
	input.operation_id == "CreateWidget"
}
`
	mods := []module.Module{module.Parse("authz.rego", src)}
	issues := Semantic(mods, map[string]bool{"CreateWidget": true})

	for _, i := range issues {
		assert.NotEqual(t, CategoryOperationId, i.Category)
	}
}

func TestSemanticFlagsUnusedRule(t *testing.T) {
	src := `package authz

default allow := false

unused_helper if {
	true
}
`
	mods := []module.Module{module.Parse("authz.rego", src)}
	issues := Semantic(mods, nil)

	var found bool
	for _, i := range issues {
		if i.Category == CategoryUnused && i.Message == "rule defined but never referenced: unused_helper" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSemanticExemptsDefaultAllowDenyAndTestRules(t *testing.T) {
	src := `package authz_test

default allow := false

test_allows_read if {
	true
}
`
	mods := []module.Module{module.Parse("authz_test.rego", src)}
	issues := Semantic(mods, nil)

	for _, i := range issues {
		assert.NotEqual(t, "semantic/unused-rule", i.RuleID)
	}
}
