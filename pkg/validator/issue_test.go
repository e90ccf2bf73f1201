package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"eunomia-hq/eunomia/pkg/eerrors"
)

func TestReportValidWithNoErrors(t *testing.T) {
	r := Report{Issues: []Issue{{Severity: SeverityWarning}, {Severity: SeverityHint}}}
	assert.True(t, r.Valid())
}

func TestReportInvalidWithAnyError(t *testing.T) {
	r := Report{Issues: []Issue{{Severity: SeverityWarning}, {Severity: SeverityError}}}
	assert.False(t, r.Valid())
}

func TestReportByCategoryFilters(t *testing.T) {
	r := Report{Issues: []Issue{
		{Category: CategorySecurity, RuleID: "a"},
		{Category: CategoryStyle, RuleID: "b"},
		{Category: CategorySecurity, RuleID: "c"},
	}}
	sec := r.ByCategory(CategorySecurity)
	assert.Len(t, sec, 2)
}

func TestReportToErrorReturnsFirstError(t *testing.T) {
	r := Report{Issues: []Issue{
		{Severity: SeverityWarning, Message: "warn"},
		{Severity: SeverityError, Message: "boom", Locator: eerrors.SourceLocator{File: "x.rego", Line: 3}},
	}}
	err := r.ToError()
	assert.Error(t, err)
	ve, ok := err.(*eerrors.ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "boom", ve.Message)
}

func TestReportToErrorNilWhenValid(t *testing.T) {
	r := Report{Issues: []Issue{{Severity: SeverityHint}}}
	assert.Nil(t, r.ToError())
}
