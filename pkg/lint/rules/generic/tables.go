package generic

import (
	"slices"
	"strings"

	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/leapstack-labs/dbtscore/pkg/lint/rules/filters"
	"github.com/leapstack-labs/dbtscore/pkg/lint/rules/internal/check"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
)

func init() {
	lint.RegisterRule(SinglePKDefinedAtColumnLevel)
	lint.RegisterRule(SingleColumnUniquenessAtColumnLevel)
	lint.RegisterRule(HasUniquenessTest)
	lint.RegisterRule(HasNoUnusedIsIncremental)
}

const (
	primaryKey          = "primary_key"
	uniqueTest          = "unique"
	uniqueCombination   = "unique_combination_of_columns"
	combinationArgument = "combination_of_columns"
)

// SinglePKDefinedAtColumnLevel moves single-column primary keys to the column.
var SinglePKDefinedAtColumnLevel = lint.Define(Namespace, lint.RuleSpec{
	Name:        "single_pk_defined_at_column_level",
	Description: "Single-column PK must be defined as a column constraint.",
	Filters:     []lint.FilterDef{filters.IsTable},
}, func(_ *lint.Context, m *manifest.Model) (*lint.Violation, error) {
	for _, c := range m.Constraints {
		if c.Type == primaryKey && len(c.Columns) == 1 {
			return lint.Violationf("Single-column PK %s must be defined as a column constraint.", c.Columns[0]), nil
		}
	}
	return nil, nil
})

// SingleColumnUniquenessAtColumnLevel moves single-column uniqueness tests to the column.
var SingleColumnUniquenessAtColumnLevel = lint.Define(Namespace, lint.RuleSpec{
	Name:        "single_column_uniqueness_at_column_level",
	Description: "Single-column uniqueness test must be defined as a column test.",
	Filters:     []lint.FilterDef{filters.IsTable},
}, func(_ *lint.Context, m *manifest.Model) (*lint.Violation, error) {
	for _, test := range m.Tests {
		if test.Type == uniqueCombination && len(check.Strings(test.Kwargs[combinationArgument])) == 1 {
			return lint.Violationf("Single-column uniqueness test must be defined as a column test."), nil
		}
	}
	return nil, nil
})

// HasUniquenessTest requires a uniqueness test matching the primary key.
var HasUniquenessTest = lint.Define(Namespace, lint.RuleSpec{
	Name:        "has_uniqueness_test",
	Description: "Model has uniqueness test for primary key.",
	Filters:     []lint.FilterDef{filters.IsTable},
}, func(_ *lint.Context, m *manifest.Model) (*lint.Violation, error) {
	for _, col := range m.Columns {
		if !slices.ContainsFunc(col.Constraints, func(c manifest.Constraint) bool { return c.Type == primaryKey }) {
			continue
		}
		if slices.ContainsFunc(col.Tests, func(t manifest.Test) bool { return t.Type == uniqueTest }) {
			return nil, nil
		}
		return lint.Violationf("No unique constraint defined on PK column %s.", col.Name), nil
	}

	var pk []string
	for _, c := range m.Constraints {
		if c.Type == primaryKey {
			pk = c.Columns
			break
		}
	}
	if len(pk) == 0 {
		return nil, nil
	}

	for _, test := range m.Tests {
		if test.Type == uniqueCombination && sameSet(check.Strings(test.Kwargs[combinationArgument]), pk) {
			return nil, nil
		}
	}
	return lint.Violationf("No uniqueness test defined and matching PK %s.", strings.Join(pk, ",")), nil
})

// HasNoUnusedIsIncremental flags is_incremental() in non-incremental models.
var HasNoUnusedIsIncremental = lint.Define(Namespace, lint.RuleSpec{
	Name:        "has_no_unused_is_incremental",
	Description: "Non-incremental model does not make use of is_incremental().",
	Filters:     []lint.FilterDef{filters.IsTable},
}, func(_ *lint.Context, m *manifest.Model) (*lint.Violation, error) {
	if m.Materialization() != "incremental" && strings.Contains(m.RawCode, "is_incremental()") {
		return lint.Violationf("Non-incremental model makes use of is_incremental()."), nil
	}
	return nil, nil
})

func sameSet(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	other := make(map[string]bool, len(b))
	for _, s := range b {
		if !set[s] {
			return false
		}
		other[s] = true
	}
	return len(set) == len(other)
}
