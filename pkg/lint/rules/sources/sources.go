// Package sources provides the built-in rules for dbt sources.
package sources

import (
	"github.com/leapstack-labs/dbtscore/pkg/core"
	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/leapstack-labs/dbtscore/pkg/lint/rules/internal/check"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
)

// Namespace of the source rules.
const Namespace = lint.BuiltinNamespace + ".sources"

func init() {
	lint.RegisterRule(SourceHasDescription)
	lint.RegisterRule(SourceColumnsHaveDescription)
	lint.RegisterRule(SourceHasFreshness)
}

// SourceHasDescription requires a source description.
var SourceHasDescription = lint.Define(Namespace, lint.RuleSpec{
	Name:        "source_has_description",
	Description: "A source should have a description.",
}, func(_ *lint.Context, s *manifest.Source) (*lint.Violation, error) {
	if s.Description == "" {
		return lint.Violationf("Source lacks a description."), nil
	}
	return nil, nil
})

// SourceColumnsHaveDescription requires a description on every source column.
var SourceColumnsHaveDescription = lint.Define(Namespace, lint.RuleSpec{
	Name:        "source_columns_have_description",
	Description: "All columns of a source should have a description.",
}, func(_ *lint.Context, s *manifest.Source) (*lint.Violation, error) {
	if names := check.UndocumentedColumns(s.Columns); len(names) > 0 {
		return &lint.Violation{Message: check.ListMessage("Columns lack a description", names)}, nil
	}
	return nil, nil
})

// SourceHasFreshness requires a warn_after or error_after freshness count.
var SourceHasFreshness = lint.Define(Namespace, lint.RuleSpec{
	Name:        "source_has_freshness",
	Description: "A source should define a freshness policy.",
	Severity:    core.SeverityLow,
}, func(_ *lint.Context, s *manifest.Source) (*lint.Violation, error) {
	if manifest.IsSet(check.Lookup(s.Freshness, "warn_after", "count")) ||
		manifest.IsSet(check.Lookup(s.Freshness, "error_after", "count")) {
		return nil, nil
	}
	return lint.Violationf("Source %s lacks a freshness policy.", s.SelectorName()), nil
})
