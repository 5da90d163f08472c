package generic

import (
	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/leapstack-labs/dbtscore/pkg/lint/rules/internal/check"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
)

func init() {
	lint.RegisterRule(SeedHasDescription)
	lint.RegisterRule(SeedColumnsHaveDescription)
	lint.RegisterRule(SeedHasOwner)
}

// SeedHasDescription requires a seed description.
var SeedHasDescription = lint.Define(Namespace, lint.RuleSpec{
	Name:        "seed_has_description",
	Description: "A seed should have a description.",
}, func(_ *lint.Context, s *manifest.Seed) (*lint.Violation, error) {
	if s.Description == "" {
		return lint.Violationf("Seed lacks a description."), nil
	}
	return nil, nil
})

// SeedColumnsHaveDescription requires a description on every seed column.
var SeedColumnsHaveDescription = lint.Define(Namespace, lint.RuleSpec{
	Name:        "seed_columns_have_description",
	Description: "All columns of a seed should have a description.",
}, func(_ *lint.Context, s *manifest.Seed) (*lint.Violation, error) {
	if names := check.UndocumentedColumns(s.Columns); len(names) > 0 {
		return &lint.Violation{Message: check.ListMessage("Columns lack a description", names)}, nil
	}
	return nil, nil
})

// SeedHasOwner requires config.meta.owner on a seed.
var SeedHasOwner = lint.Define(Namespace, lint.RuleSpec{
	Name:        "seed_has_owner",
	Description: "A seed should have an owner.",
}, func(_ *lint.Context, s *manifest.Seed) (*lint.Violation, error) {
	if !manifest.IsSet(check.Lookup(s.Config, "meta", "owner")) {
		return lint.Violationf("Seed lacks an owner."), nil
	}
	return nil, nil
})
