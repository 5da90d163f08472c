// Package macros provides the built-in rules for dbt macros.
package macros

import (
	"regexp"

	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/leapstack-labs/dbtscore/pkg/lint/rules/internal/check"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
)

// Namespace of the macro rules.
const Namespace = lint.BuiltinNamespace + ".macros"

func init() {
	lint.RegisterRule(MacroHasDescription)
	lint.RegisterRule(MacroArgumentsHaveDescription)
	lint.RegisterRule(MacroNameFollowsNamingConvention)
}

var snakeCase = regexp.MustCompile(`^[a-z0-9_]+$`)

// MacroHasDescription requires a macro description.
var MacroHasDescription = lint.Define(Namespace, lint.RuleSpec{
	Name:        "macro_has_description",
	Description: "A macro should have a description.",
}, func(_ *lint.Context, m *manifest.Macro) (*lint.Violation, error) {
	if m.Description == "" {
		return lint.Violationf("Macro lacks a description."), nil
	}
	return nil, nil
})

// MacroArgumentsHaveDescription requires a description on every documented argument.
var MacroArgumentsHaveDescription = lint.Define(Namespace, lint.RuleSpec{
	Name:        "macro_arguments_have_description",
	Description: "All macro arguments should have a description.",
}, func(_ *lint.Context, m *manifest.Macro) (*lint.Violation, error) {
	var names []string
	for _, arg := range m.Arguments {
		if arg.Description != "" {
			continue
		}
		name := arg.Name
		if name == "" {
			name = "unknown"
		}
		names = append(names, name)
	}
	if len(names) > 0 {
		return &lint.Violation{Message: check.ListMessage("Arguments lack a description", names)}, nil
	}
	return nil, nil
})

// MacroNameFollowsNamingConvention requires snake_case macro names.
var MacroNameFollowsNamingConvention = lint.Define(Namespace, lint.RuleSpec{
	Name:        "macro_name_follows_naming_convention",
	Description: "A macro name should use snake_case naming convention.",
}, func(_ *lint.Context, m *manifest.Macro) (*lint.Violation, error) {
	if !snakeCase.MatchString(m.Name) {
		return lint.Violationf("Macro name should use snake_case (lowercase with underscores)."), nil
	}
	return nil, nil
})
