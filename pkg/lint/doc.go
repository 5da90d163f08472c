// Package lint provides the rule framework used to evaluate manifest resources.
//
// # Rules and filters
//
// A Rule checks one resource type and reports at most one Violation per
// resource. A RuleFilter is a predicate, scoped to the same resource type,
// that excludes resources from a rule. A rule runs on a resource only when
// every attached filter accepts it.
//
// Rules are usually declared from a plain function with Define, which takes
// the resource type from its type parameter:
//
//	var hasOwner = lint.Define(namespace, lint.RuleSpec{
//		Name:        "has_owner",
//		Description: "A model should have an owner.",
//	}, func(_ *lint.Context, m *manifest.Model) (*lint.Violation, error) {
//		if !manifest.IsSet(m.Meta["owner"]) {
//			return lint.Violationf("Model lacks an owner."), nil
//		}
//		return nil, nil
//	})
//
// Any type implementing Rule directly can be evaluated as well.
//
// # Rule Registration
//
// Built-in rules register themselves with the static catalog from init()
// functions when their packages are imported:
//
//	import _ "github.com/leapstack-labs/dbtscore/pkg/lint/rules"
//
// # Registry
//
// A Registry loads every rule and filter reachable from a list of
// namespaces, in order, from one or more Catalogs. Duplicate names abort the
// load, disabled rules are skipped, and rule configuration may override the
// severity, the description, the parameters and the attached filters:
//
//	reg := lint.NewRegistry(lint.RegistryConfig{
//		Namespaces: []string{"dbt_score.rules"},
//		Disabled:   []string{"dbt_score.rules.generic.has_owner"},
//	}, lint.Builtins())
//	if err := reg.LoadAll(); err != nil {
//		return err
//	}
package lint
