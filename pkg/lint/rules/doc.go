// Package rules provides the built-in rules of the dbt_score.rules namespace.
//
// Rules are organized by resource family:
//   - generic: models, snapshots and seeds (dbt_score.rules.generic)
//   - sources: sources (dbt_score.rules.sources)
//   - exposures: exposures (dbt_score.rules.exposures)
//   - macros: macros (dbt_score.rules.macros)
//   - filters: shared rule filters (dbt_score.rules.filters)
//
// To register all rules with the built-in catalog, import this package with
// a blank identifier:
//
//	import _ "github.com/leapstack-labs/dbtscore/pkg/lint/rules"
package rules
