// Package generic provides the built-in rules for models, snapshots and seeds.
//
// Models:
//   - has_description, columns_have_description, has_owner
//   - sql_has_reasonable_number_of_lines (max_lines, default 200)
//   - has_example_sql (low)
//   - single_pk_defined_at_column_level, single_column_uniqueness_at_column_level,
//     has_uniqueness_test, has_no_unused_is_incremental (tables only)
//
// Snapshots: snapshot_has_unique_key, snapshot_has_strategy.
//
// Seeds: seed_has_description, seed_columns_have_description, seed_has_owner.
package generic

import "github.com/leapstack-labs/dbtscore/pkg/lint"

// Namespace of the generic rules.
const Namespace = lint.BuiltinNamespace + ".generic"
