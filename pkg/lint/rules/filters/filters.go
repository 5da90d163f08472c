// Package filters provides the built-in rule filters.
package filters

import (
	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
)

// Namespace of the built-in filters.
const Namespace = lint.BuiltinNamespace + ".filters"

func init() {
	lint.RegisterFilter(IsTable)
}

// IsTable keeps models materialized as tables, incremental ones included.
var IsTable = lint.DefineFilter(Namespace, lint.FilterSpec{
	Name:        "is_table",
	Description: "Models that are tables.",
}, func(m *manifest.Model) bool {
	switch m.Materialization() {
	case "table", "incremental":
		return true
	default:
		return false
	}
})
