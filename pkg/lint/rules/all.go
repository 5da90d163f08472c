package rules

// Import all rule subpackages to register them with the built-in catalog.
// This file triggers all init() functions in the rule packages.
import (
	_ "github.com/leapstack-labs/dbtscore/pkg/lint/rules/exposures"
	_ "github.com/leapstack-labs/dbtscore/pkg/lint/rules/filters"
	_ "github.com/leapstack-labs/dbtscore/pkg/lint/rules/generic"
	_ "github.com/leapstack-labs/dbtscore/pkg/lint/rules/macros"
	_ "github.com/leapstack-labs/dbtscore/pkg/lint/rules/sources"
)
