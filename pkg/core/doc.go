// Package core defines the shared language of the dbtscore system.
//
// This package contains:
//   - Severity levels used to weight rule violations
//   - Resource type tags for the evaluable manifest entities
//   - Rule and badge configuration types
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
