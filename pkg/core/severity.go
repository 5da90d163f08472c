package core

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// Severity
// =============================================================================

// Severity weights a rule violation. The ordinal value feeds the score formula.
type Severity int

// Severity levels, ordered from least to most impactful.
const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	// SeverityCritical zeroes the score of the resource it is raised on.
	SeverityCritical
)

// DefaultSeverity is used by rules that do not declare one.
const DefaultSeverity = SeverityMedium

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the defined levels.
func (s Severity) Valid() bool {
	return s >= SeverityLow && s <= SeverityCritical
}

// ParseSeverity converts a name ("high") or an ordinal ("3") to a Severity.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, true
	case "medium":
		return SeverityMedium, true
	case "high":
		return SeverityHigh, true
	case "critical":
		return SeverityCritical, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Severity(n).Valid() {
		return 0, false
	}
	return Severity(n), true
}

// SeverityFromValue converts a decoded configuration value to a Severity.
// Integers, integral floats and names are accepted.
func SeverityFromValue(v any) (Severity, error) {
	var sev Severity
	switch val := v.(type) {
	case Severity:
		sev = val
	case int:
		sev = Severity(val)
	case int64:
		sev = Severity(val)
	case float64:
		if val != float64(int(val)) {
			return 0, fmt.Errorf("invalid severity %v", v)
		}
		sev = Severity(int(val))
	case string:
		parsed, ok := ParseSeverity(val)
		if !ok {
			return 0, fmt.Errorf("invalid severity %q", val)
		}
		sev = parsed
	default:
		return 0, fmt.Errorf("invalid severity %v (%T)", v, v)
	}
	if !sev.Valid() {
		return 0, fmt.Errorf("invalid severity %d, expected 1 (low) to 4 (critical)", int(sev))
	}
	return sev, nil
}
