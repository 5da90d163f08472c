package lint

import "fmt"

// DuplicateError is returned when two rules or two filters share a name.
type DuplicateError struct {
	Kind string // "rule" or "filter"
	Name string
}

func (e *DuplicateError) Error() string {
	if e.Kind == "filter" {
		return fmt.Sprintf("Filter %s is defined twice. Filters must have unique names.", e.Name)
	}
	return fmt.Sprintf("Rule %s is defined twice. Rules must have unique names.", e.Name)
}

// DefinitionError is returned when a rule or filter definition is invalid.
type DefinitionError struct {
	Name    string
	Message string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("invalid definition of %s: %s", e.Name, e.Message)
}

// ConfigError is returned when user configuration does not fit a rule.
type ConfigError struct {
	Rule    string
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("rule %s: %s: %s", e.Rule, e.Key, e.Message)
	}
	return fmt.Sprintf("rule %s: %s", e.Rule, e.Message)
}
