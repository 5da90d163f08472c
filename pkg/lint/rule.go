package lint

import (
	"fmt"

	"github.com/leapstack-labs/dbtscore/pkg/core"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
)

// Violation is returned by a rule that found a problem.
type Violation struct {
	Message string
}

// Violationf builds a Violation with a formatted message.
func Violationf(format string, args ...any) *Violation {
	return &Violation{Message: fmt.Sprintf(format, args...)}
}

// Context is passed to rule checks.
type Context struct {
	// Graph resolves parents and children of the evaluated resource.
	Graph *manifest.Graph
	// Params holds the effective parameters of the rule.
	Params Params
	// Rule is the qualified name of the running rule.
	Rule string
}

// Rule is the interface all rules implement.
type Rule interface {
	// Name returns the fully qualified name, e.g. "dbt_score.rules.generic.has_owner".
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Severity returns the effective severity.
	Severity() core.Severity

	// ResourceType returns the single resource type the rule evaluates.
	ResourceType() core.ResourceType

	// DefaultConfig returns the coded parameter defaults.
	DefaultConfig() Params

	// Config returns the effective parameters.
	Config() Params

	// Filters returns the attached filters.
	Filters() []RuleFilter

	// ShouldEvaluate reports whether the rule applies to r.
	ShouldEvaluate(r manifest.Resource) bool

	// Evaluate checks r. A nil Violation and a nil error mean r passed.
	Evaluate(g *manifest.Graph, r manifest.Resource) (*Violation, error)
}

// CheckFunc is the check of a rule on one resource type.
type CheckFunc[T manifest.Resource] func(ctx *Context, r T) (*Violation, error)

// RuleSpec describes a rule declared with Define.
type RuleSpec struct {
	// Name is the short name, qualified with the namespace.
	Name        string
	Description string
	// Severity defaults to core.DefaultSeverity.
	Severity core.Severity
	// Params are the configurable parameters and their defaults.
	Params Params
	// Filters are attached unless configuration names other filters.
	Filters []FilterDef
}

// RuleDef is a rule definition, before configuration.
type RuleDef struct {
	Namespace    string
	Name         string
	Description  string
	Severity     core.Severity
	ResourceType core.ResourceType
	Params       Params
	Filters      []FilterDef
	Check        func(ctx *Context, r manifest.Resource) (*Violation, error)
}

// Define builds a rule definition from a typed check function.
func Define[T manifest.Resource](namespace string, spec RuleSpec, check CheckFunc[T]) RuleDef {
	name := Qualify(namespace, spec.Name)
	rt := resourceTypeOf[T]()

	def := RuleDef{
		Namespace:    namespace,
		Name:         name,
		Description:  spec.Description,
		Severity:     spec.Severity,
		ResourceType: rt,
		Params:       spec.Params,
		Filters:      spec.Filters,
	}
	if check != nil {
		def.Check = func(ctx *Context, r manifest.Resource) (*Violation, error) {
			typed, ok := r.(T)
			if !ok {
				return nil, fmt.Errorf("rule %s expects a %s, got a %s", name, rt, r.ResourceType())
			}
			return check(ctx, typed)
		}
	}
	return def
}

// Qualify joins a namespace and a short name.
func Qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// resourceTypeOf returns the resource type of T, or "" when T is not a
// concrete resource type.
func resourceTypeOf[T manifest.Resource]() core.ResourceType {
	var zero T
	if any(zero) == nil {
		return ""
	}
	return zero.ResourceType()
}

// configuredRule is a RuleDef with its configuration applied.
type configuredRule struct {
	def         RuleDef
	description string
	severity    core.Severity
	config      Params
	filters     []RuleFilter
}

// NewRule validates def and applies cfg. Configured filter names are not
// resolved here; see Registry.
func NewRule(def RuleDef, cfg core.RuleConfig) (Rule, error) {
	r, err := newConfiguredRule(def, cfg)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func newConfiguredRule(def RuleDef, cfg core.RuleConfig) (*configuredRule, error) {
	if def.Name == "" {
		return nil, &DefinitionError{Name: "rule", Message: "missing name"}
	}
	if def.ResourceType == "" {
		return nil, &DefinitionError{Name: def.Name, Message: "missing resource type"}
	}
	if def.Check == nil {
		return nil, &DefinitionError{Name: def.Name, Message: "missing check function"}
	}

	description := def.Description
	if cfg.Description != "" {
		description = cfg.Description
	}
	if description == "" {
		return nil, &DefinitionError{Name: def.Name, Message: "missing description"}
	}

	severity := def.Severity
	if severity == 0 {
		severity = core.DefaultSeverity
	}
	if !severity.Valid() {
		return nil, &DefinitionError{Name: def.Name, Message: fmt.Sprintf("invalid severity %d", int(severity))}
	}
	if cfg.Severity != 0 {
		if !cfg.Severity.Valid() {
			return nil, &ConfigError{Rule: def.Name, Key: "severity", Message: fmt.Sprintf("invalid severity %d", int(cfg.Severity))}
		}
		severity = cfg.Severity
	}

	config := def.Params.Clone()
	for key, value := range cfg.Params {
		if _, ok := def.Params[key]; !ok {
			return nil, &ConfigError{Rule: def.Name, Key: key, Message: "unknown rule parameter"}
		}
		config[key] = value
	}

	r := &configuredRule{
		def:         def,
		description: description,
		severity:    severity,
		config:      config,
	}

	filters := make([]RuleFilter, 0, len(def.Filters))
	for _, fd := range def.Filters {
		f, err := NewFilter(fd)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	if err := r.setFilters(filters); err != nil {
		return nil, err
	}
	return r, nil
}

// setFilters replaces the attached filters.
func (r *configuredRule) setFilters(filters []RuleFilter) error {
	for _, f := range filters {
		if f.ResourceType() != r.def.ResourceType {
			return &DefinitionError{
				Name: r.def.Name,
				Message: fmt.Sprintf("filter %s evaluates %s resources, the rule evaluates %s resources",
					f.Name(), f.ResourceType(), r.def.ResourceType),
			}
		}
	}
	r.filters = filters
	return nil
}

func (r *configuredRule) Name() string                    { return r.def.Name }
func (r *configuredRule) Description() string             { return r.description }
func (r *configuredRule) Severity() core.Severity         { return r.severity }
func (r *configuredRule) ResourceType() core.ResourceType { return r.def.ResourceType }
func (r *configuredRule) DefaultConfig() Params           { return r.def.Params.Clone() }
func (r *configuredRule) Config() Params                  { return r.config.Clone() }
func (r *configuredRule) Filters() []RuleFilter           { return r.filters }

func (r *configuredRule) ShouldEvaluate(res manifest.Resource) bool {
	if res.ResourceType() != r.def.ResourceType {
		return false
	}
	for _, f := range r.filters {
		if !f.Evaluate(res) {
			return false
		}
	}
	return true
}

func (r *configuredRule) Evaluate(g *manifest.Graph, res manifest.Resource) (*Violation, error) {
	return r.def.Check(&Context{Graph: g, Params: r.config, Rule: r.def.Name}, res)
}
