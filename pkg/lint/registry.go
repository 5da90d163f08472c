package lint

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/dbtscore/pkg/core"
)

const (
	// BuiltinNamespace holds the rules shipped with the binary.
	BuiltinNamespace = "dbt_score.rules"
	// DefaultUserNamespace is where project rules live by default. It is
	// not an error for it to be absent.
	DefaultUserNamespace = "dbt_score_rules"
)

// DefaultNamespaces returns the namespaces loaded when none are configured.
func DefaultNamespaces() []string {
	return []string{BuiltinNamespace, DefaultUserNamespace}
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// Namespaces are loaded in order by LoadAll.
	Namespaces []string
	// Disabled rules are discovered but never instantiated.
	Disabled []string
	// Rules holds per-rule configuration keyed by qualified name.
	Rules map[string]core.RuleConfig
	// Logger defaults to a discard logger.
	Logger *slog.Logger
}

// Registry discovers and configures rules and filters.
type Registry struct {
	cfg      RegistryConfig
	catalogs []Catalog
	logger   *slog.Logger

	rules       []*configuredRule
	byName      map[string]*configuredRule
	seen        map[string]bool
	filters     map[string]RuleFilter
	filterOrder []string
	disabled    map[string]bool
}

// NewRegistry creates a registry over catalogs, consulted in order.
func NewRegistry(cfg RegistryConfig, catalogs ...Catalog) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(cfg.Namespaces) == 0 {
		cfg.Namespaces = DefaultNamespaces()
	}
	disabled := make(map[string]bool, len(cfg.Disabled))
	for _, name := range cfg.Disabled {
		disabled[name] = true
	}
	return &Registry{
		cfg:      cfg,
		catalogs: catalogs,
		logger:   logger,
		byName:   make(map[string]*configuredRule),
		seen:     make(map[string]bool),
		filters:  make(map[string]RuleFilter),
		disabled: disabled,
	}
}

// LoadAll loads every configured namespace, then wires configured filters.
func (r *Registry) LoadAll() error {
	for _, ns := range r.cfg.Namespaces {
		if err := r.load(ns); err != nil {
			return err
		}
	}
	return r.wireFilters()
}

// Load loads one namespace and its sub-namespaces. Loading a namespace
// twice reports its rules as duplicates.
func (r *Registry) Load(namespace string) error {
	if err := r.load(namespace); err != nil {
		return err
	}
	return r.wireFilters()
}

func (r *Registry) load(namespace string) error {
	found := false
	for _, c := range r.catalogs {
		defs, ok, err := c.Lookup(namespace)
		if err != nil {
			return fmt.Errorf("loading namespace %s: %w", namespace, err)
		}
		if !ok {
			continue
		}
		found = true
		if err := r.add(defs); err != nil {
			return err
		}
	}

	if !found && namespace != DefaultUserNamespace {
		r.logger.Warn("rule namespace not found", slog.String("namespace", namespace))
	}
	return nil
}

// add registers the definitions of one namespace. Duplicate rules are
// reported before duplicate filters.
func (r *Registry) add(defs Definitions) error {
	for _, def := range defs.Rules {
		if r.seen[def.Name] {
			return &DuplicateError{Kind: "rule", Name: def.Name}
		}
	}

	for _, fd := range defs.Filters {
		if _, ok := r.filters[fd.Name]; ok {
			return &DuplicateError{Kind: "filter", Name: fd.Name}
		}
		f, err := NewFilter(fd)
		if err != nil {
			return err
		}
		r.filters[fd.Name] = f
		r.filterOrder = append(r.filterOrder, fd.Name)
	}

	for _, def := range defs.Rules {
		if r.seen[def.Name] {
			return &DuplicateError{Kind: "rule", Name: def.Name}
		}
		r.seen[def.Name] = true
		if r.disabled[def.Name] {
			r.logger.Debug("rule disabled", slog.String("rule", def.Name))
			continue
		}
		rule, err := newConfiguredRule(def, r.cfg.Rules[def.Name])
		if err != nil {
			return err
		}
		r.rules = append(r.rules, rule)
		r.byName[def.Name] = rule
		r.logger.Debug("rule loaded", slog.String("rule", def.Name), slog.String("severity", rule.Severity().String()))
	}
	return nil
}

// wireFilters replaces definition-time filters with configured ones. An
// empty filter list keeps the rule's own filters.
func (r *Registry) wireFilters() error {
	for _, rule := range r.rules {
		names := r.cfg.Rules[rule.Name()].FilterNames
		if len(names) == 0 {
			continue
		}
		filters := make([]RuleFilter, 0, len(names))
		for _, name := range names {
			f, ok := r.filters[name]
			if !ok {
				return &ConfigError{Rule: rule.Name(), Key: "rule_filter_names", Message: fmt.Sprintf("unknown filter %s", name)}
			}
			filters = append(filters, f)
		}
		if err := rule.setFilters(filters); err != nil {
			return err
		}
	}
	return nil
}

// Rules returns the loaded rules in discovery order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	for i, rule := range r.rules {
		out[i] = rule
	}
	return out
}

// Rule returns a loaded rule by qualified name.
func (r *Registry) Rule(name string) (Rule, bool) {
	rule, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return rule, true
}

// Filters returns the loaded filters in discovery order.
func (r *Registry) Filters() []RuleFilter {
	out := make([]RuleFilter, 0, len(r.filterOrder))
	for _, name := range r.filterOrder {
		out = append(out, r.filters[name])
	}
	return out
}

// Namespaces returns the namespaces loaded by LoadAll.
func (r *Registry) Namespaces() []string {
	return slices.Clone(r.cfg.Namespaces)
}
