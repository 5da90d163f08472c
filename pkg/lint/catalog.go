package lint

import (
	"cmp"
	"slices"
	"strings"
	"sync"
)

// Definitions are the rule and filter definitions found in a namespace.
type Definitions struct {
	Rules   []RuleDef
	Filters []FilterDef
}

// Len returns the number of definitions.
func (d Definitions) Len() int {
	return len(d.Rules) + len(d.Filters)
}

// Catalog resolves namespaces to definitions.
type Catalog interface {
	// Lookup returns the definitions in namespace and its sub-namespaces,
	// sorted by qualified name within each namespace. found is false when
	// the catalog does not know the namespace.
	Lookup(namespace string) (defs Definitions, found bool, err error)
}

// StaticCatalog holds definitions registered in Go.
type StaticCatalog struct {
	mu      sync.RWMutex
	rules   map[string]RuleDef
	filters map[string]FilterDef
}

// NewStaticCatalog creates an empty catalog.
func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{
		rules:   make(map[string]RuleDef),
		filters: make(map[string]FilterDef),
	}
}

// AddRule adds a rule definition.
func (c *StaticCatalog) AddRule(def RuleDef) error {
	if def.Name == "" {
		return &DefinitionError{Name: "rule", Message: "missing name"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rules[def.Name]; ok {
		return &DuplicateError{Kind: "rule", Name: def.Name}
	}
	c.rules[def.Name] = def
	return nil
}

// AddFilter adds a filter definition.
func (c *StaticCatalog) AddFilter(def FilterDef) error {
	if def.Name == "" {
		return &DefinitionError{Name: "filter", Message: "missing name"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.filters[def.Name]; ok {
		return &DuplicateError{Kind: "filter", Name: def.Name}
	}
	c.filters[def.Name] = def
	return nil
}

// Lookup implements Catalog.
func (c *StaticCatalog) Lookup(namespace string) (Definitions, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var defs Definitions
	for _, def := range c.rules {
		if inNamespace(def.Namespace, namespace) {
			defs.Rules = append(defs.Rules, def)
		}
	}
	for _, def := range c.filters {
		if inNamespace(def.Namespace, namespace) {
			defs.Filters = append(defs.Filters, def)
		}
	}

	slices.SortFunc(defs.Rules, func(a, b RuleDef) int {
		return cmp.Or(cmp.Compare(a.Namespace, b.Namespace), cmp.Compare(a.Name, b.Name))
	})
	slices.SortFunc(defs.Filters, func(a, b FilterDef) int {
		return cmp.Or(cmp.Compare(a.Namespace, b.Namespace), cmp.Compare(a.Name, b.Name))
	})
	return defs, defs.Len() > 0, nil
}

// Count returns the number of registered rules.
func (c *StaticCatalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rules)
}

// Clear removes all definitions. Used for testing.
func (c *StaticCatalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = make(map[string]RuleDef)
	c.filters = make(map[string]FilterDef)
}

func inNamespace(defNamespace, namespace string) bool {
	return defNamespace == namespace || strings.HasPrefix(defNamespace, namespace+".")
}

// builtins is the catalog of rules shipped with the binary.
var builtins = NewStaticCatalog()

// RegisterRule adds a rule to the built-in catalog.
// Call this from init() functions in rule packages.
func RegisterRule(def RuleDef) {
	if err := builtins.AddRule(def); err != nil {
		panic(err)
	}
}

// RegisterFilter adds a filter to the built-in catalog.
// Call this from init() functions in rule packages.
func RegisterFilter(def FilterDef) {
	if err := builtins.AddFilter(def); err != nil {
		panic(err)
	}
}

// Builtins returns the built-in catalog.
func Builtins() *StaticCatalog {
	return builtins
}
