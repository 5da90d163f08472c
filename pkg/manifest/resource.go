// Package manifest loads a dbt manifest into a read-only graph of typed resources.
//
// Resources live in an arena indexed by unique id. Parent and child links are
// stored as ids and resolved through the Graph at lookup time.
package manifest

import (
	"fmt"

	"github.com/leapstack-labs/dbtscore/pkg/core"
)

// Resource is an evaluable manifest entity.
type Resource interface {
	GetUniqueID() string
	GetName() string
	ResourceType() core.ResourceType
	// Common returns the attributes shared by every resource type.
	Common() *Node
}

// Node holds the attributes shared by every resource type.
type Node struct {
	UniqueID         string
	Name             string
	Description      string
	PackageName      string
	OriginalFilePath string
	Config           map[string]any
	Meta             map[string]any
	Tags             []string
	// DependsOn lists the unique ids this resource depends on, unresolved.
	DependsOn []string

	parents  []string
	children []string
}

// GetUniqueID returns the globally unique id.
func (n *Node) GetUniqueID() string { return n.UniqueID }

// GetName returns the human-facing name.
func (n *Node) GetName() string { return n.Name }

// Common returns n.
func (n *Node) Common() *Node { return n }

// Parents returns the ids of the in-project resources n depends on.
func (n *Node) Parents() []string { return n.parents }

// Children returns the ids of the in-project resources depending on n.
func (n *Node) Children() []string { return n.children }

// HasConfig reports whether the config key is set to a non-empty value.
func (n *Node) HasConfig(key string) bool {
	return IsSet(n.Config[key])
}

// ConfigString returns a config value as a string, or "" when unset.
func (n *Node) ConfigString(key string) string {
	v, ok := n.Config[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// IsSet reports whether a decoded JSON value is non-empty.
func IsSet(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	case []any:
		return len(val) > 0
	case []string:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

// Constraint is a column or table constraint.
type Constraint struct {
	Type       string
	Name       string
	Expression string
	// Columns is set for table-level constraints.
	Columns []string
}

// Test is a data test attached to a resource or to one of its columns.
type Test struct {
	Name   string
	Type   string
	Kwargs map[string]any
	Tags   []string
}

// Column is a column of a model, source, seed or snapshot.
type Column struct {
	Name        string
	Description string
	DataType    string
	Constraints []Constraint
	Tests       []Test
	Tags        []string
	Meta        map[string]any
}

func findColumn(columns []Column, name string) *Column {
	for i := range columns {
		if columns[i].Name == name {
			return &columns[i]
		}
	}
	return nil
}

// Model is a dbt model.
type Model struct {
	Node
	RelationName  string
	PatchPath     string
	Database      string
	Schema        string
	Alias         string
	Group         string
	Access        string
	Language      string
	RawCode       string
	Version       string
	LatestVersion string
	Columns       []Column
	Constraints   []Constraint
	Tests         []Test
}

// ResourceType implements Resource.
func (*Model) ResourceType() core.ResourceType { return core.ResourceModel }

// Materialization returns config.materialized.
func (m *Model) Materialization() string { return m.ConfigString("materialized") }

// Column returns the named column, or nil.
func (m *Model) Column(name string) *Column { return findColumn(m.Columns, name) }

// Source is a dbt source table.
type Source struct {
	Node
	SourceName    string
	Identifier    string
	Loader        string
	RelationName  string
	Database      string
	Schema        string
	LoadedAtField string
	Freshness     map[string]any
	Columns       []Column
	Tests         []Test
}

// ResourceType implements Resource.
func (*Source) ResourceType() core.ResourceType { return core.ResourceSource }

// SelectorName returns the name used by dbt selectors, "source_name.name".
func (s *Source) SelectorName() string { return s.SourceName + "." + s.Name }

// Column returns the named column, or nil.
func (s *Source) Column(name string) *Column { return findColumn(s.Columns, name) }

// Seed is a dbt seed.
type Seed struct {
	Node
	RelationName string
	PatchPath    string
	Database     string
	Schema       string
	Alias        string
	Group        string
	Columns      []Column
	Tests        []Test
}

// ResourceType implements Resource.
func (*Seed) ResourceType() core.ResourceType { return core.ResourceSeed }

// Column returns the named column, or nil.
func (s *Seed) Column(name string) *Column { return findColumn(s.Columns, name) }

// Snapshot is a dbt snapshot.
type Snapshot struct {
	Node
	RelationName string
	PatchPath    string
	Database     string
	Schema       string
	Alias        string
	Group        string
	Language     string
	RawCode      string
	Columns      []Column
	Constraints  []Constraint
	Tests        []Test
}

// ResourceType implements Resource.
func (*Snapshot) ResourceType() core.ResourceType { return core.ResourceSnapshot }

// Strategy returns config.strategy.
func (s *Snapshot) Strategy() string { return s.ConfigString("strategy") }

// Column returns the named column, or nil.
func (s *Snapshot) Column(name string) *Column { return findColumn(s.Columns, name) }

// ExposureOwner identifies who owns an exposure.
type ExposureOwner struct {
	Name  string
	Email string
}

// Exposure is a downstream use of the project (dashboard, application...).
type Exposure struct {
	Node
	Label    string
	Type     string
	Maturity string
	URL      string
	Owner    ExposureOwner
}

// ResourceType implements Resource.
func (*Exposure) ResourceType() core.ResourceType { return core.ResourceExposure }

// MacroArgument is a documented macro argument.
type MacroArgument struct {
	Name        string
	Type        string
	Description string
}

// Macro is a dbt macro.
type Macro struct {
	Node
	Path      string
	MacroSQL  string
	Arguments []MacroArgument
}

// ResourceType implements Resource.
func (*Macro) ResourceType() core.ResourceType { return core.ResourceMacro }
