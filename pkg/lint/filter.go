package lint

import (
	"github.com/leapstack-labs/dbtscore/pkg/core"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
)

// RuleFilter decides whether a rule applies to a resource.
type RuleFilter interface {
	// Name returns the fully qualified name, used as identity.
	Name() string
	Description() string
	ResourceType() core.ResourceType
	// Evaluate returns true if the rule should run on r.
	Evaluate(r manifest.Resource) bool
}

// FilterSpec describes a filter declared with DefineFilter.
type FilterSpec struct {
	Name        string
	Description string
}

// FilterDef is a filter definition.
type FilterDef struct {
	Namespace    string
	Name         string
	Description  string
	ResourceType core.ResourceType
	Predicate    func(r manifest.Resource) bool
}

// DefineFilter builds a filter definition from a typed predicate.
func DefineFilter[T manifest.Resource](namespace string, spec FilterSpec, predicate func(T) bool) FilterDef {
	def := FilterDef{
		Namespace:    namespace,
		Name:         Qualify(namespace, spec.Name),
		Description:  spec.Description,
		ResourceType: resourceTypeOf[T](),
	}
	if predicate != nil {
		def.Predicate = func(r manifest.Resource) bool {
			typed, ok := r.(T)
			return ok && predicate(typed)
		}
	}
	return def
}

type filter struct {
	def FilterDef
}

// NewFilter validates def and returns the filter it describes.
func NewFilter(def FilterDef) (RuleFilter, error) {
	switch {
	case def.Name == "":
		return nil, &DefinitionError{Name: "filter", Message: "missing name"}
	case def.ResourceType == "":
		return nil, &DefinitionError{Name: def.Name, Message: "missing resource type"}
	case def.Predicate == nil:
		return nil, &DefinitionError{Name: def.Name, Message: "missing predicate"}
	case def.Description == "":
		return nil, &DefinitionError{Name: def.Name, Message: "missing description"}
	}
	return &filter{def: def}, nil
}

func (f *filter) Name() string                      { return f.def.Name }
func (f *filter) Description() string               { return f.def.Description }
func (f *filter) ResourceType() core.ResourceType   { return f.def.ResourceType }
func (f *filter) Evaluate(r manifest.Resource) bool { return f.def.Predicate(r) }
