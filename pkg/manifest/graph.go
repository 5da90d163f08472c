package manifest

import (
	"fmt"
	"slices"
	"sort"

	"github.com/leapstack-labs/dbtscore/internal/dag"
	"github.com/leapstack-labs/dbtscore/pkg/core"
)

// Graph is the read-only arena of resources of one project.
type Graph struct {
	projectName string
	raw         []byte
	resources   map[string]Resource
	index       *dag.Graph
	// order holds the evaluable ids in evaluation order
	order []string
}

// NewGraph builds a graph from resources and resolves their dependencies.
// Dependencies on ids outside the graph are skipped.
func NewGraph(projectName string, resources ...Resource) (*Graph, error) {
	g := &Graph{
		projectName: projectName,
		resources:   make(map[string]Resource, len(resources)),
		index:       dag.NewGraph(),
	}

	// First pass: materialize every resource.
	for _, r := range resources {
		id := r.GetUniqueID()
		if id == "" {
			return nil, fmt.Errorf("resource %q has no unique id", r.GetName())
		}
		if _, exists := g.resources[id]; exists {
			return nil, fmt.Errorf("duplicate resource id %q", id)
		}
		g.resources[id] = r
		g.index.AddNode(id)
		g.order = append(g.order, id)
	}

	// Second pass: resolve edges now that every id is known.
	for _, r := range resources {
		for _, parentID := range r.Common().DependsOn {
			if !g.index.Has(parentID) || parentID == r.GetUniqueID() {
				continue
			}
			if err := g.index.AddEdge(parentID, r.GetUniqueID()); err != nil {
				return nil, err
			}
		}
	}
	for id, r := range g.resources {
		n := r.Common()
		n.parents = g.index.Parents(id)
		n.children = g.index.Children(id)
	}

	rank := make(map[core.ResourceType]int, len(core.ResourceTypes))
	for i, t := range core.ResourceTypes {
		rank[t] = i
	}
	sort.SliceStable(g.order, func(i, j int) bool {
		a, b := g.resources[g.order[i]], g.resources[g.order[j]]
		if rank[a.ResourceType()] != rank[b.ResourceType()] {
			return rank[a.ResourceType()] < rank[b.ResourceType()]
		}
		return a.GetUniqueID() < b.GetUniqueID()
	})

	return g, nil
}

// ProjectName returns the name of the project the resources belong to.
func (g *Graph) ProjectName() string { return g.projectName }

// Raw returns the manifest document the graph was loaded from, if any.
func (g *Graph) Raw() []byte { return g.raw }

// Get returns a resource by unique id, selected or not.
func (g *Graph) Get(id string) (Resource, bool) {
	r, ok := g.resources[id]
	return r, ok
}

// Resources returns the evaluable resources in evaluation order:
// models, sources, snapshots, seeds, exposures then macros, each by unique id.
func (g *Graph) Resources() []Resource {
	out := make([]Resource, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.resources[id])
	}
	return out
}

// Len returns the number of evaluable resources.
func (g *Graph) Len() int { return len(g.order) }

// Parents resolves the direct dependencies of r.
func (g *Graph) Parents(r Resource) []Resource {
	return g.lookup(r.Common().Parents())
}

// Children resolves the direct dependents of r.
func (g *Graph) Children(r Resource) []Resource {
	return g.lookup(r.Common().Children())
}

// Upstream resolves every transitive dependency of r.
func (g *Graph) Upstream(r Resource) []Resource {
	return g.lookup(g.index.Upstream(r.GetUniqueID()))
}

// Downstream resolves every transitive dependent of r.
func (g *Graph) Downstream(r Resource) []Resource {
	return g.lookup(g.index.Downstream(r.GetUniqueID()))
}

func (g *Graph) lookup(ids []string) []Resource {
	out := make([]Resource, 0, len(ids))
	for _, id := range ids {
		if r, ok := g.resources[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Models returns the evaluable models.
func (g *Graph) Models() []*Model { return ofType[*Model](g) }

// Sources returns the evaluable sources.
func (g *Graph) Sources() []*Source { return ofType[*Source](g) }

// Snapshots returns the evaluable snapshots.
func (g *Graph) Snapshots() []*Snapshot { return ofType[*Snapshot](g) }

// Seeds returns the evaluable seeds.
func (g *Graph) Seeds() []*Seed { return ofType[*Seed](g) }

// Exposures returns the evaluable exposures.
func (g *Graph) Exposures() []*Exposure { return ofType[*Exposure](g) }

// Macros returns the evaluable macros.
func (g *Graph) Macros() []*Macro { return ofType[*Macro](g) }

func ofType[T Resource](g *Graph) []T {
	var out []T
	for _, id := range g.order {
		if r, ok := g.resources[id].(T); ok {
			out = append(out, r)
		}
	}
	return out
}

// filter returns a graph sharing g's arena whose evaluable set is restricted
// to the resources matching keep.
func (g *Graph) filter(keep func(Resource) bool) *Graph {
	sub := *g
	sub.order = slices.DeleteFunc(slices.Clone(g.order), func(id string) bool {
		return !keep(g.resources[id])
	})
	return &sub
}
