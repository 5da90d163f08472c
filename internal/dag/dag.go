// Package dag provides the dependency index of a manifest.
// It stores edges between resource ids only; resources themselves live in the
// arena that owns the index.
package dag

import (
	"fmt"
	"slices"
	"sort"
)

// Graph is a directed graph keyed by unique id.
type Graph struct {
	nodes   map[string]struct{}
	edges   map[string][]string // parent -> children (dependents)
	parents map[string][]string // child -> parents (dependencies)
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]struct{}),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a node to the graph. Adding an existing node is a no-op.
func (g *Graph) AddNode(id string) {
	if _, exists := g.nodes[id]; exists {
		return
	}
	g.nodes[id] = struct{}{}
	g.edges[id] = []string{}
	g.parents[id] = []string{}
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// AddEdge adds a directed edge from parent to child (child depends on parent).
func (g *Graph) AddEdge(parentID, childID string) error {
	if !g.Has(parentID) {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if !g.Has(childID) {
		return fmt.Errorf("child node %q does not exist", childID)
	}
	if parentID == childID {
		return fmt.Errorf("self-loop detected: %s", parentID)
	}

	// Edges are sets
	if !slices.Contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !slices.Contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// Parents returns the direct dependencies of a node, sorted.
func (g *Graph) Parents(id string) []string {
	return sorted(g.parents[id])
}

// Children returns the direct dependents of a node, sorted.
func (g *Graph) Children(id string) []string {
	return sorted(g.edges[id])
}

// Upstream returns every transitive dependency of a node, sorted.
func (g *Graph) Upstream(id string) []string {
	return g.walk(id, g.parents)
}

// Downstream returns every transitive dependent of a node, sorted.
func (g *Graph) Downstream(id string) []string {
	return g.walk(id, g.edges)
}

func (g *Graph) walk(id string, next map[string][]string) []string {
	seen := make(map[string]bool)

	var mark func(nodeID string)
	mark = func(nodeID string) {
		for _, n := range next[nodeID] {
			if !seen[n] {
				seen[n] = true
				mark(n)
			}
		}
	}
	mark(id)

	result := make([]string, 0, len(seen))
	for n := range seen {
		result = append(result, n)
	}
	sort.Strings(result)
	return result
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

func sorted(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}
