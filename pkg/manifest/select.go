package manifest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Lister resolves selector expressions into resource names, typically by
// asking dbt.
type Lister interface {
	List(ctx context.Context, selectors []string) ([]string, error)
}

// ErrNoLister is returned when advanced selectors are used without a Lister.
var ErrNoLister = errors.New("advanced selectors require dbt")

var bareName = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// IsSimpleSelection reports whether every selector is a bare resource name.
func IsSimpleSelection(selectors []string) bool {
	for _, s := range selectors {
		if !bareName.MatchString(s) {
			return false
		}
	}
	return true
}

// Select restricts the evaluable resources to those named by the selectors.
// Bare names are matched locally; anything else is resolved through lister.
// An empty selector list returns g unchanged.
func (g *Graph) Select(ctx context.Context, selectors []string, lister Lister) (*Graph, error) {
	if len(selectors) == 0 {
		return g, nil
	}

	names := selectors
	if !IsSimpleSelection(selectors) {
		if lister == nil {
			return nil, ErrNoLister
		}
		resolved, err := lister.List(ctx, selectors)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve selection: %w", err)
		}
		names = resolved
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	return g.filter(func(r Resource) bool {
		if s, ok := r.(*Source); ok && wanted[s.SelectorName()] {
			return true
		}
		return wanted[r.GetName()]
	}), nil
}
