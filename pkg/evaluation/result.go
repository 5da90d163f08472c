package evaluation

import (
	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
	"github.com/leapstack-labs/dbtscore/pkg/scoring"
)

// ResourceResult holds the outcomes and score of one resource.
type ResourceResult struct {
	Resource manifest.Resource
	// Outcomes are in rule order and only hold rules that applied.
	Outcomes []lint.Outcome
	Score    scoring.Score
}

// Result is the result of an evaluation.
type Result struct {
	// Resources are in graph order.
	Resources []ResourceResult
	Project   scoring.Score
}

// Thresholds are the minimum scores a run must reach.
type Thresholds struct {
	FailProjectUnder float64
	FailAnyItemUnder float64
}

// ProjectFails reports whether the project score is under its threshold.
func (r *Result) ProjectFails(th Thresholds) bool {
	return r.Project.Value < th.FailProjectUnder
}

// Failing returns the resources scoring under the item threshold.
func (r *Result) Failing(th Thresholds) []ResourceResult {
	var out []ResourceResult
	for _, rr := range r.Resources {
		if rr.Score.Value < th.FailAnyItemUnder {
			out = append(out, rr)
		}
	}
	return out
}

// Passes reports whether neither threshold is crossed.
func (r *Result) Passes(th Thresholds) bool {
	return !r.ProjectFails(th) && len(r.Failing(th)) == 0
}
