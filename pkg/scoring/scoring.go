// Package scoring turns rule outcomes into scores and badges.
//
// A resource scores MaxScore when every rule passes. A violation of a rule
// of severity s keeps 3-s points out of 3 for that rule, so low, medium and
// high violations are worth 2/3, 1/3 and 0/3. A critical violation sets the
// resource score to zero. Rules that failed to run count as passed.
package scoring

import (
	"fmt"
	"math"

	"github.com/leapstack-labs/dbtscore/pkg/core"
	"github.com/leapstack-labs/dbtscore/pkg/lint"
)

// cardinality is the number of points a single rule is worth.
const cardinality = 3

// Score is a score value and the badge it earned.
type Score struct {
	Value float64
	Badge string
}

// Rounded returns the value floored to one decimal, so that 9.99 is never
// displayed as a perfect 10.0.
func (s Score) Rounded() float64 {
	return math.Floor(s.Value*10) / 10
}

// String formats the rounded value with one decimal.
func (s Score) String() string {
	return fmt.Sprintf("%.1f", s.Rounded())
}

// Scorer computes scores for resources and projects.
type Scorer struct {
	badges core.BadgeConfig
}

// New creates a Scorer. The badge configuration is validated here so that
// invalid thresholds are reported before any evaluation.
func New(badges core.BadgeConfig) (*Scorer, error) {
	if err := badges.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{badges: badges}, nil
}

// ScoreResource scores the outcomes of every rule run on one resource.
func (s *Scorer) ScoreResource(outcomes []lint.Outcome) Score {
	if len(outcomes) == 0 {
		return s.score(core.MaxScore)
	}

	points := 0
	for _, o := range outcomes {
		if o.Kind() != lint.OutcomeViolation {
			points += cardinality
			continue
		}
		sev := o.Rule.Severity()
		if sev == core.SeverityCritical {
			return s.score(0)
		}
		points += cardinality - int(sev)
	}

	return s.score(float64(points) / float64(cardinality*len(outcomes)) * core.MaxScore)
}

// Aggregate computes the project score from resource scores: the mean, or
// zero as soon as one resource scored zero.
func (s *Scorer) Aggregate(scores []Score) Score {
	if len(scores) == 0 {
		return s.score(core.MaxScore)
	}

	var sum float64
	for _, sc := range scores {
		if sc.Value == 0 {
			return s.score(0)
		}
		sum += sc.Value
	}
	return s.score(sum / float64(len(scores)))
}

// Badge returns the icon of the highest tier value reaches.
func (s *Scorer) Badge(value float64) string {
	switch {
	case value >= s.badges.First.Threshold:
		return s.badges.First.Icon
	case value >= s.badges.Second.Threshold:
		return s.badges.Second.Icon
	case value >= s.badges.Third.Threshold:
		return s.badges.Third.Icon
	default:
		return s.badges.WIP.Icon
	}
}

func (s *Scorer) score(value float64) Score {
	return Score{Value: value, Badge: s.Badge(value)}
}
