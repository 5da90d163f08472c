// Package evaluation runs rules over a manifest graph and scores the results.
package evaluation

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
	"github.com/leapstack-labs/dbtscore/pkg/scoring"
)

// RuleSource provides the rules to run, in order.
type RuleSource interface {
	Rules() []lint.Rule
}

// Scorer turns outcomes into scores.
type Scorer interface {
	ScoreResource(outcomes []lint.Outcome) scoring.Score
	Aggregate(scores []scoring.Score) scoring.Score
}

// Reporter receives evaluation events.
type Reporter interface {
	// ResourceEvaluated is called once per resource, in graph order.
	ResourceEvaluated(r manifest.Resource, outcomes []lint.Outcome, score scoring.Score)
	// ProjectEvaluated is called once, after every resource.
	ProjectEvaluated(score scoring.Score)
}

// FilterError is returned when a filter panics. It aborts the evaluation.
type FilterError struct {
	Rule     string
	Resource string
	Value    any
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter of rule %s failed on %s: %v", e.Rule, e.Resource, e.Value)
}

// Option configures an Evaluation.
type Option func(*Evaluation)

// WithWorkers evaluates up to n resources concurrently. Events are still
// reported in graph order.
func WithWorkers(n int) Option {
	return func(e *Evaluation) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluation) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Evaluation evaluates every rule on every resource of a graph.
type Evaluation struct {
	rules    RuleSource
	graph    *manifest.Graph
	scorer   Scorer
	reporter Reporter
	workers  int
	logger   *slog.Logger
}

// New creates an Evaluation.
func New(rules RuleSource, graph *manifest.Graph, scorer Scorer, reporter Reporter, opts ...Option) *Evaluation {
	e := &Evaluation{
		rules:    rules,
		graph:    graph,
		scorer:   scorer,
		reporter: reporter,
		workers:  1,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run evaluates the graph. Rule errors and panics are recorded in the
// outcomes; only a failing filter or a cancelled context stop the run.
func (e *Evaluation) Run(ctx context.Context) (*Result, error) {
	rules := e.rules.Rules()
	resources := e.graph.Resources()

	e.logger.Debug("starting evaluation",
		slog.Int("resources", len(resources)),
		slog.Int("rules", len(rules)),
		slog.Int("workers", e.workers))

	outcomes := make([][]lint.Outcome, len(resources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, res := range resources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := e.evaluateResource(rules, res)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Resources: make([]ResourceResult, 0, len(resources))}
	scores := make([]scoring.Score, 0, len(resources))
	for i, res := range resources {
		score := e.scorer.ScoreResource(outcomes[i])
		result.Resources = append(result.Resources, ResourceResult{
			Resource: res,
			Outcomes: outcomes[i],
			Score:    score,
		})
		scores = append(scores, score)
		if e.reporter != nil {
			e.reporter.ResourceEvaluated(res, outcomes[i], score)
		}
	}

	result.Project = e.scorer.Aggregate(scores)
	if e.reporter != nil {
		e.reporter.ProjectEvaluated(result.Project)
	}

	e.logger.Debug("evaluation complete", slog.Float64("project_score", result.Project.Value))
	return result, nil
}

func (e *Evaluation) evaluateResource(rules []lint.Rule, res manifest.Resource) ([]lint.Outcome, error) {
	var outcomes []lint.Outcome
	for _, rule := range rules {
		ok, err := shouldEvaluate(rule, res)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		outcome := e.evaluateRule(rule, res)
		if outcome.Err != nil {
			e.logger.Debug("rule failed",
				slog.String("rule", rule.Name()),
				slog.String("resource", res.GetUniqueID()),
				slog.String("error", outcome.Err.Error()))
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// shouldEvaluate runs the rule's resource type check and filters.
func shouldEvaluate(rule lint.Rule, res manifest.Resource) (ok bool, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &FilterError{Rule: rule.Name(), Resource: res.GetUniqueID(), Value: v}
		}
	}()
	return rule.ShouldEvaluate(res), nil
}

func (e *Evaluation) evaluateRule(rule lint.Rule, res manifest.Resource) (outcome lint.Outcome) {
	outcome.Rule = rule
	defer func() {
		if v := recover(); v != nil {
			outcome.Violation = nil
			outcome.Err = fmt.Errorf("rule panicked: %v", v)
		}
	}()
	outcome.Violation, outcome.Err = rule.Evaluate(e.graph, res)
	return outcome
}
