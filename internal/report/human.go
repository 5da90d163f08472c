package report

import (
	"github.com/leapstack-labs/dbtscore/internal/cli/output"
	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
	"github.com/leapstack-labs/dbtscore/pkg/scoring"
)

const indent = "    "

type failedItem struct {
	resource manifest.Resource
	score    scoring.Score
}

// Human prints results for people reading a terminal.
type Human struct {
	r      *output.Renderer
	cfg    Config
	failed []failedItem
}

// NewHuman creates the plain formatter.
func NewHuman(r *output.Renderer, cfg Config) *Human {
	if cfg.Show == "" {
		cfg.Show = ShowFailingRules
	}
	return &Human{r: r, cfg: cfg}
}

// ResourceEvaluated implements evaluation.Reporter.
func (h *Human) ResourceEvaluated(res manifest.Resource, outcomes []lint.Outcome, score scoring.Score) {
	failing := score.Value < h.cfg.Thresholds.FailAnyItemUnder
	if failing {
		h.failed = append(h.failed, failedItem{resource: res, score: score})
	}
	if h.cfg.Show == ShowFailingItems && !failing {
		return
	}

	s := h.r.Styles()
	h.r.Printf("%s %s (score: %s)\n", score.Badge, s.Bold.Render(DisplayName(res)), score)
	for _, o := range outcomes {
		switch o.Kind() {
		case lint.OutcomePass:
			if h.cfg.Show == ShowFailingRules {
				continue
			}
			h.r.Printf("%s%s %s\n", indent, s.Success.Bold(true).Render("OK  "), o.Rule.Name())
		case lint.OutcomeViolation:
			h.r.Printf("%s%s (%s) %s: %s\n", indent, s.Warning.Bold(true).Render("WARN"),
				o.Rule.Severity(), o.Rule.Name(), o.Message())
		case lint.OutcomeError:
			h.r.Printf("%s%s %s: %s\n", indent, s.Error.Bold(true).Render("ERR "), o.Rule.Name(), o.Message())
		}
	}
	h.r.Println()
}

// ProjectEvaluated implements evaluation.Reporter.
func (h *Human) ProjectEvaluated(score scoring.Score) {
	h.r.Printf("Project score: %s %s\n", h.r.Styles().Bold.Render(score.String()), score.Badge)

	th := h.cfg.Thresholds
	switch {
	case len(h.failed) > 0:
		h.r.Println()
		h.r.Printf("Error: item score too low, fail_any_item_under = %.1f\n", th.FailAnyItemUnder)
		for _, f := range h.failed {
			h.r.Printf("%s%s %s scored %s\n", indent, TypeLabel(f.resource.ResourceType()), DisplayName(f.resource), f.score)
		}
	case score.Value < th.FailProjectUnder:
		h.r.Println()
		h.r.Printf("Error: project score too low, fail_project_under = %.1f\n", th.FailProjectUnder)
	}
}

// Err implements Formatter. The renderer swallows write errors.
func (h *Human) Err() error { return nil }

var _ Formatter = (*Human)(nil)
