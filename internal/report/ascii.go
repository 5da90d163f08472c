package report

import (
	"fmt"
	"io"

	"github.com/leapstack-labs/dbtscore/pkg/core"
	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
	"github.com/leapstack-labs/dbtscore/pkg/scoring"
)

const asciiFirst = `
    .-=========-.
    \'-=======-'/
    _|   .=.   |_
   ((|  {{1}}  |))
    \|   /|\   |/
     \__ '-' __/
       _'' ''_
      |_______|
`

const asciiSecond = `
    .-=========-.
    \'-=======-'/
    _|   .=.   |_
   ((|  {{2}}  |))
    \|   /|\   |/
     \__ '-' __/
       _'' ''_
      |_______|
`

const asciiThird = `
    .-=========-.
    \'-=======-'/
    _|   .=.   |_
   ((|  {{3}}  |))
    \|   /|\   |/
     \__ '-' __/
       _'' ''_
      |_______|
`

const asciiWIP = `
     ___________
    |  _______  |
    | |  WIP  | |
    | |_______| |
    |___________|
       /     \
      /_______\
`

// ASCII prints the project badge as ASCII art.
type ASCII struct {
	w   *errWriter
	cfg Config
}

// NewASCII creates the ascii formatter.
func NewASCII(w io.Writer, cfg Config) *ASCII {
	if cfg.Badges == (core.BadgeConfig{}) {
		cfg.Badges = core.DefaultBadgeConfig()
	}
	return &ASCII{w: &errWriter{w: w}, cfg: cfg}
}

// ResourceEvaluated implements evaluation.Reporter. Resources are not printed.
func (a *ASCII) ResourceEvaluated(manifest.Resource, []lint.Outcome, scoring.Score) {}

// ProjectEvaluated implements evaluation.Reporter.
func (a *ASCII) ProjectEvaluated(score scoring.Score) {
	b := a.cfg.Badges
	art := asciiWIP
	switch {
	case score.Value >= b.First.Threshold:
		art = asciiFirst
	case score.Value >= b.Second.Threshold:
		art = asciiSecond
	case score.Value >= b.Third.Threshold:
		art = asciiThird
	}
	_, _ = fmt.Fprint(a.w, art)
	_, _ = fmt.Fprintf(a.w, "\nProject score: %s %s\n", score, score.Badge)
}

// Err implements Formatter.
func (a *ASCII) Err() error { return a.w.err }

var _ Formatter = (*ASCII)(nil)
