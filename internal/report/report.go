// Package report turns evaluation events into user-facing output.
//
// Every formatter implements evaluation.Reporter. Streaming formatters
// (plain) write as resources are evaluated; document formatters (json,
// manifest, ascii) buffer and write once the project score is known.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/leapstack-labs/dbtscore/internal/cli/output"
	"github.com/leapstack-labs/dbtscore/pkg/core"
	"github.com/leapstack-labs/dbtscore/pkg/evaluation"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format names accepted by New.
const (
	FormatPlain    = "plain"
	FormatJSON     = "json"
	FormatASCII    = "ascii"
	FormatManifest = "manifest"
)

// Formats lists the supported formats.
var Formats = []string{FormatPlain, FormatJSON, FormatASCII, FormatManifest}

// Show selects which resources and outcomes the plain formatter prints.
type Show string

// Show modes.
const (
	ShowAll          Show = "all"
	ShowFailingItems Show = "failing-items"
	ShowFailingRules Show = "failing-rules"
)

// ShowModes lists the supported show modes.
var ShowModes = []Show{ShowAll, ShowFailingItems, ShowFailingRules}

// ParseShow validates a show mode.
func ParseShow(s string) (Show, error) {
	for _, m := range ShowModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid show mode %q, want one of %v", s, ShowModes)
}

// Config holds the settings formatters read.
type Config struct {
	Show       Show
	Thresholds evaluation.Thresholds
	Badges     core.BadgeConfig
}

// Formatter is an evaluation.Reporter that may fail while writing.
type Formatter interface {
	evaluation.Reporter
	// Err returns the first write error, if any.
	Err() error
}

// New creates the formatter named by format. The graph is needed by the
// manifest formatter to access the raw document.
func New(format string, r *output.Renderer, graph *manifest.Graph, cfg Config) (Formatter, error) {
	if cfg.Show == "" {
		cfg.Show = ShowFailingRules
	}
	switch format {
	case FormatPlain, "":
		return NewHuman(r, cfg), nil
	case FormatJSON:
		return NewJSON(r.Writer(), cfg), nil
	case FormatASCII:
		return NewASCII(r.Writer(), cfg), nil
	case FormatManifest:
		if graph == nil || graph.Raw() == nil {
			return nil, fmt.Errorf("manifest format requires the raw manifest document")
		}
		return NewManifest(r.Writer(), graph.Raw()), nil
	default:
		return nil, fmt.Errorf("unknown format %q, want one of %v", format, Formats)
	}
}

// DisplayName is the name a resource is reported under. Sources are
// qualified by their source name.
func DisplayName(r manifest.Resource) string {
	if s, ok := r.(*manifest.Source); ok {
		return s.SelectorName()
	}
	return r.GetName()
}

var titleCaser = cases.Title(language.English)

// TypeLabel returns the title-cased resource type, e.g. "Model".
func TypeLabel(t core.ResourceType) string {
	return titleCaser.String(string(t))
}

// errWriter remembers the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(p)
	if err != nil {
		ew.err = err
	}
	return n, err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
