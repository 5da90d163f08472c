package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
	"github.com/leapstack-labs/dbtscore/pkg/scoring"
)

// manifestSections are the top-level manifest maps that hold resources.
var manifestSections = []string{"nodes", "sources", "exposures", "macros"}

// Manifest re-emits the manifest with each evaluated resource's score and
// badge stored under its meta.
type Manifest struct {
	w      *errWriter
	raw    []byte
	ids    []string
	scores map[string]scoring.Score
	err    error
}

// NewManifest creates the manifest formatter over the raw manifest JSON.
func NewManifest(w io.Writer, raw []byte) *Manifest {
	return &Manifest{
		w:      &errWriter{w: w},
		raw:    raw,
		scores: make(map[string]scoring.Score),
	}
}

// ResourceEvaluated implements evaluation.Reporter.
func (m *Manifest) ResourceEvaluated(res manifest.Resource, _ []lint.Outcome, score scoring.Score) {
	id := res.GetUniqueID()
	if _, ok := m.scores[id]; !ok {
		m.ids = append(m.ids, id)
	}
	m.scores[id] = score
}

// ProjectEvaluated implements evaluation.Reporter.
func (m *Manifest) ProjectEvaluated(_ scoring.Score) {
	dec := json.NewDecoder(bytes.NewReader(m.raw))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		m.err = fmt.Errorf("failed to decode manifest: %w", err)
		return
	}

	for _, id := range m.ids {
		node := findNode(doc, id)
		if node == nil {
			continue
		}
		meta, ok := node["meta"].(map[string]any)
		if !ok {
			meta = make(map[string]any)
			node["meta"] = meta
		}
		meta["score"] = m.scores[id].Value
		meta["badge"] = m.scores[id].Badge
	}

	enc := json.NewEncoder(m.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	_ = enc.Encode(doc)
}

func findNode(doc map[string]any, id string) map[string]any {
	for _, section := range manifestSections {
		nodes, ok := doc[section].(map[string]any)
		if !ok {
			continue
		}
		if node, ok := nodes[id].(map[string]any); ok {
			return node
		}
	}
	return nil
}

// Err implements Formatter.
func (m *Manifest) Err() error {
	if m.err != nil {
		return m.err
	}
	return m.w.err
}

var _ Formatter = (*Manifest)(nil)
