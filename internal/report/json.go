package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/google/uuid"
	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
	"github.com/leapstack-labs/dbtscore/pkg/scoring"
)

type ruleResult struct {
	Result   string  `json:"result"`
	Severity string  `json:"severity"`
	Message  *string `json:"message"`
}

type itemResult struct {
	Score   float64                   `json:"score"`
	Badge   string                    `json:"badge"`
	Pass    bool                      `json:"pass"`
	Results *orderedObject[ruleResult] `json:"results"`
}

type projectResult struct {
	Score float64 `json:"score"`
	Badge string  `json:"badge"`
	Pass  bool    `json:"pass"`
}

type jsonMetadata struct {
	InvocationID string `json:"invocation_id"`
}

type jsonDocument struct {
	Evaluables *orderedObject[itemResult] `json:"evaluables"`
	Project    projectResult              `json:"project"`
	Metadata   jsonMetadata               `json:"metadata"`
}

// JSON writes one document describing every resource and the project.
// Resources and rules keep evaluation order. Resources are keyed by display
// name, or by unique id when an earlier resource took the name.
type JSON struct {
	w            *errWriter
	cfg          Config
	invocationID string
	items        *orderedObject[itemResult]
}

// NewJSON creates the json formatter.
func NewJSON(w io.Writer, cfg Config) *JSON {
	return &JSON{
		w:            &errWriter{w: w},
		cfg:          cfg,
		invocationID: uuid.NewString(),
		items:        newOrderedObject[itemResult](),
	}
}

// ResourceEvaluated implements evaluation.Reporter.
func (j *JSON) ResourceEvaluated(res manifest.Resource, outcomes []lint.Outcome, score scoring.Score) {
	results := newOrderedObject[ruleResult]()
	for _, o := range outcomes {
		rr := ruleResult{
			Result:   o.Kind().String(),
			Severity: o.Rule.Severity().String(),
		}
		if o.Kind() != lint.OutcomePass {
			msg := o.Message()
			rr.Message = &msg
		}
		results.Set(o.Rule.Name(), rr)
	}
	key := DisplayName(res)
	if j.items.Has(key) {
		key = res.GetUniqueID()
	}
	j.items.Set(key, itemResult{
		Score:   score.Value,
		Badge:   score.Badge,
		Pass:    score.Value >= j.cfg.Thresholds.FailAnyItemUnder,
		Results: results,
	})
}

// ProjectEvaluated implements evaluation.Reporter.
func (j *JSON) ProjectEvaluated(score scoring.Score) {
	doc := jsonDocument{
		Evaluables: j.items,
		Project: projectResult{
			Score: score.Value,
			Badge: score.Badge,
			Pass:  score.Value >= j.cfg.Thresholds.FailProjectUnder,
		},
		Metadata: jsonMetadata{InvocationID: j.invocationID},
	}
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil && j.w.err == nil {
		j.w.err = err
	}
}

// Err implements Formatter.
func (j *JSON) Err() error { return j.w.err }

var _ Formatter = (*JSON)(nil)

// orderedObject is a JSON object that keeps insertion order. A repeated
// key keeps its first position and takes the latest value.
type orderedObject[T any] struct {
	keys   []string
	values map[string]T
}

func newOrderedObject[T any]() *orderedObject[T] {
	return &orderedObject[T]{values: make(map[string]T)}
}

func (o *orderedObject[T]) Set(key string, v T) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

func (o *orderedObject[T]) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

func (o *orderedObject[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalNoEscape(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
