package lint

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/dbtscore/pkg/core"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hasDescription(_ *Context, m *manifest.Model) (*Violation, error) {
	if m.Description == "" {
		return &Violation{Message: "Model lacks a description."}, nil
	}
	return nil, nil
}

var isTable = DefineFilter("test.filters", FilterSpec{
	Name:        "is_table",
	Description: "Filter for tables.",
}, func(m *manifest.Model) bool {
	return m.Materialization() == "table"
})

func newModel(name, materialized string) *manifest.Model {
	return &manifest.Model{Node: manifest.Node{
		UniqueID: "model.package." + name,
		Name:     name,
		Config:   map[string]any{"materialized": materialized},
	}}
}

func TestDefine(t *testing.T) {
	def := Define("test.rules", RuleSpec{
		Name:        "has_description",
		Description: "A model should have a description.",
	}, hasDescription)

	assert.Equal(t, "test.rules.has_description", def.Name)
	assert.Equal(t, "test.rules", def.Namespace)
	assert.Equal(t, core.ResourceModel, def.ResourceType)
	require.NotNil(t, def.Check)

	rule, err := NewRule(def, core.RuleConfig{})
	require.NoError(t, err)
	assert.Equal(t, core.SeverityMedium, rule.Severity())
	assert.Equal(t, "A model should have a description.", rule.Description())
	assert.Empty(t, rule.Config())

	v, err := rule.Evaluate(nil, newModel("m", "view"))
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "Model lacks a description.", v.Message)

	described := newModel("m", "view")
	described.Description = "documented"
	v, err = rule.Evaluate(nil, described)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDefine_WrongResourceType(t *testing.T) {
	def := Define("test", RuleSpec{Name: "r", Description: "d"}, hasDescription)
	_, err := def.Check(&Context{}, &manifest.Source{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects a model")
}

func TestNewRule_Invalid(t *testing.T) {
	tests := []struct {
		name string
		def  RuleDef
		want string
	}{
		{
			name: "missing description",
			def:  Define("test", RuleSpec{Name: "r"}, hasDescription),
			want: "missing description",
		},
		{
			name: "missing check",
			def:  Define[*manifest.Model]("test", RuleSpec{Name: "r", Description: "d"}, nil),
			want: "missing check function",
		},
		{
			name: "missing resource type",
			def:  RuleDef{Name: "r", Description: "d", Check: func(*Context, manifest.Resource) (*Violation, error) { return nil, nil }},
			want: "missing resource type",
		},
		{
			name: "filter on another resource type",
			def: Define("test", RuleSpec{
				Name:        "r",
				Description: "d",
				Filters: []FilterDef{DefineFilter("test", FilterSpec{Name: "f", Description: "d"}, func(*manifest.Source) bool {
					return true
				})},
			}, hasDescription),
			want: "evaluates source resources",
		},
		{
			name: "invalid severity",
			def:  Define("test", RuleSpec{Name: "r", Description: "d", Severity: core.Severity(7)}, hasDescription),
			want: "invalid severity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRule(tt.def, core.RuleConfig{})
			require.Error(t, err)
			var defErr *DefinitionError
			assert.True(t, errors.As(err, &defErr))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewRule_Config(t *testing.T) {
	def := Define("test", RuleSpec{
		Name:        "too_long",
		Description: "SQL should be short.",
		Severity:    core.SeverityLow,
		Params:      Params{"max_lines": 200},
	}, func(ctx *Context, m *manifest.Model) (*Violation, error) {
		limit, err := ctx.Params.Int("max_lines")
		if err != nil {
			return nil, err
		}
		if len(m.RawCode) > limit {
			return Violationf("too long: %d > %d", len(m.RawCode), limit), nil
		}
		return nil, nil
	})

	t.Run("overrides", func(t *testing.T) {
		rule, err := NewRule(def, core.RuleConfig{
			Severity:    core.SeverityCritical,
			Description: "Custom.",
			Params:      map[string]any{"max_lines": "3"},
		})
		require.NoError(t, err)
		assert.Equal(t, core.SeverityCritical, rule.Severity())
		assert.Equal(t, "Custom.", rule.Description())
		assert.Equal(t, Params{"max_lines": 200}, rule.DefaultConfig())
		assert.Equal(t, Params{"max_lines": "3"}, rule.Config())

		m := newModel("m", "view")
		m.RawCode = "select 1"
		v, err := rule.Evaluate(nil, m)
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, "too long: 8 > 3", v.Message)
	})

	t.Run("unknown parameter", func(t *testing.T) {
		_, err := NewRule(def, core.RuleConfig{Params: map[string]any{"max_line": 3}})
		require.Error(t, err)
		var cfgErr *ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "max_line", cfgErr.Key)
		assert.Equal(t, "test.too_long", cfgErr.Rule)
	})

	t.Run("config is not shared", func(t *testing.T) {
		rule, err := NewRule(def, core.RuleConfig{})
		require.NoError(t, err)
		cfg := rule.Config()
		cfg["max_lines"] = 1
		assert.Equal(t, Params{"max_lines": 200}, rule.Config())
	})
}

func TestShouldEvaluate(t *testing.T) {
	isNamedA := DefineFilter("test.filters", FilterSpec{Name: "named_a", Description: "Name starts with a."},
		func(m *manifest.Model) bool { return m.Name[0] == 'a' })

	tests := []struct {
		name    string
		filters []FilterDef
		res     manifest.Resource
		want    bool
	}{
		{"no filter", nil, newModel("m", "view"), true},
		{"other resource type", nil, &manifest.Source{}, false},
		{"filter passes", []FilterDef{isTable}, newModel("m", "table"), true},
		{"filter fails", []FilterDef{isTable}, newModel("m", "view"), false},
		{"all filters pass", []FilterDef{isTable, isNamedA}, newModel("abc", "table"), true},
		{"one filter fails", []FilterDef{isTable, isNamedA}, newModel("bcd", "table"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := NewRule(Define("test", RuleSpec{Name: "r", Description: "d", Filters: tt.filters}, hasDescription), core.RuleConfig{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, rule.ShouldEvaluate(tt.res))
		})
	}
}

func TestNewFilter(t *testing.T) {
	f, err := NewFilter(isTable)
	require.NoError(t, err)
	assert.Equal(t, "test.filters.is_table", f.Name())
	assert.Equal(t, core.ResourceModel, f.ResourceType())
	assert.True(t, f.Evaluate(newModel("m", "table")))
	assert.False(t, f.Evaluate(&manifest.Source{}))

	_, err = NewFilter(DefineFilter("test", FilterSpec{Name: "f"}, func(*manifest.Model) bool { return true }))
	assert.Error(t, err)
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		kind    OutcomeKind
		label   string
		message string
	}{
		{"pass", Outcome{}, OutcomePass, "OK", ""},
		{"violation", Outcome{Violation: &Violation{Message: "bad"}}, OutcomeViolation, "WARN", "bad"},
		{"error", Outcome{Err: errors.New("boom")}, OutcomeError, "ERR", "boom"},
		{"error wins", Outcome{Violation: &Violation{Message: "bad"}, Err: errors.New("boom")}, OutcomeError, "ERR", "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.outcome.Kind())
			assert.Equal(t, tt.label, tt.outcome.Kind().String())
			assert.Equal(t, tt.message, tt.outcome.Message())
		})
	}
}

func TestParams(t *testing.T) {
	p := Params{"max_lines": "200", "ratio": 0.5, "name": "x", "names": []any{"a", "b"}}

	n, err := p.Int("max_lines")
	require.NoError(t, err)
	assert.Equal(t, 200, n)

	f, err := p.Float("ratio")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, f, 1e-9)

	s, err := p.String("name")
	require.NoError(t, err)
	assert.Equal(t, "x", s)

	ss, err := p.Strings("names")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ss)

	_, err = p.Int("missing")
	assert.Error(t, err)

	var decoded struct {
		MaxLines int `mapstructure:"max_lines"`
	}
	require.NoError(t, Params{"max_lines": "12"}.Decode(&decoded))
	assert.Equal(t, 12, decoded.MaxLines)
}
