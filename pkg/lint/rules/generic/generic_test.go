package generic

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/dbtscore/pkg/core"
	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// evaluate runs def on r with params merged over the defaults. An empty
// message means the rule passed.
func evaluate(t *testing.T, def lint.RuleDef, r manifest.Resource, params map[string]any) string {
	t.Helper()
	rule, err := lint.NewRule(def, core.RuleConfig{Params: params})
	require.NoError(t, err)
	v, err := rule.Evaluate(nil, r)
	require.NoError(t, err)
	if v == nil {
		return ""
	}
	return v.Message
}

func tableModel() *manifest.Model {
	return &manifest.Model{Node: manifest.Node{
		UniqueID: "model.package.m",
		Name:     "m",
		Config:   map[string]any{"materialized": "table"},
	}}
}

func TestModelDocumentation(t *testing.T) {
	m := tableModel()
	assert.Equal(t, "Model lacks a description.", evaluate(t, HasDescription, m, nil))
	assert.Equal(t, "Model lacks an owner.", evaluate(t, HasOwner, m, nil))
	assert.Empty(t, evaluate(t, ColumnsHaveDescription, m, nil))

	m.Description = "A model."
	m.Meta = map[string]any{"owner": "Joe"}
	m.Columns = []manifest.Column{{Name: "a", Description: "ok"}, {Name: "b"}, {Name: "c"}}
	assert.Empty(t, evaluate(t, HasDescription, m, nil))
	assert.Empty(t, evaluate(t, HasOwner, m, nil))
	assert.Equal(t, "Columns lack a description: b, c.", evaluate(t, ColumnsHaveDescription, m, nil))
}

func TestSQLHasReasonableNumberOfLines(t *testing.T) {
	m := tableModel()
	m.RawCode = strings.Repeat("select 1\n", 200)

	assert.Equal(t, "SQL query too long: 201 lines (> 200).", evaluate(t, SQLHasReasonableNumberOfLines, m, nil))
	assert.Empty(t, evaluate(t, SQLHasReasonableNumberOfLines, m, map[string]any{"max_lines": 300}))
	assert.Equal(t, "SQL query too long: 201 lines (> 10).", evaluate(t, SQLHasReasonableNumberOfLines, m, map[string]any{"max_lines": "10"}))

	m.RawCode = "select 1"
	assert.Empty(t, evaluate(t, SQLHasReasonableNumberOfLines, m, nil))
}

func TestHasExampleSQL(t *testing.T) {
	m := tableModel()
	m.Language = "sql"
	assert.Equal(t, "The model description does not include an example SQL query.", evaluate(t, HasExampleSQL, m, nil))

	m.Description = "Use it:\n```sql\nselect * from m\n```"
	assert.Empty(t, evaluate(t, HasExampleSQL, m, nil))

	m.Description = ""
	m.Language = "python"
	assert.Empty(t, evaluate(t, HasExampleSQL, m, nil))

	rule, err := lint.NewRule(HasExampleSQL, core.RuleConfig{})
	require.NoError(t, err)
	assert.Equal(t, core.SeverityLow, rule.Severity())
}

func TestSinglePKDefinedAtColumnLevel(t *testing.T) {
	m := tableModel()
	assert.Empty(t, evaluate(t, SinglePKDefinedAtColumnLevel, m, nil))

	m.Constraints = []manifest.Constraint{{Type: "primary_key", Columns: []string{"a", "b"}}}
	assert.Empty(t, evaluate(t, SinglePKDefinedAtColumnLevel, m, nil))

	m.Constraints = []manifest.Constraint{{Type: "primary_key", Columns: []string{"a"}}}
	assert.Equal(t, "Single-column PK a must be defined as a column constraint.", evaluate(t, SinglePKDefinedAtColumnLevel, m, nil))
}

func TestSingleColumnUniquenessAtColumnLevel(t *testing.T) {
	m := tableModel()
	m.Tests = []manifest.Test{{Type: "unique_combination_of_columns", Kwargs: map[string]any{"combination_of_columns": []any{"a", "b"}}}}
	assert.Empty(t, evaluate(t, SingleColumnUniquenessAtColumnLevel, m, nil))

	m.Tests = []manifest.Test{{Type: "unique_combination_of_columns", Kwargs: map[string]any{"combination_of_columns": []any{"a"}}}}
	assert.Equal(t, "Single-column uniqueness test must be defined as a column test.", evaluate(t, SingleColumnUniquenessAtColumnLevel, m, nil))
}

func TestHasUniquenessTest(t *testing.T) {
	pk := []manifest.Constraint{{Type: "primary_key"}}
	combination := func(cols ...any) []manifest.Test {
		return []manifest.Test{{Type: "unique_combination_of_columns", Kwargs: map[string]any{"combination_of_columns": cols}}}
	}

	tests := []struct {
		name  string
		setup func(m *manifest.Model)
		want  string
	}{
		{"no primary key", func(*manifest.Model) {}, ""},
		{
			"column pk with unique test",
			func(m *manifest.Model) {
				m.Columns = []manifest.Column{{Name: "id", Constraints: pk, Tests: []manifest.Test{{Type: "unique"}}}}
			},
			"",
		},
		{
			"column pk without unique test",
			func(m *manifest.Model) {
				m.Columns = []manifest.Column{{Name: "id", Constraints: pk, Tests: []manifest.Test{{Type: "not_null"}}}}
			},
			"No unique constraint defined on PK column id.",
		},
		{
			"composite pk with matching test",
			func(m *manifest.Model) {
				m.Constraints = []manifest.Constraint{{Type: "primary_key", Columns: []string{"a", "b"}}}
				m.Tests = combination("b", "a")
			},
			"",
		},
		{
			"composite pk with other test",
			func(m *manifest.Model) {
				m.Constraints = []manifest.Constraint{{Type: "primary_key", Columns: []string{"a", "b"}}}
				m.Tests = combination("a", "c")
			},
			"No uniqueness test defined and matching PK a,b.",
		},
		{
			"composite pk without test",
			func(m *manifest.Model) {
				m.Constraints = []manifest.Constraint{{Type: "primary_key", Columns: []string{"a", "b"}}}
			},
			"No uniqueness test defined and matching PK a,b.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tableModel()
			tt.setup(m)
			assert.Equal(t, tt.want, evaluate(t, HasUniquenessTest, m, nil))
		})
	}
}

func TestHasNoUnusedIsIncremental(t *testing.T) {
	m := tableModel()
	m.RawCode = "select 1 {% if is_incremental() %} where 1 {% endif %}"
	assert.Equal(t, "Non-incremental model makes use of is_incremental().", evaluate(t, HasNoUnusedIsIncremental, m, nil))

	m.Config["materialized"] = "incremental"
	assert.Empty(t, evaluate(t, HasNoUnusedIsIncremental, m, nil))
}

func TestTableRulesAreFiltered(t *testing.T) {
	view := tableModel()
	view.Config["materialized"] = "view"
	incremental := tableModel()
	incremental.Config["materialized"] = "incremental"

	for _, def := range []lint.RuleDef{
		SinglePKDefinedAtColumnLevel,
		SingleColumnUniquenessAtColumnLevel,
		HasUniquenessTest,
		HasNoUnusedIsIncremental,
	} {
		rule, err := lint.NewRule(def, core.RuleConfig{})
		require.NoError(t, err)
		assert.False(t, rule.ShouldEvaluate(view), def.Name)
		assert.True(t, rule.ShouldEvaluate(incremental), def.Name)
	}
}

func TestSnapshots(t *testing.T) {
	s := &manifest.Snapshot{Node: manifest.Node{Name: "s", Config: map[string]any{}}}
	assert.Equal(t, "Snapshot lacks a unique key.", evaluate(t, SnapshotHasUniqueKey, s, nil))
	assert.Equal(t, "Snapshot lacks a strategy.", evaluate(t, SnapshotHasStrategy, s, nil))

	s.Config = map[string]any{"unique_key": "id", "strategy": "timestamp"}
	assert.Empty(t, evaluate(t, SnapshotHasUniqueKey, s, nil))
	assert.Empty(t, evaluate(t, SnapshotHasStrategy, s, nil))
}

func TestSeeds(t *testing.T) {
	s := &manifest.Seed{Node: manifest.Node{Name: "s"}, Columns: []manifest.Column{{Name: "a"}}}
	assert.Equal(t, "Seed lacks a description.", evaluate(t, SeedHasDescription, s, nil))
	assert.Equal(t, "Seed lacks an owner.", evaluate(t, SeedHasOwner, s, nil))
	assert.Equal(t, "Columns lack a description: a.", evaluate(t, SeedColumnsHaveDescription, s, nil))

	s.Description = "A seed."
	s.Config = map[string]any{"meta": map[string]any{"owner": "Joe"}}
	s.Columns[0].Description = "ok"
	assert.Empty(t, evaluate(t, SeedHasDescription, s, nil))
	assert.Empty(t, evaluate(t, SeedHasOwner, s, nil))
	assert.Empty(t, evaluate(t, SeedColumnsHaveDescription, s, nil))
}

func TestRegistered(t *testing.T) {
	defs, found, err := lint.Builtins().Lookup(Namespace)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, defs.Rules, 14)
	assert.Equal(t, "dbt_score.rules.generic.columns_have_description", defs.Rules[0].Name)
}
