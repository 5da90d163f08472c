package manifest

import (
	"context"
	"errors"
	"testing"

	"github.com/leapstack-labs/dbtscore/internal/testutil"
	"github.com/leapstack-labs/dbtscore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *Graph {
	t.Helper()
	g, err := LoadFile("testdata/manifest.json", LoadOptions{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	return g
}

func names(resources []Resource) []string {
	out := make([]string, 0, len(resources))
	for _, r := range resources {
		out = append(out, r.GetName())
	}
	return out
}

func TestLoad_ProjectResourcesOnly(t *testing.T) {
	g := loadFixture(t)

	assert.Equal(t, "package", g.ProjectName())
	assert.Equal(t, 7, g.Len())
	assert.Equal(t,
		[]string{"model1", "model2", "table1", "snapshot1", "seed1", "dashboard", "my_macro"},
		names(g.Resources()))

	_, ok := g.Get("model.other.external")
	assert.False(t, ok, "resources of other packages are not loaded")
	_, ok = g.Get("macro.dbt.run_query")
	assert.False(t, ok)

	assert.Len(t, g.Models(), 2)
	assert.Len(t, g.Sources(), 1)
	assert.Len(t, g.Snapshots(), 1)
	assert.Len(t, g.Seeds(), 1)
	assert.Len(t, g.Exposures(), 1)
	assert.Len(t, g.Macros(), 1)
	assert.NotEmpty(t, g.Raw())
}

func TestLoad_ModelAttributes(t *testing.T) {
	g := loadFixture(t)
	r, ok := g.Get("model.package.model1")
	require.True(t, ok)
	model, ok := r.(*Model)
	require.True(t, ok)

	assert.Equal(t, core.ResourceModel, model.ResourceType())
	assert.Equal(t, "Description1.", model.Description)
	assert.Equal(t, "table", model.Materialization())
	assert.Equal(t, "Data team", model.Meta["owner"])
	assert.Equal(t, "2", model.Version)
	assert.Equal(t, "sql", model.Language)
	assert.Equal(t, []string{"nightly"}, model.Tags)

	require.Len(t, model.Columns, 2)
	assert.Equal(t, "b", model.Columns[0].Name, "columns keep document order")
	assert.Equal(t, "a", model.Columns[1].Name)
	require.Len(t, model.Columns[1].Constraints, 1)
	assert.Equal(t, "primary_key", model.Columns[1].Constraints[0].Type)
}

func TestLoad_TestPartitioning(t *testing.T) {
	g := loadFixture(t)
	model := g.Models()[0]

	colA := model.Column("a")
	require.NotNil(t, colA)
	require.Len(t, colA.Tests, 1)
	assert.Equal(t, "test1", colA.Tests[0].Name)
	assert.Equal(t, "unique", colA.Tests[0].Type)
	assert.Equal(t, []string{"critical"}, colA.Tests[0].Tags)

	assert.Empty(t, model.Column("b").Tests)

	// test2 has no column, test3 names a column that does not exist
	require.Len(t, model.Tests, 2)
	assert.Equal(t, "test2", model.Tests[0].Name)
	assert.Equal(t, "unique_combination_of_columns", model.Tests[0].Type)
	assert.Equal(t, []any{"a", "b"}, model.Tests[0].Kwargs["combination_of_columns"])
	assert.Equal(t, "test3", model.Tests[1].Name)

	source := g.Sources()[0]
	require.Len(t, source.Column("id").Tests, 1)
	assert.Equal(t, "test5", source.Column("id").Tests[0].Name)

	assert.Empty(t, g.Models()[1].Tests, "other resources are untouched")
}

func TestLoad_Relationships(t *testing.T) {
	g := loadFixture(t)
	model1, _ := g.Get("model.package.model1")
	model2, _ := g.Get("model.package.model2")
	exposure, _ := g.Get("exposure.package.dashboard")

	assert.Equal(t, []string{"source.package.my_source.table1"}, model1.Common().Parents(),
		"out-of-project dependencies are skipped")
	assert.Equal(t, []string{"model.package.model2", "snapshot.package.snapshot1"}, model1.Common().Children())

	assert.Equal(t, []string{"model1"}, names(g.Parents(model2)))
	assert.Equal(t, []string{"dashboard"}, names(g.Children(model2)))
	assert.Equal(t, []string{"model1", "model2", "table1"}, names(g.Upstream(exposure)))
	assert.Equal(t, []string{"dashboard", "model2", "snapshot1"}, names(g.Downstream(model1)))
}

func TestLoad_OtherResourceTypes(t *testing.T) {
	g := loadFixture(t)

	source := g.Sources()[0]
	assert.Equal(t, "my_source.table1", source.SelectorName())
	assert.Equal(t, "airbyte", source.Loader)
	assert.NotEmpty(t, source.Freshness)

	snapshot := g.Snapshots()[0]
	assert.Equal(t, "timestamp", snapshot.Strategy())
	assert.True(t, snapshot.HasConfig("unique_key"))

	seed := g.Seeds()[0]
	assert.Equal(t, map[string]any{"owner": "Finance"}, seed.Config["meta"])

	exposure := g.Exposures()[0]
	assert.Equal(t, "Analytics", exposure.Owner.Name)
	assert.Equal(t, "https://bi.example.com/revenue", exposure.URL)

	macro := g.Macros()[0]
	require.Len(t, macro.Arguments, 1)
	assert.Equal(t, "Input.", macro.Arguments[0].Description)
}

func TestLoad_ProjectName(t *testing.T) {
	doc := []byte(`{"metadata": {}, "nodes": {"model.p.m": {"resource_type": "model", "unique_id": "model.p.m", "name": "m", "package_name": "p"}}}`)

	_, err := Load(doc, LoadOptions{})
	assert.ErrorIs(t, err, ErrNoProjectName)

	g, err := Load(doc, LoadOptions{ProjectName: "p"})
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
}

func TestLoad_InvalidDocument(t *testing.T) {
	_, err := Load([]byte(`{"nodes": [`), LoadOptions{})
	assert.Error(t, err)

	_, err = LoadFile("testdata/missing.json", LoadOptions{})
	assert.Error(t, err)
}

func TestNewGraph(t *testing.T) {
	a := &Model{Node: Node{UniqueID: "model.p.a", Name: "a"}}
	b := &Model{Node: Node{UniqueID: "model.p.b", Name: "b", DependsOn: []string{"model.p.a", "model.p.gone", "model.p.b"}}}

	g, err := NewGraph("p", b, a)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(g.Resources()))
	assert.Equal(t, []string{"model.p.a"}, b.Parents())
	assert.Equal(t, []string{"model.p.b"}, a.Children())

	_, err = NewGraph("p", a, &Model{Node: Node{UniqueID: "model.p.a"}})
	assert.Error(t, err, "duplicate ids are rejected")
}

type fakeLister struct {
	names []string
	err   error
	got   []string
}

func (f *fakeLister) List(_ context.Context, selectors []string) ([]string, error) {
	f.got = selectors
	return f.names, f.err
}

func TestSelect(t *testing.T) {
	g := loadFixture(t)
	ctx := context.Background()

	t.Run("no selectors", func(t *testing.T) {
		sel, err := g.Select(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, g.Len(), sel.Len())
	})

	t.Run("bare names are matched locally", func(t *testing.T) {
		lister := &fakeLister{}
		sel, err := g.Select(ctx, []string{"model1", "table1"}, lister)
		require.NoError(t, err)
		assert.Equal(t, []string{"model1", "table1"}, names(sel.Resources()))
		assert.Nil(t, lister.got, "lister is not called for bare names")

		_, ok := sel.Get("model.package.model2")
		assert.True(t, ok, "unselected resources stay resolvable")
	})

	t.Run("advanced selectors use the lister", func(t *testing.T) {
		lister := &fakeLister{names: []string{"model2", "seed1"}}
		sel, err := g.Select(ctx, []string{"model1+", "tag:nightly"}, lister)
		require.NoError(t, err)
		assert.Equal(t, []string{"model1+", "tag:nightly"}, lister.got)
		assert.Equal(t, []string{"model2", "seed1"}, names(sel.Resources()))
	})

	t.Run("empty result", func(t *testing.T) {
		sel, err := g.Select(ctx, []string{"nothing"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, sel.Len())
	})

	t.Run("lister failure", func(t *testing.T) {
		_, err := g.Select(ctx, []string{"+model1"}, &fakeLister{err: errors.New("boom")})
		assert.Error(t, err)
	})

	t.Run("advanced selectors without lister", func(t *testing.T) {
		_, err := g.Select(ctx, []string{"+model1"}, nil)
		assert.ErrorIs(t, err, ErrNoLister)
	})
}

func TestIsSet(t *testing.T) {
	assert.False(t, IsSet(nil))
	assert.False(t, IsSet(""))
	assert.False(t, IsSet([]any{}))
	assert.False(t, IsSet(map[string]any{}))
	assert.True(t, IsSet("id"))
	assert.True(t, IsSet([]any{"a"}))
	assert.True(t, IsSet(float64(1)))
}
