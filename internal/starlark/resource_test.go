package starlark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/leapstack-labs/dbtscore/pkg/manifest"
)

func attr(t *testing.T, v starlark.Value, name string) starlark.Value {
	t.Helper()
	s, ok := v.(*starlarkstruct.Struct)
	require.True(t, ok, "want struct, got %s", v.Type())
	got, err := s.Attr(name)
	require.NoError(t, err)
	return got
}

func TestResourceToStarlark_Model(t *testing.T) {
	m := &manifest.Model{
		Node: manifest.Node{
			UniqueID:    "model.package.model1",
			Name:        "model1",
			Description: "A model.",
			Config:      map[string]any{"materialized": "table"},
			Meta:        map[string]any{"owner": "Joe"},
		},
		Language: "sql",
		RawCode:  "select 1",
		Columns: []manifest.Column{{
			Name:        "id",
			Constraints: []manifest.Constraint{{Type: "primary_key"}},
			Tests:       []manifest.Test{{Name: "unique_id", Type: "unique"}},
		}},
	}

	v, err := ResourceToStarlark(m)
	require.NoError(t, err)

	assert.Equal(t, starlark.String("model1"), attr(t, v, "name"))
	assert.Equal(t, starlark.String("model"), attr(t, v, "resource_type"))
	assert.Equal(t, starlark.String("table"), attr(t, v, "materialized"))
	assert.Equal(t, starlark.String("select 1"), attr(t, v, "raw_code"))
	assert.Equal(t, `{"owner": "Joe"}`, attr(t, v, "meta").String())
	assert.Equal(t, "[]", attr(t, v, "tags").String())

	columns, ok := attr(t, v, "columns").(*starlark.List)
	require.True(t, ok)
	require.Equal(t, 1, columns.Len())
	col, ok := columns.Index(0).(*starlark.Dict)
	require.True(t, ok)
	tests, found, err := col.Get(starlark.String("tests"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, tests.String(), `"type": "unique"`)
}

func TestResourceToStarlark_Types(t *testing.T) {
	tests := []struct {
		name     string
		resource manifest.Resource
		field    string
		want     string
	}{
		{
			name:     "source",
			resource: &manifest.Source{Node: manifest.Node{Name: "table1"}, SourceName: "my_source", LoadedAtField: "ts"},
			field:    "source_name",
			want:     `"my_source"`,
		},
		{
			name:     "seed",
			resource: &manifest.Seed{Node: manifest.Node{Name: "seed1"}, Schema: "raw"},
			field:    "schema",
			want:     `"raw"`,
		},
		{
			name:     "snapshot",
			resource: &manifest.Snapshot{Node: manifest.Node{Name: "s", Config: map[string]any{"strategy": "check"}}},
			field:    "strategy",
			want:     `"check"`,
		},
		{
			name:     "exposure",
			resource: &manifest.Exposure{Node: manifest.Node{Name: "dashboard"}, Owner: manifest.ExposureOwner{Email: "a@b.c"}},
			field:    "owner",
			want:     `{"email": "a@b.c", "name": ""}`,
		},
		{
			name:     "macro",
			resource: &manifest.Macro{Node: manifest.Node{Name: "m"}, Arguments: []manifest.MacroArgument{{Name: "x"}}},
			field:    "arguments",
			want:     `[{"description": "", "name": "x", "type": ""}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ResourceToStarlark(tt.resource)
			require.NoError(t, err)
			assert.Equal(t, tt.want, attr(t, v, tt.field).String())
		})
	}
}

func TestResourceToStarlark_Frozen(t *testing.T) {
	v, err := ResourceToStarlark(&manifest.Model{Node: manifest.Node{Name: "m"}})
	require.NoError(t, err)

	meta, ok := attr(t, v, "meta").(*starlark.Dict)
	require.True(t, ok)
	assert.Error(t, meta.SetKey(starlark.String("owner"), starlark.String("x")))
}
