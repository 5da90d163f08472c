package filters

import (
	"testing"

	"github.com/leapstack-labs/dbtscore/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTable(t *testing.T) {
	tests := []struct {
		materialized any
		want         bool
	}{
		{"table", true},
		{"incremental", true},
		{"view", false},
		{"ephemeral", false},
		{nil, false},
	}

	assert.Equal(t, "dbt_score.rules.filters.is_table", IsTable.Name)
	for _, tt := range tests {
		m := &manifest.Model{Node: manifest.Node{Config: map[string]any{"materialized": tt.materialized}}}
		assert.Equal(t, tt.want, IsTable.Predicate(m), "materialized=%v", tt.materialized)
	}
	require.False(t, IsTable.Predicate(&manifest.Seed{}))
}
