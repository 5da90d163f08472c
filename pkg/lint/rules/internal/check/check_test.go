package check

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/dbtscore/pkg/manifest"
	"github.com/stretchr/testify/assert"
)

func TestListMessage(t *testing.T) {
	assert.Equal(t, "Columns lack a description: a, b.", ListMessage("Columns lack a description", []string{"a", "b"}))

	long := ListMessage("Columns lack a description", []string{"column_one", "column_two", "column_three"})
	assert.Equal(t, "Columns lack a description: column_one, column_two, column_t…", long)
	assert.True(t, strings.HasSuffix(long, "…"))
}

func TestTruncate_Runes(t *testing.T) {
	msg := strings.Repeat("é", 61)
	assert.Equal(t, strings.Repeat("é", 60)+"…", Truncate(msg))
	assert.Equal(t, "short", Truncate("short"))
}

func TestUndocumentedColumns(t *testing.T) {
	cols := []manifest.Column{{Name: "a"}, {Name: "b", Description: "ok"}, {Name: "c"}}
	assert.Equal(t, []string{"a", "c"}, UndocumentedColumns(cols))
	assert.Nil(t, UndocumentedColumns(nil))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Strings([]any{"a", 1.0, "b"}))
	assert.Equal(t, []string{"x"}, Strings([]string{"x"}))
	assert.Nil(t, Strings(nil))
}

func TestLookup(t *testing.T) {
	m := map[string]any{"meta": map[string]any{"owner": "Joe"}}
	assert.Equal(t, "Joe", Lookup(m, "meta", "owner"))
	assert.Nil(t, Lookup(m, "meta", "missing", "deep"))
	assert.Nil(t, Lookup(nil, "meta"))
}
