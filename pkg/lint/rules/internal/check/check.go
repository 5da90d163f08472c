// Package check holds helpers shared by the built-in rules.
package check

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/dbtscore/pkg/manifest"
)

// maxMessageLength is the longest message before truncation, in runes.
const maxMessageLength = 60

// Truncate cuts message to maxMessageLength runes and appends an ellipsis.
func Truncate(message string) string {
	runes := []rune(message)
	if len(runes) <= maxMessageLength {
		return message
	}
	return string(runes[:maxMessageLength]) + "…"
}

// ListMessage formats "<prefix>: a, b." truncated.
func ListMessage(prefix string, names []string) string {
	return Truncate(fmt.Sprintf("%s: %s.", prefix, strings.Join(names, ", ")))
}

// UndocumentedColumns returns the names of columns without description.
func UndocumentedColumns(columns []manifest.Column) []string {
	var names []string
	for _, c := range columns {
		if c.Description == "" {
			names = append(names, c.Name)
		}
	}
	return names
}

// Strings converts a decoded JSON list to strings, dropping other values.
func Strings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Lookup walks nested maps along path.
func Lookup(m map[string]any, path ...string) any {
	var cur any = m
	for _, key := range path {
		next, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = next[key]
	}
	return cur
}
