package exposures

import (
	"testing"

	"github.com/leapstack-labs/dbtscore/pkg/core"
	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evaluate(t *testing.T, def lint.RuleDef, e *manifest.Exposure) string {
	t.Helper()
	rule, err := lint.NewRule(def, core.RuleConfig{})
	require.NoError(t, err)
	v, err := rule.Evaluate(nil, e)
	require.NoError(t, err)
	if v == nil {
		return ""
	}
	return v.Message
}

func TestExposureRules(t *testing.T) {
	e := &manifest.Exposure{Node: manifest.Node{Name: "dashboard"}}
	assert.Equal(t, "Exposure lacks a description.", evaluate(t, ExposureHasDescription, e))
	assert.Equal(t, "Exposure lacks an owner.", evaluate(t, ExposureHasOwner, e))
	assert.Equal(t, "Exposure lacks a URL.", evaluate(t, ExposureHasURL, e))

	e.Description = "Sales dashboard."
	e.Owner = manifest.ExposureOwner{Email: "data@example.com"}
	e.URL = "https://bi.example.com/sales"
	assert.Empty(t, evaluate(t, ExposureHasDescription, e))
	assert.Empty(t, evaluate(t, ExposureHasOwner, e))
	assert.Empty(t, evaluate(t, ExposureHasURL, e))
}
