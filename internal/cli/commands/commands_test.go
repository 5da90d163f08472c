package commands

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/leapstack-labs/dbtscore/internal/cli/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewListCommand(t *testing.T) {
	cmd := NewListCommand()

	assert.Equal(t, "list", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	flags := []string{"namespace", "disable", "format", "title"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestList(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		wantNot []string
	}{
		{
			name: "terminal",
			args: []string{"-n", "project_rules"},
			want: []string{"project_rules.checks.needs_description:\n    A model should have a description.\n"},
		},
		{
			name: "markdown",
			args: []string{"-n", "project_rules", "-f", "markdown", "--title", "Project rules"},
			want: []string{
				"# Project rules\n",
				"## `needs_description`\n",
				"rules:\n  project_rules.checks.needs_description:\n    severity: 2\n",
			},
		},
		{
			name: "table",
			args: []string{"-n", "project_rules", "-f", "table"},
			want: []string{"Rule", "Severity", "project_rules.checks.needs_description", "Model", "medium"},
		},
		{
			name: "built-in rules",
			args: []string{"-n", "dbt_score.rules.generic"},
			want: []string{
				"dbt_score.rules.generic.has_description:",
				"dbt_score.rules.generic.has_owner:",
			},
			wantNot: []string{"dbt_score.rules.sources", "project_rules"},
		},
		{
			name:    "disabled rule",
			args:    []string{"-n", "dbt_score.rules.generic", "--disable", "dbt_score.rules.generic.has_owner"},
			want:    []string{"dbt_score.rules.generic.has_description:", "dbt_score.rules.generic.seed_has_owner:"},
			wantNot: []string{"dbt_score.rules.generic.has_owner:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupProject(t)
			stdout, _, err := execute(t, NewListCommand(), tt.args...)
			require.NoError(t, err)
			testutil.AssertNoANSI(t, stdout)
			for _, want := range tt.want {
				assert.Contains(t, stdout, want)
			}
			for _, unwanted := range tt.wantNot {
				assert.NotContains(t, stdout, unwanted)
			}
		})
	}
}

func TestList_MarkdownIsValid(t *testing.T) {
	setupProject(t)

	stdout, _, err := execute(t, NewListCommand(), "-f", "markdown")
	require.NoError(t, err)
	testutil.AssertValidMarkdown(t, stdout)
	assert.True(t, strings.HasPrefix(stdout, "# Rules\n"))
}

func TestList_UnknownFormat(t *testing.T) {
	setupProject(t)

	_, _, err := execute(t, NewListCommand(), "-f", "html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown catalog format "html"`)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"thresholds", &ExitError{Code: ExitThresholds, Err: ErrThresholdsNotMet}, ExitThresholds},
		{"wrapped", fmt.Errorf("lint: %w", &ExitError{Code: ExitThresholds}), ExitThresholds},
		{"any other error", errors.New("boom"), ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: ExitThresholds, Err: ErrThresholdsNotMet}
	assert.Equal(t, "score thresholds not met", err.Error())
	assert.ErrorIs(t, err, ErrThresholdsNotMet)
	assert.Equal(t, "exit status 2", (&ExitError{Code: 2}).Error())
}
