package commands

import (
	"log/slog"

	"github.com/leapstack-labs/dbtscore/internal/cli/config"
	"github.com/leapstack-labs/dbtscore/internal/cli/output"
	"github.com/leapstack-labs/dbtscore/internal/starlark"
	"github.com/leapstack-labs/dbtscore/pkg/lint"
	_ "github.com/leapstack-labs/dbtscore/pkg/lint/rules" // register built-in rules
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the configuration and logger the root command
// stored in the context. Commands run without the root (as in tests) load
// the configuration themselves.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	ctx := cmd.Context()
	logger := config.GetLogger(ctx)

	cfg := config.GetConfig(ctx)
	if cfg == nil {
		var err error
		cfg, err = config.Load("", cmd.Flags(), logger)
		if err != nil {
			return nil, err
		}
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeAuto),
	}, nil
}

// LoadRegistry discovers and configures the rules of every configured
// namespace, from the built-in catalog and from Starlark files under the
// project root.
func (c *CommandContext) LoadRegistry() (*lint.Registry, error) {
	rules, err := c.Cfg.RuleConfigs()
	if err != nil {
		return nil, err
	}

	registry := lint.NewRegistry(lint.RegistryConfig{
		Namespaces: c.Cfg.RuleNamespaces,
		Disabled:   c.Cfg.DisabledRules,
		Rules:      rules,
		Logger:     c.Logger,
	}, lint.Builtins(), starlark.NewCatalog(c.Cfg.ProjectRoot, c.Logger))

	if err := registry.LoadAll(); err != nil {
		return nil, err
	}
	c.Logger.Debug("rules loaded",
		slog.Int("rules", len(registry.Rules())),
		slog.Int("filters", len(registry.Filters())))
	return registry, nil
}

// addRuleFlags registers the flags shared by commands that load rules.
func addRuleFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("namespace", "n", nil, "Rule namespaces to load (default [dbt_score.rules,dbt_score_rules])")
	cmd.Flags().StringSlice("disable", nil, "Fully qualified names of rules to disable")
}
