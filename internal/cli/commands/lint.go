package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/leapstack-labs/dbtscore/internal/cli/config"
	"github.com/leapstack-labs/dbtscore/internal/dbt"
	"github.com/leapstack-labs/dbtscore/internal/report"
	"github.com/leapstack-labs/dbtscore/pkg/evaluation"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
	"github.com/leapstack-labs/dbtscore/pkg/scoring"
	"github.com/spf13/cobra"
)

// LintOptions holds options for the lint command that are not
// configuration keys.
type LintOptions struct {
	Select      []string // Names or dbt selection expressions
	RunDBTParse bool     // Run dbt parse before loading the manifest

	// Runner overrides the dbt runner, mainly for tests.
	Runner dbt.Runner
}

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	return newLintCommand(&LintOptions{})
}

func newLintCommand(opts *LintOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Lint dbt metadata and score every resource",
		Long: `Evaluate the rules of the configured namespaces against the resources of
the dbt manifest, score each resource and the project, and report the result.

The command exits with status 1 when the project scores under
--fail-project-under or any resource scores under --fail-any-item-under,
and with status 2 on usage or configuration errors.`,
		Example: `  # Lint the manifest in ./target
  dbtscore lint

  # Parse the project first
  dbtscore lint --run-dbt-parse

  # Lint a selection, using dbt's selection syntax
  dbtscore lint --select "staging.*" --select customers

  # Machine-readable output
  dbtscore lint --format json

  # Show every rule outcome, not only failures
  dbtscore lint --show all`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLint(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Select, "select", "s", nil, "Resources to lint: names or dbt selection syntax")
	cmd.Flags().BoolVarP(&opts.RunDBTParse, "run-dbt-parse", "p", false, "Run 'dbt parse' before loading the manifest")
	cmd.Flags().StringP("manifest", "m", dbt.DefaultManifestPath(), "Path to dbt's manifest.json")
	cmd.Flags().StringP("format", "f", config.DefaultFormat, "Output format: plain, json, ascii, manifest")
	cmd.Flags().String("show", config.DefaultShow, "Plain output detail: all, failing-items, failing-rules")
	cmd.Flags().Float64("fail-project-under", config.DefaultFailProjectUnder, "Fail if the project score is under this value")
	cmd.Flags().Float64("fail-any-item-under", config.DefaultFailAnyItemUnder, "Fail if any resource scores under this value")
	cmd.Flags().Int("workers", config.DefaultWorkers, "Number of resources evaluated in parallel")
	addRuleFlags(cmd)

	cmd.MarkFlagsMutuallyExclusive("run-dbt-parse", "manifest")
	_ = cmd.MarkFlagFilename("manifest", "json")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return report.Formats, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("show", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		modes := make([]string, len(report.ShowModes))
		for i, m := range report.ShowModes {
			modes[i] = string(m)
		}
		return modes, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runLint(cmd *cobra.Command, opts *LintOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger
	ctx := cmd.Context()

	runner := opts.Runner
	if runner == nil {
		runner = dbt.NewRunner(dbt.WithLogger(logger), dbt.WithOutput(cmd.ErrOrStderr()))
	}

	manifestPath := cfg.Manifest
	if opts.RunDBTParse {
		if err := runner.Parse(ctx); err != nil {
			return err
		}
		manifestPath = dbt.DefaultManifestPath()
	}
	if manifestPath == "" {
		manifestPath = dbt.DefaultManifestPath()
	}

	graph, err := loadManifest(manifestPath, logger)
	if err != nil {
		return err
	}

	graph, err = graph.Select(ctx, opts.Select, runner)
	if err != nil {
		return err
	}
	if graph.Len() == 0 {
		logger.Warn("Nothing to evaluate!")
	}

	registry, err := cmdCtx.LoadRegistry()
	if err != nil {
		return err
	}

	badges := cfg.BadgeConfig()
	scorer, err := scoring.New(badges)
	if err != nil {
		return err
	}

	thresholds := evaluation.Thresholds{
		FailProjectUnder: cfg.FailProjectUnder,
		FailAnyItemUnder: cfg.FailAnyItemUnder,
	}
	formatter, err := report.New(cfg.Format, cmdCtx.Renderer, graph, report.Config{
		Show:       report.Show(cfg.Show),
		Thresholds: thresholds,
		Badges:     badges,
	})
	if err != nil {
		return err
	}

	result, err := evaluation.New(registry, graph, scorer, formatter,
		evaluation.WithWorkers(cfg.Workers),
		evaluation.WithLogger(logger),
	).Run(ctx)
	if err != nil {
		return err
	}
	if err := formatter.Err(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if !result.Passes(thresholds) {
		return &ExitError{Code: ExitThresholds, Err: ErrThresholdsNotMet, Reported: true}
	}
	return nil
}

// loadManifest loads the manifest graph. The project name falls back to
// dbt_project.yml for manifests without metadata.
func loadManifest(path string, logger *slog.Logger) (*manifest.Graph, error) {
	projectDir := os.Getenv(dbt.EnvProjectDir)
	if projectDir == "" {
		projectDir = "."
	}
	projectName, err := dbt.ProjectName(projectDir)
	if err != nil {
		logger.Debug("no project name from dbt_project.yml", slog.String("error", err.Error()))
	}

	graph, err := manifest.LoadFile(path, manifest.LoadOptions{
		ProjectName: projectName,
		Logger:      logger,
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("dbt's manifest.json could not be found at %s. If you're in a dbt project, "+
			"run 'dbt parse' first or use the option '--run-dbt-parse': %w", path, err)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("manifest loaded",
		slog.String("path", path),
		slog.String("project", graph.ProjectName()),
		slog.Int("resources", graph.Len()))
	return graph, nil
}
