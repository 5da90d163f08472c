package commands

import (
	"github.com/leapstack-labs/dbtscore/internal/report"
	"github.com/spf13/cobra"
)

// ListOptions holds options for the list command.
type ListOptions struct {
	Format string
	Title  string
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	opts := &ListOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Display the rules catalog",
		Long: `List the rules of the configured namespaces with their description.

Formats:
  - terminal: rule names and descriptions
  - markdown: a documentation page with each rule's default configuration
  - table:    one row per rule with resource type and severity`,
		Example: `  # List every enabled rule
  dbtscore list

  # Generate documentation for the built-in rules
  dbtscore list --namespace dbt_score.rules --format markdown --title "Built-in rules"

  # Include a project namespace
  dbtscore list -n dbt_score.rules -n project_rules -f table`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", report.CatalogTerminal, "Output format: terminal, markdown, table")
	cmd.Flags().StringVar(&opts.Title, "title", report.DefaultCatalogTitle, "Page title (markdown only)")
	addRuleFlags(cmd)

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return report.CatalogFormats, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runList(cmd *cobra.Command, opts *ListOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	registry, err := cmdCtx.LoadRegistry()
	if err != nil {
		return err
	}

	return report.WriteCatalog(cmdCtx.Renderer, registry.Rules(), opts.Format, opts.Title)
}
