package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/dbtscore/internal/cli"
	"github.com/leapstack-labs/dbtscore/internal/cli/commands"
	"github.com/leapstack-labs/dbtscore/internal/cli/config"
	"github.com/leapstack-labs/dbtscore/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var showModeDocs = map[string]string{
	string(report.ShowAll):          "every resource with every rule outcome",
	string(report.ShowFailingItems): "only resources scoring under `fail_any_item_under`, with every rule outcome",
	string(report.ShowFailingRules): "every resource, with only the rules that failed or errored",
}

var formatDocs = map[string]string{
	report.FormatPlain:    "human-readable report, styled on a terminal",
	report.FormatJSON:     "one JSON document with every resource, rule result and the project score",
	report.FormatASCII:    "the project badge as ASCII art",
	report.FormatManifest: "the manifest with `meta.score` and `meta.badge` added to every evaluated resource",
}

var catalogFormatDocs = map[string]string{
	report.CatalogTerminal: "rule names and descriptions",
	report.CatalogMarkdown: "one section per rule with its default configuration as YAML",
	report.CatalogTable:    "one row per rule",
}

// fileOnlyOptions are configuration options without a flag.
var fileOnlyOptions = [][]string{
	{"badges.<tier>.icon", "`DBT_SCORE_BADGES__<TIER>__ICON`", "Badge icon of `first`, `second`, `third` or `wip`"},
	{"badges.<tier>.threshold", "`DBT_SCORE_BADGES__<TIER>__THRESHOLD`", "Minimum score of the tier (`wip` has none)"},
	{"rules.<rule>.severity", "", "Severity override: low, medium, high, critical or 1-4"},
	{"rules.<rule>.description", "", "Description override"},
	{"rules.<rule>.rule_filter_names", "", "Filters replacing the rule's own filters"},
	{"rules.<rule>.<param>", "", "Rule parameter, see the rules reference"},
}

// generateCLIDocs writes the CLI reference: one page listing commands,
// configuration and exit codes, plus a page per command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	cmds := documentedCommands(root)

	if err := writePage(outDir, "index.md", cliIndex(root, cmds)); err != nil {
		return err
	}
	for _, cmd := range cmds {
		if err := writePage(outDir, cmd.Name()+".md", commandPage(cmd)); err != nil {
			return err
		}
	}
	return nil
}

func writePage(outDir, name string, w *MarkdownWriter) error {
	if err := os.WriteFile(filepath.Join(outDir, name), w.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	log.Printf("  Generated %s", name)
	return nil
}

func documentedCommands(root *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.IsAvailableCommand() {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

func cliIndex(root *cobra.Command, cmds []*cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for dbtscore")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(cleanDescription(root.Short))
	w.CodeBlock("bash", "go install github.com/leapstack-labs/dbtscore/cmd/dbtscore@latest")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range cmds {
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	flagTable(w, root.PersistentFlags())

	w.Header(2, "Configuration")
	w.Paragraph("Options are read from `dbt_score.yaml` (or `dbt_score.yml`), searched from the working " +
		"directory upward, then from `DBT_SCORE_*` environment variables, then from flags. " +
		"Later sources win. List options accept comma-separated values in the environment.")
	w.Table([]string{"Option", "Flag", "Environment", "Default"}, optionRows(cmds))
	w.Paragraph("Options only settable in the file or the environment:")
	w.Table([]string{"Option", "Environment", "Description"}, fileOnlyRows())
	w.CodeBlock("yaml", `rule_namespaces:
  - dbt_score.rules
  - project_rules
disabled_rules:
  - dbt_score.rules.generic.has_example_sql
fail_any_item_under: 6.5
badges:
  first:
    icon: "🏆"
rules:
  dbt_score.rules.generic.sql_has_reasonable_number_of_lines:
    severity: 1
    max_lines: 300`)

	w.Header(2, "Environment Variables")
	w.Table([]string{"Variable", "Description"}, [][]string{
		{InlineCode("DBT_PROJECT_DIR"), "dbt project directory: locates the manifest and `dbt_project.yml`"},
		{InlineCode("DBT_TARGET_DIR"), "dbt target directory inside the project (default `target`)"},
		{InlineCode("NO_COLOR"), "Disable colored output"},
	})

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode(strconv.Itoa(commands.ExitOK)), "Success"},
		{InlineCode(strconv.Itoa(commands.ExitThresholds)), "The project or a resource scored under its failure threshold"},
		{InlineCode(strconv.Itoa(commands.ExitUsage)), "Usage, configuration, manifest or dbt error, reported on stderr"},
	})
	return w
}

// optionRows lists the options a flag can set, once each, in flag order.
func optionRows(cmds []*cobra.Command) [][]string {
	var seen []string
	var rows [][]string
	for _, cmd := range cmds {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			key, ok := config.FlagKey(f.Name)
			if !ok || slices.Contains(seen, key) {
				return
			}
			seen = append(seen, key)
			rows = append(rows, []string{
				InlineCode(key),
				InlineCode("--" + f.Name),
				InlineCode(config.EnvVar(key)),
				defaultValue(f),
			})
		})
	}
	return rows
}

func fileOnlyRows() [][]string {
	rows := make([][]string, len(fileOnlyOptions))
	for i, o := range fileOnlyOptions {
		rows[i] = []string{InlineCode(o[0]), o[1], o[2]}
	}
	return rows
}

func commandPage(cmd *cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, "dbtscore "+cmd.Name())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	w.CodeBlock("bash", cmd.UseLine())

	if cmd.HasAvailableLocalFlags() {
		w.Header(2, "Options")
		flagTable(w, cmd.LocalFlags())
	}

	switch cmd.Name() {
	case "lint":
		w.Header(2, "Formats")
		w.BulletList(describe(report.Formats, formatDocs))
		shows := make([]string, len(report.ShowModes))
		for i, m := range report.ShowModes {
			shows[i] = string(m)
		}
		w.Header(2, "Show Modes")
		w.Paragraph("`--show` applies to the plain format.")
		w.BulletList(describe(shows, showModeDocs))
	case "list":
		w.Header(2, "Formats")
		w.BulletList(describe(report.CatalogFormats, catalogFormatDocs))
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", dedent(cmd.Example))
	}
	return w
}

func describe(names []string, docs map[string]string) []string {
	items := make([]string, len(names))
	for i, n := range names {
		items[i] = InlineCode(n) + ": " + docs[n]
	}
	return items
}

// flagTable writes a flag table. Flags that set a configuration option
// name it.
func flagTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		short := ""
		if f.Shorthand != "" {
			short = InlineCode("-" + f.Shorthand)
		}
		option := ""
		if key, ok := config.FlagKey(f.Name); ok {
			option = InlineCode(key)
		}
		rows = append(rows, []string{
			InlineCode("--" + f.Name),
			short,
			defaultValue(f),
			option,
			cleanDescription(f.Usage),
		})
	})
	w.Table([]string{"Flag", "Short", "Default", "Option", "Description"}, rows)
}

func defaultValue(f *pflag.Flag) string {
	switch f.DefValue {
	case "", "[]", "false":
		return ""
	}
	return InlineCode(f.DefValue)
}

// dedent strips the indentation shared by the non-blank lines of s.
func dedent(s string) string {
	lines := strings.Split(strings.Trim(s, "\n"), "\n")
	common := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	for i, line := range lines {
		if len(line) >= common && common > 0 {
			lines[i] = line[common:]
		}
	}
	return strings.Join(lines, "\n")
}
