package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/dbtscore/internal/cli/output"
	"github.com/leapstack-labs/dbtscore/internal/report"
	"github.com/leapstack-labs/dbtscore/pkg/core"
	"github.com/leapstack-labs/dbtscore/pkg/lint"
	_ "github.com/leapstack-labs/dbtscore/pkg/lint/rules" // register built-in rules
)

// rulePage documents one built-in namespace.
type rulePage struct {
	slug      string
	namespace string
	title     string
}

var rulePages = []rulePage{
	{"generic", lint.BuiltinNamespace + ".generic", "Generic rules"},
	{"sources", lint.BuiltinNamespace + ".sources", "Source rules"},
	{"exposures", lint.BuiltinNamespace + ".exposures", "Exposure rules"},
	{"macros", lint.BuiltinNamespace + ".macros", "Macro rules"},
}

// generateRuleDocs writes one page per built-in rule namespace, plus an index.
func generateRuleDocs(outDir string) error {
	log.Printf("Generating rule docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var rows [][]string
	for _, page := range rulePages {
		rules, err := loadNamespace(page.namespace)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", page.namespace, err)
		}

		var buf bytes.Buffer
		r := output.NewRendererWithTTY(&buf, io.Discard, false, output.ModeMarkdown)
		if err := report.WriteCatalog(r, rules, report.CatalogMarkdown, page.title); err != nil {
			return err
		}

		w := NewMarkdownWriter()
		w.Frontmatter(page.title, "Rules of the "+page.namespace+" namespace")
		w.GeneratedMarker()
		w.Raw(buf.String())

		filename := filepath.Join(outDir, page.slug+".md")
		if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
			return err
		}
		log.Printf("  Generated %s.md (%d rules)", page.slug, len(rules))

		for _, rule := range rules {
			rows = append(rows, []string{
				fmt.Sprintf("[%s](/rules/%s)", InlineCode(rule.Name()), page.slug),
				report.TypeLabel(rule.ResourceType()),
				rule.Severity().String(),
				cleanDescription(rule.Description()),
			})
		}
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Rules", "Built-in rules of dbtscore")
	w.GeneratedMarker()
	w.Header(1, "Rules")
	w.Paragraph(fmt.Sprintf("Built-in rules live in the %s namespace. Severity ranges from %s to %s.",
		InlineCode(lint.BuiltinNamespace), core.SeverityLow, core.SeverityCritical))
	w.Table([]string{"Rule", "Resource", "Severity", "Description"}, rows)

	return os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600)
}

func loadNamespace(namespace string) ([]lint.Rule, error) {
	registry := lint.NewRegistry(lint.RegistryConfig{Namespaces: []string{namespace}}, lint.Builtins())
	if err := registry.LoadAll(); err != nil {
		return nil, err
	}
	return registry.Rules(), nil
}
