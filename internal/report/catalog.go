package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/dbtscore/internal/cli/output"
	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"gopkg.in/yaml.v3"
)

// Catalog format names.
const (
	CatalogTerminal = "terminal"
	CatalogMarkdown = "markdown"
	CatalogTable    = "table"
)

// CatalogFormats lists the supported catalog formats.
var CatalogFormats = []string{CatalogTerminal, CatalogMarkdown, CatalogTable}

// DefaultCatalogTitle is the markdown page title when none is given.
const DefaultCatalogTitle = "Rules"

// WriteCatalog documents rules in the given format. title only applies to
// markdown.
func WriteCatalog(r *output.Renderer, rules []lint.Rule, format, title string) error {
	switch format {
	case CatalogTerminal:
		for _, rule := range rules {
			r.Printf("%s:\n%s%s\n\n", r.Styles().Bold.Render(rule.Name()), indent, rule.Description())
		}
	case CatalogMarkdown:
		if title == "" {
			title = DefaultCatalogTitle
		}
		r.Printf("# %s\n\n", title)
		for _, rule := range rules {
			doc, err := markdownRule(rule)
			if err != nil {
				return err
			}
			r.Println(doc)
		}
	case CatalogTable:
		rows := make([][]string, 0, len(rules))
		for _, rule := range rules {
			rows = append(rows, []string{
				rule.Name(),
				TypeLabel(rule.ResourceType()),
				rule.Severity().String(),
				rule.Description(),
			})
		}
		r.Table([]string{"Rule", "Resource", "Severity", "Description"}, rows)
	default:
		return fmt.Errorf("unknown catalog format %q, want one of %v", format, CatalogFormats)
	}
	return nil
}

func markdownRule(rule lint.Rule) (string, error) {
	name := rule.Name()
	short := name[strings.LastIndex(name, ".")+1:]

	cfg, err := defaultConfigYAML(rule)
	if err != nil {
		return "", fmt.Errorf("rule %s: %w", name, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## `%s`\n\n", short)
	fmt.Fprintf(&b, "%s\n\n", rule.Description())
	b.WriteString("### Default configuration\n\n")
	b.WriteString("```yaml title=\"dbt_score.yaml\"\n")
	b.WriteString(cfg)
	b.WriteString("```\n")
	return b.String(), nil
}

// defaultConfigYAML renders the configuration block that reproduces the
// rule's defaults, severity first and parameters sorted.
func defaultConfigYAML(rule lint.Rule) (string, error) {
	body := &yaml.Node{Kind: yaml.MappingNode}
	body.Content = append(body.Content,
		scalar("severity"),
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(int(rule.Severity()))},
	)
	params := rule.DefaultConfig()
	for _, k := range sortedKeys(params) {
		v := &yaml.Node{}
		if err := v.Encode(params[k]); err != nil {
			return "", err
		}
		body.Content = append(body.Content, scalar(k), v)
	}

	rules := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{scalar(rule.Name()), body}}
	root := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{scalar("rules"), rules}}

	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
