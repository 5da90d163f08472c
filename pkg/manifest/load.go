package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/leapstack-labs/dbtscore/pkg/core"
)

// LoadOptions configures Load.
type LoadOptions struct {
	// ProjectName is used when the manifest metadata has no project_name.
	ProjectName string
	Logger      *slog.Logger
}

// ErrNoProjectName is returned when neither the manifest nor the options name the project.
var ErrNoProjectName = errors.New("manifest has no project name")

// LoadFile reads and loads a manifest.json file.
func LoadFile(path string, opts LoadOptions) (*Graph, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user-provided manifest
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Load(data, opts)
}

// Load parses a manifest document. Only resources whose package is the
// current project are kept. Tests are attached to the column they name,
// otherwise to the resource itself.
func Load(data []byte, opts LoadOptions) (*Graph, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var doc rawManifest
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	project := doc.Metadata.ProjectName
	if project == "" {
		project = opts.ProjectName
	}
	if project == "" {
		return nil, ErrNoProjectName
	}

	var resources []Resource
	byID := make(map[string]Resource)
	add := func(raw rawNode) {
		if raw.PackageName != project {
			return
		}
		r := raw.resource()
		if r == nil {
			return
		}
		resources = append(resources, r)
		byID[r.GetUniqueID()] = r
	}

	for _, id := range sortedKeys(doc.Nodes) {
		add(doc.Nodes[id])
	}
	for _, id := range sortedKeys(doc.Sources) {
		add(doc.Sources[id])
	}
	for _, id := range sortedKeys(doc.Exposures) {
		add(doc.Exposures[id])
	}
	for _, id := range sortedKeys(doc.Macros) {
		add(doc.Macros[id])
	}

	for _, id := range sortedKeys(doc.Nodes) {
		raw := doc.Nodes[id]
		if raw.ResourceType != "test" || raw.AttachedNode == "" || raw.PackageName != project {
			continue
		}
		target, ok := byID[raw.AttachedNode]
		if !ok {
			logger.Debug("skipping test attached to unknown node", "test", raw.UniqueID, "node", raw.AttachedNode)
			continue
		}
		attachTest(target, raw, logger)
	}

	g, err := NewGraph(project, resources...)
	if err != nil {
		return nil, err
	}
	g.raw = data

	logger.Debug("manifest loaded", "project", project, "resources", g.Len())
	return g, nil
}

func attachTest(target Resource, raw rawNode, logger *slog.Logger) {
	test := raw.test()
	columnName, _ := test.Kwargs["column_name"].(string)

	var columns []Column
	var tests *[]Test
	switch r := target.(type) {
	case *Model:
		columns, tests = r.Columns, &r.Tests
	case *Source:
		columns, tests = r.Columns, &r.Tests
	case *Seed:
		columns, tests = r.Columns, &r.Tests
	case *Snapshot:
		columns, tests = r.Columns, &r.Tests
	default:
		logger.Debug("skipping test attached to resource without tests", "test", raw.UniqueID, "node", target.GetUniqueID())
		return
	}

	if columnName != "" {
		if col := findColumnFold(columns, columnName); col != nil {
			col.Tests = append(col.Tests, test)
			return
		}
		logger.Warn("test references an unknown column, attaching it to the resource",
			"test", raw.UniqueID, "node", target.GetUniqueID(), "column", columnName)
	}
	*tests = append(*tests, test)
}

func findColumnFold(columns []Column, name string) *Column {
	if col := findColumn(columns, name); col != nil {
		return col
	}
	for i := range columns {
		if strings.EqualFold(columns[i].Name, name) {
			return &columns[i]
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// =============================================================================
// Raw manifest document
// =============================================================================

type rawManifest struct {
	Metadata struct {
		ProjectName string `json:"project_name"`
		DbtVersion  string `json:"dbt_version"`
	} `json:"metadata"`
	Nodes     map[string]rawNode `json:"nodes"`
	Sources   map[string]rawNode `json:"sources"`
	Exposures map[string]rawNode `json:"exposures"`
	Macros    map[string]rawNode `json:"macros"`
}

type rawNode struct {
	UniqueID         string          `json:"unique_id"`
	Name             string          `json:"name"`
	ResourceType     string          `json:"resource_type"`
	PackageName      string          `json:"package_name"`
	Description      string          `json:"description"`
	OriginalFilePath string          `json:"original_file_path"`
	PatchPath        string          `json:"patch_path"`
	Path             string          `json:"path"`
	Config           map[string]any  `json:"config"`
	Meta             map[string]any  `json:"meta"`
	Tags             []string        `json:"tags"`
	Columns          rawColumns      `json:"columns"`
	Constraints      []rawConstraint `json:"constraints"`
	DependsOn        struct {
		Nodes  []string `json:"nodes"`
		Macros []string `json:"macros"`
	} `json:"depends_on"`

	Database      string `json:"database"`
	Schema        string `json:"schema"`
	Alias         string `json:"alias"`
	RelationName  string `json:"relation_name"`
	Group         string `json:"group"`
	Access        string `json:"access"`
	Language      string `json:"language"`
	RawCode       string `json:"raw_code"`
	Version       any    `json:"version"`
	LatestVersion any    `json:"latest_version"`

	SourceName    string         `json:"source_name"`
	Identifier    string         `json:"identifier"`
	Loader        string         `json:"loader"`
	LoadedAtField string         `json:"loaded_at_field"`
	Freshness     map[string]any `json:"freshness"`

	Label    string `json:"label"`
	Type     string `json:"type"`
	Maturity string `json:"maturity"`
	URL      string `json:"url"`
	Owner    struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"owner"`

	MacroSQL  string `json:"macro_sql"`
	Arguments []struct {
		Name        string `json:"name"`
		Type        string `json:"type"`
		Description string `json:"description"`
	} `json:"arguments"`

	AttachedNode string `json:"attached_node"`
	TestMetadata *struct {
		Name   string         `json:"name"`
		Kwargs map[string]any `json:"kwargs"`
	} `json:"test_metadata"`
}

type rawColumn struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	DataType    string          `json:"data_type"`
	Constraints []rawConstraint `json:"constraints"`
	Tags        []string        `json:"tags"`
	Meta        map[string]any  `json:"meta"`
}

type rawConstraint struct {
	Type       string   `json:"type"`
	Name       string   `json:"name"`
	Expression string   `json:"expression"`
	Columns    []string `json:"columns"`
}

// rawColumns decodes the columns object keeping the document order.
type rawColumns []rawColumn

func (c *rawColumns) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("columns: expected object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		var col rawColumn
		if err := dec.Decode(&col); err != nil {
			return fmt.Errorf("column %v: %w", keyTok, err)
		}
		if col.Name == "" {
			col.Name, _ = keyTok.(string)
		}
		*c = append(*c, col)
	}
	_, err = dec.Token()
	return err
}

func (raw rawNode) node(dependsOn []string) Node {
	return Node{
		UniqueID:         raw.UniqueID,
		Name:             raw.Name,
		Description:      raw.Description,
		PackageName:      raw.PackageName,
		OriginalFilePath: raw.OriginalFilePath,
		Config:           orEmpty(raw.Config),
		Meta:             orEmpty(raw.Meta),
		Tags:             raw.Tags,
		DependsOn:        dependsOn,
	}
}

// resource converts an evaluable node, or returns nil for other node kinds.
func (raw rawNode) resource() Resource {
	rt, ok := core.ParseResourceType(raw.ResourceType)
	if !ok {
		return nil
	}
	base := raw.node(raw.DependsOn.Nodes)

	switch rt {
	case core.ResourceModel:
		return &Model{
			Node:          base,
			RelationName:  raw.RelationName,
			PatchPath:     raw.PatchPath,
			Database:      raw.Database,
			Schema:        raw.Schema,
			Alias:         raw.Alias,
			Group:         raw.Group,
			Access:        raw.Access,
			Language:      raw.Language,
			RawCode:       raw.RawCode,
			Version:       stringify(raw.Version),
			LatestVersion: stringify(raw.LatestVersion),
			Columns:       raw.Columns.columns(),
			Constraints:   constraints(raw.Constraints),
		}
	case core.ResourceSource:
		return &Source{
			Node:          base,
			SourceName:    raw.SourceName,
			Identifier:    raw.Identifier,
			Loader:        raw.Loader,
			RelationName:  raw.RelationName,
			Database:      raw.Database,
			Schema:        raw.Schema,
			LoadedAtField: raw.LoadedAtField,
			Freshness:     raw.Freshness,
			Columns:       raw.Columns.columns(),
		}
	case core.ResourceSeed:
		return &Seed{
			Node:         base,
			RelationName: raw.RelationName,
			PatchPath:    raw.PatchPath,
			Database:     raw.Database,
			Schema:       raw.Schema,
			Alias:        raw.Alias,
			Group:        raw.Group,
			Columns:      raw.Columns.columns(),
		}
	case core.ResourceSnapshot:
		return &Snapshot{
			Node:         base,
			RelationName: raw.RelationName,
			PatchPath:    raw.PatchPath,
			Database:     raw.Database,
			Schema:       raw.Schema,
			Alias:        raw.Alias,
			Group:        raw.Group,
			Language:     raw.Language,
			RawCode:      raw.RawCode,
			Columns:      raw.Columns.columns(),
			Constraints:  constraints(raw.Constraints),
		}
	case core.ResourceExposure:
		return &Exposure{
			Node:     base,
			Label:    raw.Label,
			Type:     raw.Type,
			Maturity: raw.Maturity,
			URL:      raw.URL,
			Owner:    ExposureOwner{Name: raw.Owner.Name, Email: raw.Owner.Email},
		}
	case core.ResourceMacro:
		macro := &Macro{
			Node:     raw.node(raw.DependsOn.Macros),
			Path:     raw.Path,
			MacroSQL: raw.MacroSQL,
		}
		for _, arg := range raw.Arguments {
			macro.Arguments = append(macro.Arguments, MacroArgument{
				Name:        arg.Name,
				Type:        arg.Type,
				Description: arg.Description,
			})
		}
		return macro
	}
	return nil
}

func (raw rawNode) test() Test {
	t := Test{Name: raw.Name, Tags: raw.Tags, Kwargs: map[string]any{}}
	if raw.TestMetadata != nil {
		t.Type = raw.TestMetadata.Name
		if raw.TestMetadata.Kwargs != nil {
			t.Kwargs = raw.TestMetadata.Kwargs
		}
	}
	return t
}

func (c rawColumns) columns() []Column {
	out := make([]Column, 0, len(c))
	for _, col := range c {
		out = append(out, Column{
			Name:        col.Name,
			Description: col.Description,
			DataType:    col.DataType,
			Constraints: constraints(col.Constraints),
			Tags:        col.Tags,
			Meta:        orEmpty(col.Meta),
		})
	}
	return out
}

func constraints(raw []rawConstraint) []Constraint {
	out := make([]Constraint, 0, len(raw))
	for _, c := range raw {
		out = append(out, Constraint(c))
	}
	return out
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprint(val)
	}
}
