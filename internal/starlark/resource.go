package starlark

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/leapstack-labs/dbtscore/pkg/manifest"
)

// ResourceToStarlark converts a manifest resource to a frozen Starlark
// struct. Field names follow the dbt manifest.
func ResourceToStarlark(r manifest.Resource) (starlark.Value, error) {
	n := r.Common()
	fields := map[string]any{
		"unique_id":          n.UniqueID,
		"name":               n.Name,
		"resource_type":      string(r.ResourceType()),
		"description":        n.Description,
		"package_name":       n.PackageName,
		"original_file_path": n.OriginalFilePath,
		"config":             orEmpty(n.Config),
		"meta":               orEmpty(n.Meta),
		"tags":               orEmptyList(n.Tags),
		"depends_on":         orEmptyList(n.DependsOn),
		"parents":            orEmptyList(n.Parents()),
		"children":           orEmptyList(n.Children()),
	}

	switch res := r.(type) {
	case *manifest.Model:
		fields["relation_name"] = res.RelationName
		fields["patch_path"] = res.PatchPath
		fields["database"] = res.Database
		fields["schema"] = res.Schema
		fields["alias"] = res.Alias
		fields["group"] = res.Group
		fields["access"] = res.Access
		fields["language"] = res.Language
		fields["raw_code"] = res.RawCode
		fields["version"] = res.Version
		fields["latest_version"] = res.LatestVersion
		fields["materialized"] = res.Materialization()
		fields["columns"] = columnsToGo(res.Columns)
		fields["constraints"] = constraintsToGo(res.Constraints)
		fields["tests"] = testsToGo(res.Tests)
	case *manifest.Source:
		fields["source_name"] = res.SourceName
		fields["identifier"] = res.Identifier
		fields["loader"] = res.Loader
		fields["relation_name"] = res.RelationName
		fields["database"] = res.Database
		fields["schema"] = res.Schema
		fields["loaded_at_field"] = res.LoadedAtField
		fields["freshness"] = orEmpty(res.Freshness)
		fields["columns"] = columnsToGo(res.Columns)
		fields["tests"] = testsToGo(res.Tests)
	case *manifest.Seed:
		fields["relation_name"] = res.RelationName
		fields["patch_path"] = res.PatchPath
		fields["database"] = res.Database
		fields["schema"] = res.Schema
		fields["alias"] = res.Alias
		fields["group"] = res.Group
		fields["columns"] = columnsToGo(res.Columns)
		fields["tests"] = testsToGo(res.Tests)
	case *manifest.Snapshot:
		fields["relation_name"] = res.RelationName
		fields["patch_path"] = res.PatchPath
		fields["database"] = res.Database
		fields["schema"] = res.Schema
		fields["alias"] = res.Alias
		fields["group"] = res.Group
		fields["language"] = res.Language
		fields["raw_code"] = res.RawCode
		fields["strategy"] = res.Strategy()
		fields["columns"] = columnsToGo(res.Columns)
		fields["constraints"] = constraintsToGo(res.Constraints)
		fields["tests"] = testsToGo(res.Tests)
	case *manifest.Exposure:
		fields["label"] = res.Label
		fields["type"] = res.Type
		fields["maturity"] = res.Maturity
		fields["url"] = res.URL
		fields["owner"] = map[string]any{"name": res.Owner.Name, "email": res.Owner.Email}
	case *manifest.Macro:
		fields["path"] = res.Path
		fields["macro_sql"] = res.MacroSQL
		args := make([]any, len(res.Arguments))
		for i, a := range res.Arguments {
			args[i] = map[string]any{"name": a.Name, "type": a.Type, "description": a.Description}
		}
		fields["arguments"] = args
	default:
		return nil, fmt.Errorf("unsupported resource %T", r)
	}

	dict := make(starlark.StringDict, len(fields))
	for k, v := range fields {
		sv, err := GoToStarlark(v)
		if err != nil {
			return nil, fmt.Errorf("%s: field %s: %w", r.GetUniqueID(), k, err)
		}
		dict[k] = sv
	}
	value := starlarkstruct.FromStringDict(starlark.String(r.ResourceType()), dict)
	value.Freeze()
	return value, nil
}

func columnsToGo(columns []manifest.Column) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = map[string]any{
			"name":        c.Name,
			"description": c.Description,
			"data_type":   c.DataType,
			"constraints": constraintsToGo(c.Constraints),
			"tests":       testsToGo(c.Tests),
			"tags":        orEmptyList(c.Tags),
			"meta":        orEmpty(c.Meta),
		}
	}
	return out
}

func constraintsToGo(constraints []manifest.Constraint) []any {
	out := make([]any, len(constraints))
	for i, c := range constraints {
		out[i] = map[string]any{
			"type":       c.Type,
			"name":       c.Name,
			"expression": c.Expression,
			"columns":    orEmptyList(c.Columns),
		}
	}
	return out
}

func testsToGo(tests []manifest.Test) []any {
	out := make([]any, len(tests))
	for i, t := range tests {
		out[i] = map[string]any{
			"name":   t.Name,
			"type":   t.Type,
			"kwargs": orEmpty(t.Kwargs),
			"tags":   orEmptyList(t.Tags),
		}
	}
	return out
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func orEmptyList(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
