package generic

import (
	"strings"

	"github.com/leapstack-labs/dbtscore/pkg/core"
	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/leapstack-labs/dbtscore/pkg/lint/rules/internal/check"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
)

func init() {
	lint.RegisterRule(HasDescription)
	lint.RegisterRule(ColumnsHaveDescription)
	lint.RegisterRule(HasOwner)
	lint.RegisterRule(SQLHasReasonableNumberOfLines)
	lint.RegisterRule(HasExampleSQL)
}

// HasDescription requires a model description.
var HasDescription = lint.Define(Namespace, lint.RuleSpec{
	Name:        "has_description",
	Description: "A model should have a description.",
}, func(_ *lint.Context, m *manifest.Model) (*lint.Violation, error) {
	if m.Description == "" {
		return lint.Violationf("Model lacks a description."), nil
	}
	return nil, nil
})

// ColumnsHaveDescription requires a description on every model column.
var ColumnsHaveDescription = lint.Define(Namespace, lint.RuleSpec{
	Name:        "columns_have_description",
	Description: "All columns of a model should have a description.",
}, func(_ *lint.Context, m *manifest.Model) (*lint.Violation, error) {
	if names := check.UndocumentedColumns(m.Columns); len(names) > 0 {
		return &lint.Violation{Message: check.ListMessage("Columns lack a description", names)}, nil
	}
	return nil, nil
})

// HasOwner requires meta.owner on a model.
var HasOwner = lint.Define(Namespace, lint.RuleSpec{
	Name:        "has_owner",
	Description: "A model should have an owner.",
}, func(_ *lint.Context, m *manifest.Model) (*lint.Violation, error) {
	if !manifest.IsSet(m.Meta["owner"]) {
		return lint.Violationf("Model lacks an owner."), nil
	}
	return nil, nil
})

// SQLHasReasonableNumberOfLines bounds the length of the raw SQL.
var SQLHasReasonableNumberOfLines = lint.Define(Namespace, lint.RuleSpec{
	Name:        "sql_has_reasonable_number_of_lines",
	Description: "The SQL query of a model should not be too long.",
	Params:      lint.Params{"max_lines": 200},
}, func(ctx *lint.Context, m *manifest.Model) (*lint.Violation, error) {
	maxLines, err := ctx.Params.Int("max_lines")
	if err != nil {
		return nil, err
	}
	count := strings.Count(m.RawCode, "\n") + 1
	if count > maxLines {
		return lint.Violationf("SQL query too long: %d lines (> %d).", count, maxLines), nil
	}
	return nil, nil
})

// HasExampleSQL asks SQL models to document an example query.
var HasExampleSQL = lint.Define(Namespace, lint.RuleSpec{
	Name:        "has_example_sql",
	Description: "The documentation of a model should have an example query.",
	Severity:    core.SeverityLow,
}, func(_ *lint.Context, m *manifest.Model) (*lint.Violation, error) {
	if m.Language == "sql" && !strings.Contains(m.Description, "```sql") {
		return lint.Violationf("The model description does not include an example SQL query."), nil
	}
	return nil, nil
})
