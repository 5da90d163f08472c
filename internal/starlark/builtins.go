package starlark

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/leapstack-labs/dbtscore/pkg/core"
)

// moduleKey is the thread-local key of the module being executed.
const moduleKey = "dbtscore.module"

// violationCtor is the constructor of values returned by violation().
const violationCtor = starlark.String("violation")

// module collects the declarations of one executing file.
type module struct {
	name    string
	rules   []*ruleValue
	filters []*filterValue
}

// ruleValue is the value returned by rule().
type ruleValue struct {
	name         string
	description  string
	severity     core.Severity
	resourceType core.ResourceType
	fn           *starlark.Function
	params       map[string]any
	filters      []*filterValue
}

var _ starlark.Value = (*ruleValue)(nil)

func (r *ruleValue) String() string        { return fmt.Sprintf("<rule %s>", r.name) }
func (r *ruleValue) Type() string          { return "rule" }
func (r *ruleValue) Freeze()               {}
func (r *ruleValue) Truth() starlark.Bool  { return starlark.True }
func (r *ruleValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: rule") }

// filterValue is the value returned by rule_filter().
type filterValue struct {
	name         string
	description  string
	resourceType core.ResourceType
	fn           *starlark.Function
}

var _ starlark.Value = (*filterValue)(nil)

func (f *filterValue) String() string        { return fmt.Sprintf("<rule_filter %s>", f.name) }
func (f *filterValue) Type() string          { return "rule_filter" }
func (f *filterValue) Freeze()               {}
func (f *filterValue) Truth() starlark.Bool  { return starlark.True }
func (f *filterValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: rule_filter") }

// Predeclared returns the globals available to rule scripts.
func Predeclared() starlark.StringDict {
	return starlark.StringDict{
		"rule":        starlark.NewBuiltin("rule", ruleBuiltin),
		"rule_filter": starlark.NewBuiltin("rule_filter", filterBuiltin),
		"violation":   starlark.NewBuiltin("violation", violationBuiltin),
		"LOW":         starlark.MakeInt(int(core.SeverityLow)),
		"MEDIUM":      starlark.MakeInt(int(core.SeverityMedium)),
		"HIGH":        starlark.MakeInt(int(core.SeverityHigh)),
		"CRITICAL":    starlark.MakeInt(int(core.SeverityCritical)),
	}
}

func currentModule(thread *starlark.Thread, fn string) (*module, error) {
	m, ok := thread.Local(moduleKey).(*module)
	if !ok {
		return nil, fmt.Errorf("%s: can only be called while loading a rule module", fn)
	}
	return m, nil
}

// rule(fn, resource_type, name=fn.name, description=fn.doc, severity=MEDIUM, filters=[])
func ruleBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		fn           *starlark.Function
		resourceType string
		name         string
		description  string
		severity     starlark.Value = starlark.None
		filters      *starlark.List
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"fn", &fn,
		"resource_type", &resourceType,
		"name?", &name,
		"description?", &description,
		"severity?", &severity,
		"filters?", &filters,
	); err != nil {
		return nil, err
	}

	m, err := currentModule(thread, b.Name())
	if err != nil {
		return nil, err
	}

	rt, ok := core.ParseResourceType(resourceType)
	if !ok {
		return nil, fmt.Errorf("%s: unknown resource_type %q", b.Name(), resourceType)
	}
	if name == "" {
		name = fn.Name()
	}
	if description == "" {
		description = docSummary(fn)
	}

	sev := core.DefaultSeverity
	if severity != starlark.None {
		raw, err := ToGo(severity)
		if err != nil {
			return nil, fmt.Errorf("%s: severity: %w", b.Name(), err)
		}
		if sev, err = core.SeverityFromValue(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
	}

	if fn.NumParams() < 1 {
		return nil, fmt.Errorf("%s: %s must take the %s to evaluate as first parameter", b.Name(), fn.Name(), rt)
	}
	params := make(map[string]any, fn.NumParams()-1)
	for i := 1; i < fn.NumParams(); i++ {
		pname, _ := fn.Param(i)
		def := fn.ParamDefault(i)
		if def == nil {
			return nil, fmt.Errorf("%s: parameter %s of %s needs a default value", b.Name(), pname, fn.Name())
		}
		v, err := ToGo(def)
		if err != nil {
			return nil, fmt.Errorf("%s: parameter %s: %w", b.Name(), pname, err)
		}
		params[pname] = v
	}

	rv := &ruleValue{
		name:         name,
		description:  description,
		severity:     sev,
		resourceType: rt,
		fn:           fn,
		params:       params,
	}
	if filters != nil {
		for i := 0; i < filters.Len(); i++ {
			f, ok := filters.Index(i).(*filterValue)
			if !ok {
				return nil, fmt.Errorf("%s: filters[%d] is a %s, want rule_filter", b.Name(), i, filters.Index(i).Type())
			}
			rv.filters = append(rv.filters, f)
		}
	}

	m.rules = append(m.rules, rv)
	return rv, nil
}

// rule_filter(fn, resource_type, name=fn.name, description=fn.doc)
func filterBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		fn           *starlark.Function
		resourceType string
		name         string
		description  string
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"fn", &fn,
		"resource_type", &resourceType,
		"name?", &name,
		"description?", &description,
	); err != nil {
		return nil, err
	}

	m, err := currentModule(thread, b.Name())
	if err != nil {
		return nil, err
	}

	rt, ok := core.ParseResourceType(resourceType)
	if !ok {
		return nil, fmt.Errorf("%s: unknown resource_type %q", b.Name(), resourceType)
	}
	if fn.NumParams() != 1 {
		return nil, fmt.Errorf("%s: %s must take exactly one parameter", b.Name(), fn.Name())
	}
	if name == "" {
		name = fn.Name()
	}
	if description == "" {
		description = docSummary(fn)
	}

	fv := &filterValue{name: name, description: description, resourceType: rt, fn: fn}
	m.filters = append(m.filters, fv)
	return fv, nil
}

// violation(message=None)
func violationBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "message?", &message); err != nil {
		return nil, err
	}
	if message != starlark.None {
		if _, ok := message.(starlark.String); !ok {
			return nil, fmt.Errorf("%s: message must be a string, got %s", b.Name(), message.Type())
		}
	}
	return starlarkstruct.FromStringDict(violationCtor, starlark.StringDict{"message": message}), nil
}

// docSummary returns the first line of the docstring of fn.
func docSummary(fn *starlark.Function) string {
	doc, _, _ := strings.Cut(strings.TrimSpace(fn.Doc()), "\n")
	return strings.TrimSpace(doc)
}
