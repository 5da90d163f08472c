package starlark

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/leapstack-labs/dbtscore/pkg/lint"
	"github.com/leapstack-labs/dbtscore/pkg/manifest"
)

// fileExt is the extension of rule modules.
const fileExt = ".star"

// Catalog resolves namespaces to scripted rule modules under a root
// directory. It implements lint.Catalog.
type Catalog struct {
	root   string
	pool   *ThreadPool
	logger *slog.Logger
}

var _ lint.Catalog = (*Catalog)(nil)

// NewCatalog creates a catalog rooted at root, usually the dbt project
// directory.
func NewCatalog(root string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Catalog{
		root:   root,
		pool:   NewThreadPool(0, logger),
		logger: logger,
	}
}

// Lookup implements lint.Catalog.
func (c *Catalog) Lookup(namespace string) (lint.Definitions, bool, error) {
	parts := strings.Split(namespace, ".")
	for _, p := range parts {
		if err := validateIdentifier(p); err != nil {
			// Not a path this catalog can hold.
			return lint.Definitions{}, false, nil
		}
	}

	files, err := c.resolve(namespace, parts)
	if err != nil || len(files) == 0 {
		return lint.Definitions{}, false, err
	}

	var defs lint.Definitions
	for _, f := range files {
		m, err := c.exec(f.module, f.path)
		if err != nil {
			return lint.Definitions{}, false, err
		}
		rules, filters := c.definitions(m)
		defs.Rules = append(defs.Rules, rules...)
		defs.Filters = append(defs.Filters, filters...)
	}
	return defs, true, nil
}

type moduleFile struct {
	module string
	path   string
}

// resolve lists the module files of namespace, sorted by module name.
func (c *Catalog) resolve(namespace string, parts []string) ([]moduleFile, error) {
	dir := filepath.Join(append([]string{c.root}, parts...)...)

	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		var files []moduleFile
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || filepath.Ext(path) != fileExt {
				return nil
			}
			rel, err := filepath.Rel(dir, strings.TrimSuffix(path, fileExt))
			if err != nil {
				return err
			}
			sub := strings.Split(filepath.ToSlash(rel), "/")
			for _, s := range sub {
				if err := validateIdentifier(s); err != nil {
					c.logger.Warn("skipping rule module", slog.String("path", path), slog.String("reason", err.Error()))
					return nil
				}
			}
			files = append(files, moduleFile{module: namespace + "." + strings.Join(sub, "."), path: path})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning rule namespace %s: %w", namespace, err)
		}
		slices.SortFunc(files, func(a, b moduleFile) int { return strings.Compare(a.module, b.module) })
		return files, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("accessing rule namespace %s: %w", namespace, err)
	}

	file := dir + fileExt
	if _, err := os.Stat(file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("accessing rule namespace %s: %w", namespace, err)
	}
	return []moduleFile{{module: namespace, path: file}}, nil
}

// exec runs one module file and returns its declarations.
func (c *Catalog) exec(name, path string) (*module, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from filepath.WalkDir within the namespace directory
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}

	m := &module{name: name}
	thread := c.pool.Get("load:" + name)
	thread.SetLocal(moduleKey, m)
	defer func() {
		thread.SetLocal(moduleKey, nil)
		c.pool.Put(thread)
	}()

	globals, err := starlark.ExecFile(thread, path, content, Predeclared()) //nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("Starlark execution error: %v", err)}
	}
	globals.Freeze()

	c.logger.Debug("loaded rule module",
		slog.String("module", name),
		slog.Int("rules", len(m.rules)),
		slog.Int("filters", len(m.filters)))
	return m, nil
}

// definitions converts a module's declarations, sorted by name.
func (c *Catalog) definitions(m *module) ([]lint.RuleDef, []lint.FilterDef) {
	filterDefs := make(map[*filterValue]lint.FilterDef, len(m.filters))
	filters := make([]lint.FilterDef, 0, len(m.filters))
	for _, fv := range m.filters {
		def := c.filterDef(m.name, fv)
		filterDefs[fv] = def
		filters = append(filters, def)
	}

	rules := make([]lint.RuleDef, 0, len(m.rules))
	for _, rv := range m.rules {
		def := lint.RuleDef{
			Namespace:    m.name,
			Name:         lint.Qualify(m.name, rv.name),
			Description:  rv.description,
			Severity:     rv.severity,
			ResourceType: rv.resourceType,
			Params:       lint.Params(rv.params),
			Check:        c.check(rv),
		}
		for _, fv := range rv.filters {
			def.Filters = append(def.Filters, filterDefs[fv])
		}
		rules = append(rules, def)
	}

	slices.SortFunc(rules, func(a, b lint.RuleDef) int { return strings.Compare(a.Name, b.Name) })
	slices.SortFunc(filters, func(a, b lint.FilterDef) int { return strings.Compare(a.Name, b.Name) })
	return rules, filters
}

func (c *Catalog) filterDef(moduleName string, fv *filterValue) lint.FilterDef {
	return lint.FilterDef{
		Namespace:    moduleName,
		Name:         lint.Qualify(moduleName, fv.name),
		Description:  fv.description,
		ResourceType: fv.resourceType,
		Predicate:    c.predicate(fv),
	}
}

// check wraps a scripted rule function. None passes, violation() fails.
func (c *Catalog) check(rv *ruleValue) func(*lint.Context, manifest.Resource) (*lint.Violation, error) {
	return func(ctx *lint.Context, r manifest.Resource) (*lint.Violation, error) {
		arg, err := ResourceToStarlark(r)
		if err != nil {
			return nil, err
		}

		kwargs := make([]starlark.Tuple, 0, len(ctx.Params))
		for _, k := range slices.Sorted(maps.Keys(ctx.Params)) {
			v, err := GoToStarlark(ctx.Params[k])
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", k, err)
			}
			kwargs = append(kwargs, starlark.Tuple{starlark.String(k), v})
		}

		thread := c.pool.Get(ctx.Rule)
		defer c.pool.Put(thread)

		result, err := starlark.Call(thread, rv.fn, starlark.Tuple{arg}, kwargs)
		if err != nil {
			return nil, err
		}
		return toViolation(result)
	}
}

// predicate wraps a scripted filter function. Script errors panic and
// abort the evaluation.
func (c *Catalog) predicate(fv *filterValue) func(manifest.Resource) bool {
	return func(r manifest.Resource) bool {
		arg, err := ResourceToStarlark(r)
		if err != nil {
			panic(err)
		}

		thread := c.pool.Get(fv.name)
		defer c.pool.Put(thread)

		result, err := starlark.Call(thread, fv.fn, starlark.Tuple{arg}, nil)
		if err != nil {
			panic(err)
		}
		return bool(result.Truth())
	}
}

func toViolation(v starlark.Value) (*lint.Violation, error) {
	if v == starlark.None {
		return nil, nil
	}
	s, ok := v.(*starlarkstruct.Struct)
	if !ok || s.Constructor() != violationCtor {
		return nil, fmt.Errorf("rule returned %s, want violation() or None", v.Type())
	}
	msg, err := s.Attr("message")
	if err != nil {
		return nil, err
	}
	if str, ok := msg.(starlark.String); ok {
		return &lint.Violation{Message: string(str)}, nil
	}
	return &lint.Violation{}, nil
}

// LoadError represents an error loading a rule module.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// validateIdentifier checks that name can be a namespace segment.
func validateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("namespace segment cannot be empty")
	}

	for i, r := range name {
		if i == 0 {
			if !isLetter(r) && r != '_' {
				return fmt.Errorf("namespace segment must start with letter or underscore: %s", name)
			}
		} else {
			if !isLetter(r) && !isDigit(r) && r != '_' {
				return fmt.Errorf("namespace segment contains invalid character: %s", name)
			}
		}
	}

	return nil
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
