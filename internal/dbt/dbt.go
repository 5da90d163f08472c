// Package dbt invokes the dbt executable to regenerate the manifest and to
// resolve node selection expressions.
package dbt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/executor"
	"gopkg.in/yaml.v3"
)

// Environment variables honored when locating the manifest.
const (
	EnvProjectDir = "DBT_PROJECT_DIR"
	EnvTargetDir  = "DBT_TARGET_DIR"

	DefaultTargetDir = "target"
	ManifestFile     = "manifest.json"
	ProjectFile      = "dbt_project.yml"
)

// ErrParseFailed matches any error returned by a failed `dbt parse`.
var ErrParseFailed = errors.New("dbt parse failed")

// ParseError reports a failed `dbt parse`. The underlying command error is
// kept for logging.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string { return "dbt parse failed." }

func (e *ParseError) Unwrap() []error { return []error{ErrParseFailed, e.Cause} }

// listResourceTypes are passed to `dbt ls` so selection covers every
// resource kind the linter evaluates.
var listResourceTypes = []string{"model", "source", "snapshot", "seed", "exposure"}

// Runner is the subset of dbt used by the linter.
type Runner interface {
	Parse(ctx context.Context) error
	List(ctx context.Context, selectors []string) ([]string, error)
}

// CommandError describes a dbt invocation that exited with a failure.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("dbt %s exited with code %d", strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// Option configures a CommandRunner.
type Option func(*CommandRunner)

// WithExecutable overrides the dbt executable (default "dbt" on PATH).
func WithExecutable(path string) Option {
	return func(r *CommandRunner) { r.executable = path }
}

// WithWorkingDir runs dbt from dir.
func WithWorkingDir(dir string) Option {
	return func(r *CommandRunner) { r.dir = dir }
}

// WithEnv adds a variable to the inherited environment.
func WithEnv(key, value string) Option {
	return func(r *CommandRunner) { r.env[key] = value }
}

// WithLogger sets the logger for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(r *CommandRunner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithOutput streams dbt stdout to w in addition to capturing it.
func WithOutput(w io.Writer) Option {
	return func(r *CommandRunner) { r.stream = w }
}

// CommandRunner runs dbt as a subprocess.
type CommandRunner struct {
	executable string
	dir        string
	env        map[string]string
	stream     io.Writer
	logger     *slog.Logger
}

// NewRunner creates a CommandRunner.
func NewRunner(opts ...Option) *CommandRunner {
	r := &CommandRunner{
		executable: "dbt",
		env:        make(map[string]string),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Parse runs `dbt parse`, which writes a fresh manifest into the target
// directory.
func (r *CommandRunner) Parse(ctx context.Context) error {
	if _, err := r.run(ctx, "parse"); err != nil {
		r.logger.Debug("dbt parse failed", slog.String("error", err.Error()))
		return &ParseError{Cause: err}
	}
	return nil
}

// List resolves selectors to resource names with `dbt ls`.
func (r *CommandRunner) List(ctx context.Context, selectors []string) ([]string, error) {
	args := []string{"ls"}
	for _, t := range listResourceTypes {
		args = append(args, "--resource-type", t)
	}
	args = append(args, "--quiet", "--output", "name")
	if len(selectors) > 0 {
		args = append(args, "--select")
		args = append(args, selectors...)
	}

	res, err := r.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

func (r *CommandRunner) run(ctx context.Context, args ...string) (*executor.Result, error) {
	opts := []executor.Option{
		executor.SilentMode(),
		executor.WithWorkingDir(r.dir),
		executor.WithEnv(r.env),
	}
	if r.stream != nil {
		opts = append(opts, executor.WithStdoutWriter(r.stream))
	}

	r.logger.Debug("running dbt", slog.String("args", strings.Join(args, " ")), slog.String("dir", r.dir))

	res, err := executor.New(r.executable, args...).Execute(ctx, opts...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		cmdErr := &CommandError{Args: args, ExitCode: -1, Err: err}
		if res != nil {
			cmdErr.ExitCode = res.ExitCode
			cmdErr.Stderr = res.Stderr
		}
		return res, cmdErr
	}
	return res, nil
}

// DefaultManifestPath returns the manifest location dbt writes to:
// $DBT_PROJECT_DIR/$DBT_TARGET_DIR/manifest.json, relative to the working
// directory when the variables are unset.
func DefaultManifestPath() string {
	return ManifestPath(os.Getenv)
}

// ManifestPath is DefaultManifestPath with an injectable environment lookup.
func ManifestPath(getenv func(string) string) string {
	target := getenv(EnvTargetDir)
	if target == "" {
		target = DefaultTargetDir
	}
	return filepath.Join(getenv(EnvProjectDir), target, ManifestFile)
}

// ProjectName reads the project name from dbt_project.yml in dir.
func ProjectName(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, ProjectFile)) //nolint:gosec // user-provided project path
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", ProjectFile, err)
	}

	var project struct {
		Name string `yaml:"name"`
	}
	if err := yaml.Unmarshal(data, &project); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", ProjectFile, err)
	}
	if project.Name == "" {
		return "", fmt.Errorf("%s has no name", ProjectFile)
	}
	return project.Name, nil
}
