package dbt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/leapstack-labs/dbtscore/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDBT writes an executable shell script standing in for dbt. The script
// records its arguments into args.txt next to itself.
func fakeDBT(t *testing.T, body string) (exe string, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	dir := t.TempDir()
	exe = filepath.Join(dir, "dbt")
	argsFile = filepath.Join(dir, "args.txt")
	script := "#!/bin/sh\necho \"$@\" > \"" + argsFile + "\"\n" + body + "\n"
	require.NoError(t, os.WriteFile(exe, []byte(script), 0o755)) //nolint:gosec // test executable
	return exe, argsFile
}

func readArgs(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test file
	require.NoError(t, err)
	return string(data)
}

func TestParse(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		exe, args := fakeDBT(t, "exit 0")
		r := NewRunner(WithExecutable(exe), WithLogger(testutil.NewTestLogger(t)))

		require.NoError(t, r.Parse(context.Background()))
		assert.Equal(t, "parse\n", readArgs(t, args))
	})

	t.Run("failure", func(t *testing.T) {
		exe, _ := fakeDBT(t, "echo 'compilation error' >&2\nexit 2")
		r := NewRunner(WithExecutable(exe))

		err := r.Parse(context.Background())
		require.Error(t, err)
		assert.Equal(t, "dbt parse failed.", err.Error())
		assert.ErrorIs(t, err, ErrParseFailed)

		var cmdErr *CommandError
		require.True(t, errors.As(err, &cmdErr))
		assert.Equal(t, 2, cmdErr.ExitCode)
		assert.Contains(t, cmdErr.Error(), "compilation error")
	})

	t.Run("missing executable", func(t *testing.T) {
		r := NewRunner(WithExecutable(filepath.Join(t.TempDir(), "nope")))
		err := r.Parse(context.Background())
		assert.ErrorIs(t, err, ErrParseFailed)

		var cmdErr *CommandError
		require.ErrorAs(t, err, &cmdErr)
		assert.Equal(t, -1, cmdErr.ExitCode)
	})
}

func TestList(t *testing.T) {
	exe, args := fakeDBT(t, "printf 'model1\\n\\nmy_source.table1\\n'")
	r := NewRunner(WithExecutable(exe))

	names, err := r.List(context.Background(), []string{"tag:finance", "+model1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"model1", "my_source.table1"}, names)
	assert.Equal(t,
		"ls --resource-type model --resource-type source --resource-type snapshot --resource-type seed --resource-type exposure --quiet --output name --select tag:finance +model1\n",
		readArgs(t, args))
}

func TestListFailure(t *testing.T) {
	exe, _ := fakeDBT(t, "exit 1")
	r := NewRunner(WithExecutable(exe))

	_, err := r.List(context.Background(), []string{"tag:x"})
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 1, cmdErr.ExitCode)
}

func TestWorkingDirAndEnv(t *testing.T) {
	exe, _ := fakeDBT(t, "pwd\necho \"$DBT_SCORE_TEST\"")
	dir := t.TempDir()
	r := NewRunner(WithExecutable(exe), WithWorkingDir(dir), WithEnv("DBT_SCORE_TEST", "hello"))

	res, err := r.run(context.Background(), "debug")
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, resolved)
	assert.Contains(t, res.Stdout, "hello")
	assert.Equal(t, 0, res.ExitCode)
}

func TestManifestPath(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "defaults", want: filepath.Join("target", "manifest.json")},
		{name: "project dir", env: map[string]string{EnvProjectDir: "proj"}, want: filepath.Join("proj", "target", "manifest.json")},
		{name: "target dir", env: map[string]string{EnvTargetDir: "out"}, want: filepath.Join("out", "manifest.json")},
		{
			name: "both",
			env:  map[string]string{EnvProjectDir: "/abs/proj", EnvTargetDir: "build"},
			want: filepath.Join("/abs/proj", "build", "manifest.json"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ManifestPath(func(k string) string { return tt.env[k] })
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultManifestPath(t *testing.T) {
	t.Setenv(EnvProjectDir, "p")
	t.Setenv(EnvTargetDir, "")
	assert.Equal(t, filepath.Join("p", "target", "manifest.json"), DefaultManifestPath())
}

func TestProjectName(t *testing.T) {
	t.Run("reads name", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFile), []byte("name: jaffle_shop\nversion: '1.0'\n"), 0o600))

		name, err := ProjectName(dir)
		require.NoError(t, err)
		assert.Equal(t, "jaffle_shop", name)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ProjectName(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("missing name", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFile), []byte("version: '1.0'\n"), 0o600))

		_, err := ProjectName(dir)
		assert.ErrorContains(t, err, "has no name")
	})
}
