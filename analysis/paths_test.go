package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/c360studio/semlint/source/golang"
	_ "github.com/c360studio/semlint/source/python"
)

func fixtureTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "svc", "vendor"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "svc", "jobs"), 0o755))

	files := map[string]string{
		"svc/main.go":        "package main\n",
		"svc/main_test.go":   "package main\n",
		"svc/jobs/sync.py":   "pass\n",
		"svc/vendor/dep.go":  "package dep\n",
		"svc/README.md":      "# readme\n",
		"svc/jobs/notes.txt": "notes\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestResolveFiles_DirectoryWalk(t *testing.T) {
	dir := fixtureTree(t)

	files, err := ResolveFiles([]string{filepath.Join(dir, "svc")}, ResolveOptions{})
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "svc", "jobs", "sync.py"),
		filepath.Join(dir, "svc", "main.go"),
		filepath.Join(dir, "svc", "main_test.go"),
	}
	assert.Equal(t, want, files)
}

func TestResolveFiles_ExcludePatterns(t *testing.T) {
	dir := fixtureTree(t)

	files, err := ResolveFiles([]string{filepath.Join(dir, "svc")}, ResolveOptions{
		Exclude: []string{"*_test.go"},
	})
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "svc", "jobs", "sync.py"),
		filepath.Join(dir, "svc", "main.go"),
	}
	assert.Equal(t, want, files)
}

func TestResolveFiles_IncludePatterns(t *testing.T) {
	dir := fixtureTree(t)

	files, err := ResolveFiles([]string{filepath.Join(dir, "svc")}, ResolveOptions{
		Include: []string{"**/*.py"},
	})
	require.NoError(t, err)

	want := []string{filepath.Join(dir, "svc", "jobs", "sync.py")}
	assert.Equal(t, want, files)
}

func TestResolveFiles_GlobArgument(t *testing.T) {
	dir := fixtureTree(t)

	files, err := ResolveFiles([]string{filepath.Join(dir, "svc", "*.go")}, ResolveOptions{})
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "svc", "main.go"),
		filepath.Join(dir, "svc", "main_test.go"),
	}
	assert.Equal(t, want, files)
}

func TestResolveFiles_ExplicitFile(t *testing.T) {
	dir := fixtureTree(t)
	main := filepath.Join(dir, "svc", "main.go")

	files, err := ResolveFiles([]string{main, main}, ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{main}, files, "duplicates collapse")
}

func TestResolveFiles_UnsupportedExtension(t *testing.T) {
	dir := fixtureTree(t)

	_, err := ResolveFiles([]string{filepath.Join(dir, "svc", "README.md")}, ResolveOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no frontend registered")
}

func TestResolveFiles_MissingPath(t *testing.T) {
	_, err := ResolveFiles([]string{filepath.Join(t.TempDir(), "nope")}, ResolveOptions{})
	require.Error(t, err)
}
