package linecount

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/deploc/internal/pathutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func realTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestListFiles_Filters(t *testing.T) {
	t.Parallel()
	dir := realTempDir(t)
	outside := realTempDir(t)
	writeFiles(t, dir, map[string]string{
		"index.js":                  "x",
		"lib/a.js":                  "x",
		"node_modules/dep/index.js": "x",
		"bower_components/b/b.js":   "x",
		".eslintrc.js":              "x",
		"lib/.hidden/h.js":          "x",
		"pkg.tgz":                   "x",
	})
	writeFiles(t, outside, map[string]string{"far.js": "x"})
	require.NoError(t, os.Symlink(filepath.Join(outside, "far.js"), filepath.Join(dir, "far.js")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "lib/a.js"), filepath.Join(dir, "alias.js")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing.js"), filepath.Join(dir, "dangling.js")))

	got, err := ListFiles(Request{Dir: dir, Excluded: DefaultExcluded}, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "index.js"),
		filepath.Join(dir, "lib", "a.js"),
	}, got)
}

func TestListFiles_UsesSharedResolver(t *testing.T) {
	t.Parallel()
	dir := realTempDir(t)
	writeFiles(t, dir, map[string]string{
		"index.js": "x",
		"lib/a.js": "x",
	})
	require.NoError(t, os.Symlink(filepath.Join(dir, "lib/a.js"), filepath.Join(dir, "alias.js")))

	resolver := pathutil.NewResolver(0)
	got, err := ListFiles(Request{Dir: dir, Resolver: resolver}, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "index.js"),
		filepath.Join(dir, "lib", "a.js"),
	}, got)

	// dir, its three entries and lib/a.js.
	assert.Equal(t, 5, resolver.Len())
	real, err := resolver.RealPath(filepath.Join(dir, "alias.js"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lib", "a.js"), real)
}

func TestListFiles_Gitignore(t *testing.T) {
	t.Parallel()
	dir := realTempDir(t)
	writeFiles(t, dir, map[string]string{
		".gitignore":   "build/\n*.min.js\n",
		"index.js":     "x",
		"app.min.js":   "x",
		"build/out.js": "x",
	})

	all, err := ListFiles(Request{Dir: dir}, discardLogger())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := ListFiles(Request{Dir: dir, Gitignore: true}, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "index.js")}, got)
}

func TestListFiles_DirectoryCycle(t *testing.T) {
	t.Parallel()
	dir := realTempDir(t)
	writeFiles(t, dir, map[string]string{"src/a.js": "x"})
	require.NoError(t, os.Symlink(filepath.Join(dir, "src"), filepath.Join(dir, "src", "again")))

	got, err := ListFiles(Request{Dir: dir}, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "src", "a.js")}, got)
}

func TestListFiles_MissingDir(t *testing.T) {
	t.Parallel()
	_, err := ListFiles(Request{Dir: filepath.Join(t.TempDir(), "nope")}, discardLogger())
	require.Error(t, err)
}

func TestLanguageForFile(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"a.js", LangJavaScript, true},
		{"a.MJS", LangJavaScript, true},
		{"a.tsx", LangTypeScript, true},
		{"a.c", LangC, true},
		{"a.cc", LangCPP, true},
		{"a.h", LangCHeader, true},
		{"package.json", "", false},
		{"README", "", false},
	}
	for _, tt := range tests {
		got, ok := LanguageForFile(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}
