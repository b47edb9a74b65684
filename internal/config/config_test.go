package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEnv = []string{
	EnvCounter, EnvClocBin, EnvMaxConcurrent, EnvDB,
	EnvLanguages, EnvFirstParty, EnvRespectGitignore,
}

// clearEnv unsets every DEPLOC_ variable for the duration of the test.
// Tests calling it cannot run in parallel.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnv {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, CounterCloc, cfg.Counter)
	assert.Equal(t, "cloc", cfg.ClocBin)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, YAMLFile, `
counter: builtin
max_concurrent: 3
db: scans.db
languages: [JavaScript, TypeScript]
first_party: 'name.startswith("@acme/")'
respect_gitignore: true
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, CounterBuiltin, cfg.Counter)
	assert.Equal(t, "cloc", cfg.ClocBin)
	assert.Equal(t, 3, cfg.MaxConcurrent)
	assert.Equal(t, "scans.db", cfg.DB)
	assert.Equal(t, []string{"JavaScript", "TypeScript"}, cfg.Languages)
	assert.Equal(t, `name.startswith("@acme/")`, cfg.FirstParty)
	assert.True(t, cfg.RespectGitignore)
}

func TestLoad_DotenvOverridesYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, YAMLFile, "counter: cloc\ndb: from-yaml.db\n")
	writeFile(t, dir, EnvFile, "DEPLOC_COUNTER=builtin\nDEPLOC_LANGUAGES=C, C++ ,\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, CounterBuiltin, cfg.Counter)
	assert.Equal(t, "from-yaml.db", cfg.DB)
	assert.Equal(t, []string{"C", "C++"}, cfg.Languages)

	_, set := os.LookupEnv(EnvCounter)
	assert.False(t, set, ".env must not leak into the process environment")
}

func TestLoad_EnvironmentWins(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, YAMLFile, "cloc_bin: /opt/yaml/cloc\n")
	writeFile(t, dir, EnvFile, "DEPLOC_CLOC_BIN=/opt/dotenv/cloc\n")
	t.Setenv(EnvClocBin, "/opt/env/cloc")
	t.Setenv(EnvMaxConcurrent, "8")
	t.Setenv(EnvRespectGitignore, "true")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/opt/env/cloc", cfg.ClocBin)
	assert.Equal(t, 8, cfg.MaxConcurrent)
	assert.True(t, cfg.RespectGitignore)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	t.Run("bad yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, YAMLFile, "counter: [unterminated\n")
		_, err := Load(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), YAMLFile)
	})

	t.Run("unknown counter is left to Validate", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, YAMLFile, "counter: wc\n")
		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "wc", cfg.Counter)

		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown counter "wc"`)
	})

	t.Run("bad max concurrent", func(t *testing.T) {
		t.Setenv(EnvMaxConcurrent, "many")
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), EnvMaxConcurrent)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Default().Validate())

	cfg := Default()
	cfg.MaxConcurrent = -1
	assert.Error(t, cfg.Validate())
}
