package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644))
}

func TestLoad_ReadsNameAndVersion(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeManifest(t, dir, `{"name":"aModule","version":"5.1.1","dependencies":{"left":"^1.0.0","bad":3}}`)

	m, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "aModule", m.Name)
	assert.Equal(t, "5.1.1", m.Version)
	assert.Equal(t, map[string]string{"left": "^1.0.0"}, m.Dependencies)
	assert.False(t, m.Synthetic)
}

func TestLoad_NonStringFieldsIgnored(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeManifest(t, dir, `{"name":42,"version":null}`)

	m, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, m.Name)
	assert.Empty(t, m.Version)
}

func TestLoad_MissingManifestSynthesizes(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "node_modules", "bModule")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	m, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "bModule", m.Name)
	assert.Equal(t, UnknownVersion, m.Version)
	assert.True(t, m.Synthetic)
}

func TestLoad_MissingManifestKeepsScope(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "node_modules", "@abCorp", "leftpad")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	m, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "@abCorp/leftpad", m.Name)
	assert.Equal(t, UnknownVersion, m.Version)
}

func TestLoad_MalformedManifestIsFatal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
	}{
		{"syntax", `{"name": `},
		{"array", `["not", "an", "object"]`},
		{"null", `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeManifest(t, dir, tt.body)
			_, err := Load(dir)
			require.Error(t, err)
		})
	}
}
