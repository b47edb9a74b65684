// Package manifest loads package.json files, synthesizing a placeholder for
// package directories that ship without one.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the manifest file looked up in every package directory.
const FileName = "package.json"

// UnknownVersion is assigned to packages whose directory has no manifest.
const UnknownVersion = "0.0.0"

// ScopeMarker prefixes scope directory names (e.g. "@babel").
const ScopeMarker = "@"

// Manifest is the subset of package.json the scanner cares about.
type Manifest struct {
	Name            string            `json:"name,omitempty"`
	Version         string            `json:"version,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`

	// Synthetic is true when no manifest file was read.
	Synthetic bool `json:"synthetic,omitempty"`
}

// Load reads dir/package.json. A missing or unreadable file yields a
// synthesized manifest; a file that exists but does not parse as a JSON
// object is an error.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return Synthesize(dir), nil
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes manifest bytes. Non-string name or version values are
// ignored rather than rejected, matching how npm tooling treats them.
func Parse(data []byte) (*Manifest, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid package.json: top level is %T, want object", raw)
	}

	m := &Manifest{}
	if s, ok := obj["name"].(string); ok {
		m.Name = s
	}
	if s, ok := obj["version"].(string); ok {
		m.Version = s
	}
	m.Dependencies = stringMap(obj["dependencies"])
	m.DevDependencies = stringMap(obj["devDependencies"])
	return m, nil
}

// Synthesize builds a placeholder manifest from the directory path. The name
// is the directory name, prefixed with its scope when the parent directory
// is a scope directory.
func Synthesize(dir string) *Manifest {
	dir = filepath.Clean(dir)
	name := filepath.Base(dir)
	if parent := filepath.Base(filepath.Dir(dir)); strings.HasPrefix(parent, ScopeMarker) {
		name = parent + "/" + name
	}
	return &Manifest{
		Name:      name,
		Version:   UnknownVersion,
		Synthetic: true,
	}
}

func stringMap(v any) map[string]string {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, val := range obj {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}
