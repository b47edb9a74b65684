// Package pathutil resolves real filesystem paths and lists directories for
// the dependency scanner.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jward/deploc/internal/manifest"
)

// ErrNoManifestAncestor is returned by FindAppRoot when no directory between
// the start path and the filesystem root holds a manifest.
var ErrNoManifestAncestor = errors.New("no package.json found in any parent directory")

// defaultCacheSize bounds the real path cache. Large monorepos have a few
// thousand package directories; base-directory discovery touches more.
const defaultCacheSize = 16384

// Resolver resolves symlink-free paths. Lookups are cached because the
// scanner resolves the same node_modules entries during base-directory
// discovery and again while building nodes.
type Resolver struct {
	cache *lru.Cache[string, string]
}

// NewResolver creates a Resolver with a real path cache of the given size.
// A non-positive size selects the default.
func NewResolver(size int) *Resolver {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(fmt.Sprintf("pathutil: lru cache: %v", err))
	}
	return &Resolver{cache: cache}
}

// RealPath returns the absolute, symlink-resolved form of path.
func (r *Resolver) RealPath(path string) (string, error) {
	if real, ok := r.cache.Get(path); ok {
		return real, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("realpath %s: %w", path, err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("realpath %s: %w", path, err)
	}
	r.cache.Add(path, real)
	return real, nil
}

// Len returns the number of cached paths.
func (r *Resolver) Len() int {
	return r.cache.Len()
}

// ListDir returns the joined paths of the entries in dir, sorted by name.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}

// IsDir reports whether path is a directory, following symlinks. Any stat
// error (dangling link, permission) reports false.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// HasManifest reports whether dir directly contains a package.json.
func HasManifest(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, manifest.FileName))
	return err == nil
}

// FindAppRoot walks up from start to the nearest directory holding a
// package.json and returns it.
func FindAppRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", start, err)
	}
	for {
		if HasManifest(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoManifestAncestor
		}
		dir = parent
	}
}
