// Package linecount attaches per-file line counts to every node of a
// dependency tree. The counting itself is delegated to a Counter: either
// the external cloc tool or the built-in tree-sitter based counter.
package linecount

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/jward/deploc/internal/deptree"
	"github.com/jward/deploc/internal/pathutil"
)

// DefaultExcluded are the directory names skipped while counting a node,
// since packages installed there are counted as their own nodes.
var DefaultExcluded = []string{"node_modules", "bower_components"}

// Request describes one counter invocation.
type Request struct {
	// Dir is the package directory to count.
	Dir string
	// Excluded lists directory names whose contents are skipped.
	Excluded []string
	// Gitignore makes the file listing honour Dir/.gitignore.
	Gitignore bool
	// Resolver resolves real paths during listing. Nil uses a private one.
	Resolver *pathutil.Resolver
}

// Counter produces per-file line counts for one package directory.
type Counter interface {
	Count(ctx context.Context, req Request) (deptree.FileCounts, error)
}

// ListFiles returns the real paths of the files belonging to req.Dir, in
// sorted order. Hidden paths, excluded directories, .tgz archives, and
// anything whose real path leaves req.Dir are skipped. Entries whose real
// path cannot be resolved are logged and skipped.
func ListFiles(req Request, logger *slog.Logger) ([]string, error) {
	resolver := req.Resolver
	if resolver == nil {
		resolver = pathutil.NewResolver(0)
	}
	base, err := resolver.RealPath(req.Dir)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	var ign *ignore.GitIgnore
	if req.Gitignore {
		if gi, err := ignore.CompileIgnoreFile(filepath.Join(base, ".gitignore")); err == nil {
			ign = gi
		}
	}

	var files []string
	seenFiles := make(map[string]bool)
	seenDirs := map[string]bool{base: true}
	stack := []string{base}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("list files: %w", err)
		}
		for _, e := range entries {
			p := filepath.Join(dir, e.Name())
			real, err := resolver.RealPath(p)
			if err != nil {
				logger.Warn("skipping unresolvable path", "path", p, "error", err)
				continue
			}
			if !belongs(base, real, req.Excluded, ign) {
				continue
			}
			info, err := os.Stat(real)
			if err != nil {
				logger.Warn("skipping unreadable path", "path", real, "error", err)
				continue
			}
			if info.IsDir() {
				if !seenDirs[real] {
					seenDirs[real] = true
					stack = append(stack, real)
				}
				continue
			}
			if !seenFiles[real] {
				seenFiles[real] = true
				files = append(files, real)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// belongs reports whether real is a countable path inside base.
func belongs(base, real string, excluded []string, ign *ignore.GitIgnore) bool {
	rel, err := filepath.Rel(base, real)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") || slices.Contains(excluded, seg) {
			return false
		}
	}
	if filepath.Ext(real) == ".tgz" {
		return false
	}
	if ign != nil && ign.MatchesPath(rel) {
		return false
	}
	return true
}
