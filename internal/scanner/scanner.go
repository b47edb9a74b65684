// Package scanner builds a deduplicated dependency tree from an installed
// node_modules hierarchy.
package scanner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jward/deploc/internal/deptree"
	"github.com/jward/deploc/internal/manifest"
	"github.com/jward/deploc/internal/pathutil"
)

const (
	// ModulesDir is the directory holding a package's installed dependencies.
	ModulesDir = "node_modules"
	// VCSDir is never descended into while collecting base directories.
	VCSDir = ".git"
)

// Scanner walks a project's node_modules graph. A Scanner is single-use
// per Scan call; concurrent Scan calls on one Scanner are not supported.
type Scanner struct {
	root     string
	resolver *pathutil.Resolver
	logger   *slog.Logger

	// baseDirs holds the real paths of every directory under the root that
	// is not inside node_modules. A dependency resolving into this set is
	// the project's own code (e.g. a linked workspace package).
	baseDirs map[string]bool

	// canonical maps a real path to the node currently holding it during
	// the dedup pass.
	canonical map[string]*deptree.Node
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithResolver shares a path resolver (and its cache) with the scanner.
func WithResolver(r *pathutil.Resolver) Option {
	return func(s *Scanner) {
		s.resolver = r
	}
}

// WithLogger sets the logger used for dedup diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = l
	}
}

// New creates a Scanner rooted at root.
func New(root string, opts ...Option) *Scanner {
	s := &Scanner{root: root}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolver == nil {
		s.resolver = pathutil.NewResolver(0)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Scan builds the dependency tree rooted at the scanner's root directory
// and deduplicates it. Any filesystem, real path, or manifest parse error
// aborts the scan.
func (s *Scanner) Scan(ctx context.Context) (*deptree.Node, error) {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return nil, fmt.Errorf("scanner: resolve root: %w", err)
	}

	base, err := s.BaseDirectories(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("scanner: base directories: %w", err)
	}
	s.baseDirs = make(map[string]bool, len(base))
	for _, d := range base {
		s.baseDirs[d] = true
	}

	node, err := s.scanDir(ctx, root, nil)
	if err != nil {
		return nil, fmt.Errorf("scanner: %w", err)
	}

	s.canonical = make(map[string]*deptree.Node)
	s.dedupe(node)
	return node, nil
}

// BaseDirectories returns the real paths of all directories reachable from
// root without entering node_modules or .git. The root itself is not
// included. Each real path is visited once, so symlink cycles terminate.
func (s *Scanner) BaseDirectories(ctx context.Context, root string) ([]string, error) {
	realRoot, err := s.resolver.RealPath(root)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{realRoot: true}
	var dirs []string

	pending := []string{realRoot}
	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := pending[0]
		pending = pending[1:]

		entries, err := pathutil.ListDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", dir, err)
		}
		for _, entry := range entries {
			name := filepath.Base(entry)
			if name == ModulesDir || name == VCSDir {
				continue
			}
			real, err := s.resolver.RealPath(entry)
			if err != nil {
				return nil, err
			}
			if seen[real] || !pathutil.IsDir(real) {
				continue
			}
			seen[real] = true
			dirs = append(dirs, real)
			pending = append(pending, real)
		}
	}
	return dirs, nil
}

// scanDir builds the subtree for the package at dir. ancestors holds the
// real paths on the path from the root, used to stop at symlink cycles.
func (s *Scanner) scanDir(ctx context.Context, dir string, ancestors []string) (*deptree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := manifest.Load(dir)
	if err != nil {
		return nil, err
	}
	node := deptree.New(m, dir)

	real, err := s.resolver.RealPath(dir)
	if err != nil {
		return nil, err
	}
	node.RealPath = real

	if slices.Contains(ancestors, real) {
		s.logger.Debug("symlink cycle, not descending", "path", dir, "realpath", real)
		return node, nil
	}

	dirs := packageDirs(dir)
	if len(dirs) == 0 {
		return node, nil
	}

	chain := append(slices.Clip(ancestors), real)
	children := make([]*deptree.Node, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range dirs {
		g.Go(func() error {
			child, err := s.scanDir(gctx, d, chain)
			if err != nil {
				return err
			}
			children[i] = child
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, child := range children {
		node.AddChild(child)
	}
	return node, nil
}

// packageDirs lists the package directories installed under
// dir/node_modules. Scope directories are expanded one level; their
// packages follow the unscoped ones. An unreadable node_modules yields
// nothing.
func packageDirs(dir string) []string {
	entries := subdirs(filepath.Join(dir, ModulesDir))

	var unscoped, scoped []string
	for _, e := range entries {
		if strings.HasPrefix(filepath.Base(e), manifest.ScopeMarker) {
			scoped = append(scoped, subdirs(e)...)
		} else {
			unscoped = append(unscoped, e)
		}
	}
	return append(unscoped, scoped...)
}

// subdirs returns the non-hidden directories directly inside dir.
func subdirs(dir string) []string {
	entries, err := pathutil.ListDir(dir)
	if err != nil {
		return nil
	}
	var dirs []string
	for _, e := range entries {
		// .bin, .yarn-integrity, .package-lock.json and friends.
		if strings.HasPrefix(filepath.Base(e), ".") {
			continue
		}
		if pathutil.IsDir(e) {
			dirs = append(dirs, e)
		}
	}
	return dirs
}

// dedupe walks the tree post-order. Non-root nodes that resolve into a base
// directory are pruned. Otherwise, when a real path was already held by an
// earlier node, that earlier node is detached and the current node becomes
// the canonical holder, so the last occurrence in post-order survives.
func (s *Scanner) dedupe(node *deptree.Node) {
	// Iterate over a snapshot: pruning edits the slice.
	for _, child := range slices.Clone(node.Children) {
		s.dedupe(child)
	}

	if node.Parent != nil && s.baseDirs[node.RealPath] {
		s.logger.Debug("pruned hoisted package", "package", node.ID(), "realpath", node.RealPath)
		node.Parent.RemoveChild(node)
		return
	}

	if old, ok := s.canonical[node.RealPath]; ok && old != node {
		if parent := old.Parent; parent != nil {
			parent.RemoveChild(old)
		}
		old.Parent = nil
		s.logger.Debug("deduplicated package", "package", node.ID(),
			"dropped", old.Path, "kept", node.Path)
	}
	s.canonical[node.RealPath] = node
}
