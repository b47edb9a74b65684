package linecount

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/jward/deploc/internal/deptree"
	"github.com/jward/deploc/internal/pathutil"
)

// Annotator attaches line counts to every node of a dependency tree.
type Annotator struct {
	counter        Counter
	excluded       []string
	rootGitignore  bool
	resolver       *pathutil.Resolver
	onNodeComplete func(*deptree.Node)
}

// AnnotatorOption configures an Annotator.
type AnnotatorOption func(*Annotator)

// WithExcluded replaces DefaultExcluded.
func WithExcluded(dirs ...string) AnnotatorOption {
	return func(a *Annotator) {
		a.excluded = slices.Clone(dirs)
	}
}

// WithRootGitignore makes the root package's listing honour its .gitignore.
// Installed dependencies never consult .gitignore.
func WithRootGitignore(enabled bool) AnnotatorOption {
	return func(a *Annotator) {
		a.rootGitignore = enabled
	}
}

// WithResolver shares a real path cache with the file listing, typically
// the one the scanner already filled.
func WithResolver(r *pathutil.Resolver) AnnotatorOption {
	return func(a *Annotator) {
		a.resolver = r
	}
}

// WithNodeComplete registers a callback invoked after each node's counts
// are attached. It may be called from several goroutines at once.
func WithNodeComplete(fn func(*deptree.Node)) AnnotatorOption {
	return func(a *Annotator) {
		a.onNodeComplete = fn
	}
}

// NewAnnotator creates an Annotator backed by counter.
func NewAnnotator(counter Counter, opts ...AnnotatorOption) *Annotator {
	a := &Annotator{
		counter:  counter,
		excluded: slices.Clone(DefaultExcluded),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Annotate counts root first, then each child subtree concurrently. The
// first counter error cancels the remaining work and is returned.
func (a *Annotator) Annotate(ctx context.Context, root *deptree.Node) error {
	return a.annotate(ctx, root, true)
}

func (a *Annotator) annotate(ctx context.Context, node *deptree.Node, isRoot bool) error {
	counts, err := a.counter.Count(ctx, Request{
		Dir:       node.Path,
		Excluded:  a.excluded,
		Gitignore: isRoot && a.rootGitignore,
		Resolver:  a.resolver,
	})
	if err != nil {
		return fmt.Errorf("count %s: %w", node.Path, err)
	}
	node.LineCounts = counts
	if a.onNodeComplete != nil {
		a.onNodeComplete(node)
	}

	if len(node.Children) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, child := range node.Children {
		g.Go(func() error {
			return a.annotate(gctx, child, false)
		})
	}
	return g.Wait()
}
