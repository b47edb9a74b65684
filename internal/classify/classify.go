// Package classify evaluates user-supplied Risor expressions that decide
// whether a dependency counts as first-party code.
package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"
	"github.com/risor-io/risor/parser"

	"github.com/jward/deploc/internal/deptree"
)

// ErrEmptyExpression is returned by Compile for a blank expression.
var ErrEmptyExpression = errors.New("classify: empty expression")

// Classifier matches nodes against a Risor expression. The expression sees
// the globals name, version, path, real_path and depth (0 for the root).
type Classifier struct {
	source string
}

// Compile parses expr so syntax errors surface before any scan work.
func Compile(ctx context.Context, expr string) (*Classifier, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, ErrEmptyExpression
	}
	if _, err := parser.Parse(ctx, expr); err != nil {
		return nil, fmt.Errorf("classify: parse %q: %w", expr, err)
	}
	return &Classifier{source: expr}, nil
}

// Source returns the expression text.
func (c *Classifier) Source() string { return c.source }

// Match evaluates the expression for node and reports whether the result is
// truthy.
func (c *Classifier) Match(ctx context.Context, node *deptree.Node) (bool, error) {
	opts := []risor.Option{
		risor.WithGlobal("name", object.NewString(node.Name)),
		risor.WithGlobal("version", object.NewString(node.Version)),
		risor.WithGlobal("path", object.NewString(node.Path)),
		risor.WithGlobal("real_path", object.NewString(node.RealPath)),
		risor.WithGlobal("depth", object.NewInt(int64(depth(node)))),
	}
	result, err := risor.Eval(ctx, c.source, opts...)
	if err != nil {
		return false, fmt.Errorf("classify: %s: %w", node.ID(), err)
	}
	return result.IsTruthy(), nil
}

// Func adapts the classifier to a context-free predicate bound to ctx.
func (c *Classifier) Func(ctx context.Context) func(*deptree.Node) (bool, error) {
	return func(node *deptree.Node) (bool, error) {
		return c.Match(ctx, node)
	}
}

func depth(node *deptree.Node) int {
	d := 0
	for p := node.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}
