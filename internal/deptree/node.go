// Package deptree holds the dependency tree built by the scanner and
// annotated with line counts.
package deptree

import (
	"strings"

	"github.com/jward/deploc/internal/manifest"
)

// Node is one installed instance of a package. Path is unique within a
// tree; RealPath may repeat across nodes (symlinked or hoisted packages)
// until the scanner's dedup pass removes the duplicates.
type Node struct {
	Name     string             `json:"name,omitempty"`
	Version  string             `json:"version,omitempty"`
	Path     string             `json:"path"`
	RealPath string             `json:"realPath"`
	Manifest *manifest.Manifest `json:"manifest,omitempty"`

	// LineCounts covers files in this package directory only; nested
	// node_modules belong to the children.
	LineCounts FileCounts `json:"lineCounts,omitempty"`

	// LanguageTotals is LineCounts grouped by language. Set by the report
	// aggregator.
	LanguageTotals LanguageTotals `json:"languageTotals,omitempty"`

	Children []*Node `json:"children"`

	// Parent is a navigation edge for tree surgery and is never serialized.
	Parent *Node `json:"-"`
}

// New creates a node for the package at path.
func New(m *manifest.Manifest, path string) *Node {
	n := &Node{
		Path:     path,
		Manifest: m,
		Children: []*Node{},
	}
	if m != nil {
		n.Name = m.Name
		n.Version = m.Version
	}
	return n
}

// AddChild appends child and points its parent edge at n.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
	child.Parent = n
}

// RemoveChild detaches child from n. It reports whether child was found.
func (n *Node) RemoveChild(child *Node) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return true
		}
	}
	return false
}

// IsRoot reports whether n has no parent.
func (n *Node) IsRoot() bool {
	return n.Parent == nil
}

// NameString returns the name or a placeholder.
func (n *Node) NameString() string {
	if n.Name != "" {
		return n.Name
	}
	return "[[NO NAME]]"
}

// VersionString returns the version or a placeholder.
func (n *Node) VersionString() string {
	if n.Version != "" {
		return n.Version
	}
	return "[[NO VERSION]]"
}

// ID is name@version.
func (n *Node) ID() string {
	return n.NameString() + "@" + n.VersionString()
}

// Walk visits n and its descendants in pre-order.
func (n *Node) Walk(fn func(node *Node, depth int)) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int), depth int) {
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Nodes flattens the tree into a pre-order list, n first.
func (n *Node) Nodes() []*Node {
	var nodes []*Node
	n.Walk(func(node *Node, _ int) {
		nodes = append(nodes, node)
	})
	return nodes
}

// TreeString renders one "name@version" line per node, indented two spaces
// per level.
func (n *Node) TreeString() string {
	var b strings.Builder
	n.Walk(func(node *Node, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(node.ID())
		b.WriteByte('\n')
	})
	return b.String()
}

func (n *Node) String() string {
	return n.TreeString()
}

// SubtreeTotals folds this node's own per-language totals with those of all
// descendants.
func (n *Node) SubtreeTotals() LanguageTotals {
	totals := make(LanguageTotals)
	n.Walk(func(node *Node, _ int) {
		totals.Merge(FoldLanguages(node.LineCounts))
	})
	return totals
}
