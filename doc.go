// Package deploc measures how much of a JavaScript project's code is its
// own and how much comes from node_modules.
//
// # Pipeline
//
//  1. Scan: starting at the nearest directory holding a package.json,
//     walk node_modules recursively (scoped @org directories included),
//     building a tree of package nodes. Packages reachable through
//     several paths that resolve to the same real directory are kept once;
//     the later occurrence in post-order wins. Nodes that resolve into the
//     application's own directories (workspaces, file: links) are pruned.
//
//  2. Count: every node's own files, excluding nested node_modules, are
//     counted by a [Counter]. The external cloc tool and a built-in
//     tree-sitter counter are provided.
//
//  3. Report: per-file counts are folded by language and summed into an
//     application total (the root package) and a dependency total
//     (everything else) over an allowlist of languages.
//
// # Usage
//
//	e := deploc.New()
//	res, err := e.Run(ctx, ".")
//	if err != nil { ... }
//	fmt.Println(res.Report.DependencyPercent())
package deploc
