package linecount

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/deploc/internal/deptree"
)

// commentTypes are the tree-sitter node types treated as comments across
// the supported grammars.
var commentTypes = map[string]bool{
	"comment":      true,
	"html_comment": true,
}

// BuiltinCounter counts lines in-process, using tree-sitter to find
// comments. It recognizes only the languages in extToLanguage and follows
// cloc's convention that a line holding both code and a comment is code.
type BuiltinCounter struct {
	admission *Admission
	logger    *slog.Logger
}

// NewBuiltinCounter creates a BuiltinCounter. A nil admission gets a
// default one sized to the CPU count; a nil logger discards.
func NewBuiltinCounter(admission *Admission, logger *slog.Logger) *BuiltinCounter {
	if admission == nil {
		admission = NewAdmission(0)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &BuiltinCounter{admission: admission, logger: logger}
}

// Count implements Counter. Unreadable files are logged and skipped.
func (b *BuiltinCounter) Count(ctx context.Context, req Request) (deptree.FileCounts, error) {
	files, err := ListFiles(req, b.logger)
	if err != nil {
		return nil, err
	}

	if err := b.admission.Acquire(ctx); err != nil {
		return nil, err
	}
	defer b.admission.Release()

	counts := make(deptree.FileCounts)
	for _, f := range files {
		lang, ok := LanguageForFile(f)
		if !ok {
			continue
		}
		grammar, _ := grammarForFile(f)
		src, err := os.ReadFile(f)
		if err != nil {
			b.logger.Warn("skipping unreadable file", "path", f, "error", err)
			continue
		}
		fc, err := CountSource(ctx, grammar, src)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", f, err)
		}
		fc.Language = lang
		counts[f] = fc
	}
	return counts, nil
}

// CountSource classifies every line of src as blank, comment, or code.
// The returned FileCount has no Language set.
func CountSource(ctx context.Context, grammar *sitter.Language, src []byte) (deptree.FileCount, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return deptree.FileCount{}, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	inComment := make([]bool, len(src))
	markComments(tree.RootNode(), inComment)

	return classifyLines(src, inComment), nil
}

// markComments flags every byte covered by a comment node.
func markComments(n *sitter.Node, inComment []bool) {
	if commentTypes[n.Type()] {
		end := min(int(n.EndByte()), len(inComment))
		for i := int(n.StartByte()); i < end; i++ {
			inComment[i] = true
		}
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		markComments(n.Child(i), inComment)
	}
}

func classifyLines(src []byte, inComment []bool) deptree.FileCount {
	var fc deptree.FileCount
	start := 0
	for start < len(src) {
		end := start
		for end < len(src) && src[end] != '\n' {
			end++
		}

		hasCode, hasComment := false, false
		for i := start; i < end; i++ {
			switch {
			case inComment[i]:
				hasComment = true
			case !isSpace(src[i]):
				hasCode = true
			}
		}
		// A newline inside a block comment makes an otherwise empty line
		// part of the comment.
		if end < len(src) && inComment[end] {
			hasComment = true
		}

		switch {
		case hasCode:
			fc.Code++
		case hasComment:
			fc.Comment++
		default:
			fc.Blank++
		}
		start = end + 1
	}
	return fc
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\f' || b == '\v'
}
