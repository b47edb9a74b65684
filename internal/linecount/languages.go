package linecount

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language names use cloc's spelling so both counters feed the same
// report allowlist.
const (
	LangJavaScript = "JavaScript"
	LangTypeScript = "TypeScript"
	LangC          = "C"
	LangCPP        = "C++"
	LangCHeader    = "C/C++ Header"
)

// extToLanguage maps file extensions to cloc language names.
var extToLanguage = map[string]string{
	".js":  LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".jsx": LangJavaScript,
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".tsx": LangTypeScript,
	".c":   LangC,
	".cc":  LangCPP,
	".cpp": LangCPP,
	".cxx": LangCPP,
	".c++": LangCPP,
	".h":   LangCHeader,
	".hh":  LangCHeader,
	".hpp": LangCHeader,
	".hxx": LangCHeader,
}

// Grammars are initialized lazily on first use.
var (
	extToGrammar map[string]*sitter.Language
	grammarsOnce sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		js := javascript.GetLanguage()
		ts := typescript.GetLanguage()
		cGrammar := c.GetLanguage()
		cppGrammar := cpp.GetLanguage()
		extToGrammar = map[string]*sitter.Language{
			".js":  js,
			".mjs": js,
			".cjs": js,
			".jsx": js,
			".ts":  ts,
			".mts": ts,
			".cts": ts,
			".tsx": tsx.GetLanguage(),
			".c":   cGrammar,
			".cc":  cppGrammar,
			".cpp": cppGrammar,
			".cxx": cppGrammar,
			".c++": cppGrammar,
			// Headers are shared between C and C++; the C++ grammar accepts both.
			".h":   cppGrammar,
			".hh":  cppGrammar,
			".hpp": cppGrammar,
			".hxx": cppGrammar,
		}
	})
}

// LanguageForFile returns the cloc language name for path based on its
// extension. Returns ("", false) for unrecognized extensions.
func LanguageForFile(path string) (string, bool) {
	lang, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// grammarForFile returns the tree-sitter grammar used to parse path.
func grammarForFile(path string) (*sitter.Language, bool) {
	initGrammars()
	g, ok := extToGrammar[strings.ToLower(filepath.Ext(path))]
	return g, ok
}
