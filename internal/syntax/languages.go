package syntax

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".go":   "go",
	".ts":   "typescript",
	".mts":  "typescript",
	".cts":  "typescript",
	".tsx":  "tsx",
	".js":   "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".jsx":  "javascript",
	".py":   "python",
	".rs":   "rust",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".hpp":  "cpp",
	".java": "java",
	".php":  "php",
	".rb":   "ruby",
}

// editorLanguageIDs maps editor language identifiers (LSP languageId values)
// that differ from the canonical names.
var editorLanguageIDs = map[string]string{
	"javascriptreact": "javascript",
	"typescriptreact": "tsx",
	"golang":          "go",
	"c++":             "cpp",
}

// langToGrammar maps language names to tree-sitter Language objects.
// Lazily initialized on first call via sync.Once.
var (
	langToGrammar map[string]*sitter.Language
	grammarsOnce  sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		langToGrammar = map[string]*sitter.Language{
			"go":         golang.GetLanguage(),
			"typescript": ts.GetLanguage(),
			"tsx":        tsx.GetLanguage(),
			"javascript": javascript.GetLanguage(),
			"python":     python.GetLanguage(),
			"rust":       rust.GetLanguage(),
			"c":          c.GetLanguage(),
			"cpp":        cpp.GetLanguage(),
			"java":       java.GetLanguage(),
			"php":        php.GetLanguage(),
			"ruby":       ruby.GetLanguage(),
		}
	})
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// LanguageForEditorID normalizes an editor language identifier to a canonical
// language name. Returns ("", false) for identifiers with no grammar.
func LanguageForEditorID(id string) (string, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	if lang, ok := editorLanguageIDs[id]; ok {
		return lang, true
	}
	if _, ok := GrammarForLanguage(id); ok {
		return id, true
	}
	return "", false
}

// GrammarForLanguage returns the tree-sitter Language for a canonical language
// name. Returns (nil, false) if the language is not supported.
func GrammarForLanguage(lang string) (*sitter.Language, bool) {
	initGrammars()
	l, ok := langToGrammar[lang]
	return l, ok
}

// Languages returns the supported canonical language names.
func Languages() []string {
	initGrammars()
	names := make([]string, 0, len(langToGrammar))
	for name := range langToGrammar {
		names = append(names, name)
	}
	return names
}

// Resolver picks the language for a document from its editor language ID
// and path. Extension overrides take precedence over both.
type Resolver struct {
	overrides map[string]string // lower-case extension with dot -> language
}

// NewResolver returns a Resolver with the given extension overrides. Keys
// may be given with or without the leading dot.
func NewResolver(overrides map[string]string) *Resolver {
	r := &Resolver{overrides: make(map[string]string, len(overrides))}
	for ext, lang := range overrides {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		r.overrides[ext] = lang
	}
	return r
}

// Resolve returns the canonical language for a document. Returns ("", false)
// when nothing matches.
func (r *Resolver) Resolve(languageID, path string) (string, bool) {
	if r != nil && path != "" {
		if lang, ok := r.overrides[strings.ToLower(filepath.Ext(path))]; ok {
			return lang, true
		}
	}
	if languageID != "" {
		if lang, ok := LanguageForEditorID(languageID); ok {
			return lang, true
		}
	}
	if path != "" {
		return LanguageForFile(path)
	}
	return "", false
}
