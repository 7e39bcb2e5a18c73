// Package parsers wraps tree-sitter grammar construction behind a small
// cache, following the double-checked-locking pattern the rest of this
// ecosystem uses for expensive, rarely-varying construction (grammar
// objects are safe to share once built, but building one is not free).
package parsers

import (
	"fmt"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tsc "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tsjava "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tsphp "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tspython "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tsruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	tsrust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tstypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

var (
	cacheMu sync.RWMutex
	cache   = map[string]*sitter.Language{}
)

// factories maps a language name to the constructor for its grammar. Only
// languages with a grammar present in the module's dependency set are
// registered here; every other language recognized by the node-type tables
// falls back to tier-3 (whole-file) parsing.
var factories = map[string]func() *sitter.Language{
	"python":     func() *sitter.Language { return sitter.NewLanguage(tspython.Language()) },
	"java":       func() *sitter.Language { return sitter.NewLanguage(tsjava.Language()) },
	"c":          func() *sitter.Language { return sitter.NewLanguage(tsc.Language()) },
	"php":        func() *sitter.Language { return sitter.NewLanguage(tsphp.LanguagePHP()) },
	"ruby":       func() *sitter.Language { return sitter.NewLanguage(tsruby.Language()) },
	"rust":       func() *sitter.Language { return sitter.NewLanguage(tsrust.Language()) },
	"typescript": func() *sitter.Language { return sitter.NewLanguage(tstypescript.LanguageTypescript()) },
	"tsx":        func() *sitter.Language { return sitter.NewLanguage(tstypescript.LanguageTSX()) },
}

// Supported reports whether language has a wired tree-sitter grammar.
func Supported(language string) bool {
	_, ok := factories[language]
	return ok
}

// Get returns the cached *sitter.Language for language, building it on first
// use. Fast path is a read lock; the slow path double-checks under a write
// lock so concurrent callers racing to build the same grammar only pay the
// construction cost once.
func Get(language string) (*sitter.Language, error) {
	cacheMu.RLock()
	if lang, ok := cache[language]; ok {
		cacheMu.RUnlock()
		return lang, nil
	}
	cacheMu.RUnlock()

	factory, ok := factories[language]
	if !ok {
		return nil, fmt.Errorf("no tree-sitter grammar registered for language %q", language)
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if lang, ok := cache[language]; ok {
		return lang, nil
	}
	lang := factory()
	cache[language] = lang
	return lang, nil
}
