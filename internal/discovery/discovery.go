// Package discovery walks a repository's file tree honoring ignore rules
// and classifying files as code or documentation candidates.
package discovery

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/contextinator/contextinator/internal/chunking"
	"github.com/contextinator/contextinator/internal/contextinatorerrors"
)

// DefaultIgnorePatterns mirrors the ignore list every repository gets for
// free, before any project-specific patterns are added.
var DefaultIgnorePatterns = []string{
	".git", "node_modules", "vendor", "__pycache__", "dist", "build",
	"target", ".venv", "venv", "*.pyc", "*.pyo", ".DS_Store",
}

// extensionlessLanguages maps well-known extensionless filenames to a
// language, so Dockerfile/Makefile/Gemfile/Rakefile are still classified.
var extensionlessLanguages = map[string]string{
	"Dockerfile": "dockerfile",
	"Makefile":   "make",
	"Gemfile":    "ruby",
	"Rakefile":   "ruby",
}

// Discovery walks a repository root and classifies files.
type Discovery struct {
	rootDir        string
	ignorePatterns []compiledPattern
	docExtensions  map[string]bool
}

type compiledPattern struct {
	raw      string
	hasGlob  bool
	compiled glob.Glob
}

// New builds a Discovery for rootDir. ignorePatterns is merged with
// DefaultIgnorePatterns; "contextinator" names the tool's own output
// directory (".contextinator") which is always ignored.
func New(rootDir string, ignorePatterns []string) (*Discovery, error) {
	if rootDir == "" {
		return nil, contextinatorerrors.ValidationError("root directory must not be empty")
	}
	info, err := os.Stat(rootDir)
	if err != nil || !info.IsDir() {
		return nil, contextinatorerrors.ValidationError("root directory %q does not exist or is not a directory", rootDir)
	}

	all := append(append([]string{}, DefaultIgnorePatterns...), ignorePatterns...)
	d := &Discovery{
		rootDir:       rootDir,
		docExtensions: map[string]bool{".md": true, ".rst": true, ".txt": true},
	}
	for _, p := range all {
		cp := compiledPattern{raw: normalizeSlashes(p)}
		cp.hasGlob = strings.ContainsAny(p, "*?[")
		if cp.hasGlob {
			g, err := glob.Compile(cp.raw, '/')
			if err != nil {
				return nil, contextinatorerrors.ValidationError("invalid ignore pattern %q: %v", p, err)
			}
			cp.compiled = g
		}
		d.ignorePatterns = append(d.ignorePatterns, cp)
	}
	return d, nil
}

// DiscoverFiles walks the tree and returns every non-ignored file record,
// pruning ignored directories so the walk never descends into them.
func (d *Discovery) DiscoverFiles() ([]chunking.FileRecord, error) {
	var files []chunking.FileRecord

	err := filepath.Walk(d.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Per-entry errors are skipped, not fatal: a single unreadable
			// file or directory shouldn't abort discovery for the rest of
			// the tree.
			return nil
		}
		relPath, relErr := filepath.Rel(d.rootDir, path)
		if relErr != nil {
			return nil
		}
		if relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if d.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.shouldIgnore(relPath) {
			return nil
		}

		lang, isDoc := classify(relPath)
		if lang == "" {
			return nil
		}
		files = append(files, chunking.FileRecord{
			Path:     relPath,
			AbsPath:  path,
			Language: lang,
			IsDoc:    isDoc,
		})
		return nil
	})
	if err != nil {
		return nil, contextinatorerrors.FileSystemError(err, "walking %s", d.rootDir)
	}
	return files, nil
}

// shouldIgnore reports whether relPath matches an ignore pattern. Patterns
// containing *, ?, or [ use glob semantics against the whole path and
// against each path component; patterns with no wildcard characters match
// only by exact equality against a whole path component, so a bare word
// like "out" never matches inside "routes" (it would only match a path
// component literally named "out").
func (d *Discovery) shouldIgnore(relPath string) bool {
	base := filepath.Base(relPath)
	if base == ".contextinator" || strings.HasPrefix(relPath, ".contextinator/") {
		return true
	}

	parts := strings.Split(relPath, "/")
	for _, p := range d.ignorePatterns {
		if p.hasGlob {
			if p.compiled.Match(relPath) {
				return true
			}
			for _, part := range parts {
				if p.compiled.Match(part) {
					return true
				}
			}
			continue
		}
		for _, part := range parts {
			if part == p.raw {
				return true
			}
		}
	}
	return false
}

func classify(relPath string) (language string, isDoc bool) {
	base := filepath.Base(relPath)
	if lang, ok := extensionlessLanguages[base]; ok {
		return lang, false
	}

	ext := filepath.Ext(relPath)
	if ext == ".md" || ext == ".rst" {
		return "markdown", true
	}
	if ext == ".ipynb" {
		return "jupyter", false
	}
	if lang := chunking.LanguageForPath(ext); lang != "" {
		return lang, false
	}
	return "", false
}

func normalizeSlashes(p string) string {
	return filepath.ToSlash(p)
}
