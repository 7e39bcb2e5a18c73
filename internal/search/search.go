// Package search implements the five thin, vector-store-backed query
// operations: semantic similarity, exact/substring symbol lookup, grep/regex
// over chunk bodies, file reconstruction, and repository structure listing.
package search

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/contextinator/contextinator/internal/contextinatorerrors"
	"github.com/contextinator/contextinator/internal/discovery"
	"github.com/contextinator/contextinator/internal/embedding"
	"github.com/contextinator/contextinator/internal/vectorstore"
)

// Searcher answers queries against one collection in a vector store.
type Searcher struct {
	store    vectorstore.Store
	provider embedding.Provider
}

// New builds a Searcher over store, using provider to embed query text for
// semantic search.
func New(store vectorstore.Store, provider embedding.Provider) *Searcher {
	return &Searcher{store: store, provider: provider}
}

// Hit is one search result: a reconstructed Chunk-shaped record plus its
// similarity score (semantic search only; zero for the other operations).
type Hit struct {
	ID         string
	Content    string
	Metadata   map[string]string
	Similarity float64
}

// SemanticOptions configures a semantic query.
type SemanticOptions struct {
	Limit              int
	Language           string
	FilePathContains   string
	NodeType           string
	ExcludeParentTypes bool
	MinScore           float64
}

// Semantic embeds query (optionally prefixed with "Language: <lang>\n\n")
// and returns the top Limit results by vector similarity, computed as
// 1 - distance when the backend reports distance instead of similarity
// (chromem-go and Qdrant's Query both already report similarity/score, so
// no conversion is needed here — this just documents the contract).
func (s *Searcher) Semantic(ctx context.Context, collection, query string, opts SemanticOptions) ([]Hit, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 15
	}

	text := query
	if opts.Language != "" {
		text = fmt.Sprintf("Language: %s\n\n%s", opts.Language, query)
	}

	vectors, err := s.provider.Embed(ctx, []string{text}, embedding.ModeQuery)
	if err != nil {
		return nil, contextinatorerrors.SearchError("embed query: %v", err)
	}
	if len(vectors) == 0 {
		return nil, contextinatorerrors.SearchError("no embedding returned for query")
	}

	filter := vectorstore.Filter{Equals: map[string]string{}}
	if opts.Language != "" {
		filter.Equals["language"] = opts.Language
	}
	if opts.NodeType != "" {
		filter.Equals["node_type"] = opts.NodeType
	}

	scored, err := s.store.Query(ctx, collection, vectors[0], opts.Limit*vectorstore.DefaultResultMultiplier, filter)
	if err != nil {
		return nil, contextinatorerrors.SearchError("query: %v", err)
	}

	hits := make([]Hit, 0, opts.Limit)
	for _, sp := range scored {
		if opts.FilePathContains != "" && !strings.Contains(sp.Metadata["file_path"], opts.FilePathContains) {
			continue
		}
		if opts.ExcludeParentTypes && sp.Metadata["is_parent"] == "true" {
			continue
		}
		if opts.MinScore > 0 && float64(sp.Similarity) < opts.MinScore {
			continue
		}
		hits = append(hits, Hit{ID: sp.ID, Content: sp.Document, Metadata: sp.Metadata, Similarity: float64(sp.Similarity)})
		if len(hits) >= opts.Limit {
			break
		}
	}
	return hits, nil
}

// SymbolOptions configures a symbol lookup.
type SymbolOptions struct {
	SymbolType string
	Language   string
	ExactMatch bool
}

// Symbol finds chunks by node_name (exact or substring), optionally
// filtered by type/language, deduplicated by content hash.
func (s *Searcher) Symbol(ctx context.Context, collection, symbolName string, opts SymbolOptions) ([]Hit, error) {
	if symbolName == "" {
		return nil, contextinatorerrors.SearchError("symbol name is required")
	}

	filter := vectorstore.Filter{Equals: map[string]string{}}
	if opts.Language != "" {
		filter.Equals["language"] = opts.Language
	}
	if opts.SymbolType != "" {
		filter.Equals["node_type"] = opts.SymbolType
	}
	if opts.ExactMatch {
		filter.Equals["node_name"] = symbolName
	}

	points, err := s.store.Get(ctx, collection, filter, 0)
	if err != nil {
		return nil, contextinatorerrors.SearchError("get: %v", err)
	}

	lowered := strings.ToLower(symbolName)
	seen := make(map[string]bool)
	var hits []Hit
	for _, p := range points {
		if !opts.ExactMatch && !strings.Contains(strings.ToLower(p.Metadata["node_name"]), lowered) {
			continue
		}
		hash := p.Metadata["hash"]
		if hash != "" && seen[hash] {
			continue
		}
		if hash != "" {
			seen[hash] = true
		}
		hits = append(hits, Hit{ID: p.ID, Content: p.Document, Metadata: p.Metadata})
	}
	return hits, nil
}

// GrepOptions configures a grep/regex scan.
type GrepOptions struct {
	Pattern       string
	IsRegex       bool
	WholeWord     bool
	CaseSensitive bool
	ContextLines  int
	Language      string
}

// FileMatch groups every matching line in one file, with surrounding
// context when requested.
type FileMatch struct {
	FilePath string
	Lines    []LineMatch
}

// LineMatch is one matched line, numbered as a file line (the chunk's
// start_line plus the line's offset within the chunk), with any requested
// context lines attached.
type LineMatch struct {
	LineNumber int
	Text       string
	Context    []string
}

// Grep scans every chunk document in the collection (optionally filtered by
// language) for a literal or regex pattern, grouping hits per file.
func (s *Searcher) Grep(ctx context.Context, collection string, opts GrepOptions) ([]FileMatch, error) {
	if opts.Pattern == "" {
		return nil, contextinatorerrors.SearchError("pattern is required")
	}

	matcher, err := buildMatcher(opts)
	if err != nil {
		return nil, err
	}

	filter := vectorstore.Filter{}
	if opts.Language != "" {
		filter.Equals = map[string]string{"language": opts.Language}
	}
	points, err := s.store.Get(ctx, collection, filter, 0)
	if err != nil {
		return nil, contextinatorerrors.SearchError("get: %v", err)
	}

	byFile := make(map[string]*FileMatch)
	var order []string
	for _, p := range points {
		file := p.Metadata["file_path"]
		startLine := atoiOr(p.Metadata["start_line"], 1)
		lines := strings.Split(p.Document, "\n")
		for i, line := range lines {
			if !matcher(line) {
				continue
			}
			fm, ok := byFile[file]
			if !ok {
				fm = &FileMatch{FilePath: file}
				byFile[file] = fm
				order = append(order, file)
			}
			fm.Lines = append(fm.Lines, LineMatch{
				LineNumber: startLine + i,
				Text:       line,
				Context:    contextAround(lines, i, opts.ContextLines),
			})
		}
	}

	sort.Strings(order)
	results := make([]FileMatch, 0, len(order))
	for _, f := range order {
		results = append(results, *byFile[f])
	}
	return results, nil
}

func buildMatcher(opts GrepOptions) (func(string) bool, error) {
	if opts.IsRegex {
		pattern := opts.Pattern
		if !opts.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, contextinatorerrors.SearchError("invalid regex: %v", err)
		}
		return re.MatchString, nil
	}

	needle := opts.Pattern
	if !opts.CaseSensitive {
		needle = strings.ToLower(needle)
	}
	return func(line string) bool {
		haystack := line
		if !opts.CaseSensitive {
			haystack = strings.ToLower(haystack)
		}
		if opts.WholeWord {
			re := regexp.MustCompile(`\b` + regexp.QuoteMeta(needle) + `\b`)
			return re.MatchString(haystack)
		}
		return strings.Contains(haystack, needle)
	}, nil
}

func contextAround(lines []string, i, n int) []string {
	if n <= 0 {
		return nil
	}
	start := i - n
	if start < 0 {
		start = 0
	}
	end := i + n + 1
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start:end]
}

// AdvancedOptions configures a metadata-filtered text search. Equals is an
// exact-match filter pushed down to the store; Contains is applied in Go
// after fetch, since not every backend's get() supports substring filters
// directly — file_path uses the same three-tier path match as ReadFile,
// every other key is a plain substring check.
type AdvancedOptions struct {
	TextPattern string
	Equals      map[string]string
	Contains    map[string]string
	Limit       int
}

// Advanced combines an exact-match metadata filter with a document text
// pattern and per-field substring filters, mirroring a "$contains"-style
// metadata query layered on top of a plain get().
func (s *Searcher) Advanced(ctx context.Context, collection string, opts AdvancedOptions) ([]Hit, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}

	filter := vectorstore.Filter{Equals: opts.Equals}
	points, err := s.store.Get(ctx, collection, filter, 0)
	if err != nil {
		return nil, contextinatorerrors.SearchError("get: %v", err)
	}

	pattern := strings.ToLower(opts.TextPattern)
	var hits []Hit
	for _, p := range points {
		if pattern != "" && !strings.Contains(strings.ToLower(p.Document), pattern) {
			continue
		}
		if !matchesContainsFilters(p, opts.Contains) {
			continue
		}
		hits = append(hits, Hit{ID: p.ID, Content: p.Document, Metadata: p.Metadata})
		if len(hits) >= opts.Limit {
			break
		}
	}
	return hits, nil
}

func matchesContainsFilters(p vectorstore.Point, contains map[string]string) bool {
	for key, want := range contains {
		if want == "" {
			continue
		}
		if key == "file_path" {
			if !matchesFilePath(p.Metadata[key], want) {
				return false
			}
			continue
		}
		if !strings.Contains(p.Metadata[key], want) {
			return false
		}
	}
	return true
}

// ReadFileResult reconstructs a source file from its chunks.
type ReadFileResult struct {
	FilePath    string
	TotalChunks int
	Content     string
}

// ReadFile finds every chunk belonging to filePath under the three-tier
// match rule (exact → basename when the query has no "/" → suffix), sorts
// by (start_line, split_index, end_line), drops chunks fully contained in
// another kept chunk, and concatenates the remainder with "\n\n".
func (s *Searcher) ReadFile(ctx context.Context, collection, filePath string) (*ReadFileResult, error) {
	if filePath == "" {
		return nil, contextinatorerrors.SearchError("file path is required")
	}

	points, err := s.store.Get(ctx, collection, vectorstore.Filter{}, 0)
	if err != nil {
		return nil, contextinatorerrors.SearchError("get: %v", err)
	}

	var matched []vectorstore.Point
	for _, p := range points {
		if matchesFilePath(p.Metadata["file_path"], filePath) {
			matched = append(matched, p)
		}
	}
	if len(matched) == 0 {
		return &ReadFileResult{FilePath: filePath}, nil
	}

	sort.Slice(matched, func(i, j int) bool {
		si := atoiOr(matched[i].Metadata["start_line"], 0)
		sj := atoiOr(matched[j].Metadata["start_line"], 0)
		if si != sj {
			return si < sj
		}
		xi := atoiOr(matched[i].Metadata["split_index"], 0)
		xj := atoiOr(matched[j].Metadata["split_index"], 0)
		if xi != xj {
			return xi < xj
		}
		return atoiOr(matched[i].Metadata["end_line"], 0) < atoiOr(matched[j].Metadata["end_line"], 0)
	})

	kept := dropContained(matched)

	var parts []string
	for _, p := range kept {
		parts = append(parts, p.Document)
	}

	return &ReadFileResult{
		FilePath:    filePath,
		TotalChunks: len(kept),
		Content:     strings.Join(parts, "\n\n"),
	}, nil
}

// dropContained removes any chunk whose [start_line, end_line] range is
// fully contained within another kept chunk's range, keeping the first
// (outer) occurrence.
func dropContained(sorted []vectorstore.Point) []vectorstore.Point {
	var kept []vectorstore.Point
	for _, candidate := range sorted {
		cs := atoiOr(candidate.Metadata["start_line"], 0)
		ce := atoiOr(candidate.Metadata["end_line"], 0)
		contained := false
		for _, k := range kept {
			ks := atoiOr(k.Metadata["start_line"], 0)
			ke := atoiOr(k.Metadata["end_line"], 0)
			if ks <= cs && ce <= ke && (ks != cs || ke != ce) {
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, candidate)
		}
	}
	return kept
}

func matchesFilePath(stored, search string) bool {
	storedNorm := strings.ToLower(filepath.ToSlash(stored))
	searchNorm := strings.ToLower(filepath.ToSlash(search))

	if storedNorm == searchNorm {
		return true
	}
	if !strings.Contains(searchNorm, "/") && filepath.Base(storedNorm) == searchNorm {
		return true
	}
	return strings.HasSuffix(storedNorm, "/"+searchNorm) || strings.HasSuffix(storedNorm, searchNorm)
}

// TreeNode is one entry in a Structure listing.
type TreeNode struct {
	Name     string
	Path     string
	IsDir    bool
	Children []*TreeNode `json:"children,omitempty"`
}

// Structure walks the on-disk repository at rootDir (not the vector store),
// honoring the same ignore rules as discovery, bounded to maxDepth levels
// (0 means unbounded).
func Structure(rootDir string, ignorePatterns []string, maxDepth int) (*TreeNode, error) {
	disc, err := discovery.New(rootDir, ignorePatterns)
	if err != nil {
		return nil, err
	}
	files, err := disc.DiscoverFiles()
	if err != nil {
		return nil, err
	}

	root := &TreeNode{Name: filepath.Base(rootDir), Path: ".", IsDir: true}
	dirs := map[string]*TreeNode{".": root}

	for _, f := range files {
		parts := strings.Split(f.Path, "/")
		if maxDepth > 0 && len(parts) > maxDepth {
			continue
		}
		parent := root
		accPath := ""
		for i := 0; i < len(parts)-1; i++ {
			if accPath == "" {
				accPath = parts[i]
			} else {
				accPath = accPath + "/" + parts[i]
			}
			node, ok := dirs[accPath]
			if !ok {
				node = &TreeNode{Name: parts[i], Path: accPath, IsDir: true}
				dirs[accPath] = node
				parent.Children = append(parent.Children, node)
			}
			parent = node
		}
		parent.Children = append(parent.Children, &TreeNode{Name: parts[len(parts)-1], Path: f.Path})
	}
	return root, nil
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
