package search

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextinator/contextinator/internal/embedding"
	"github.com/contextinator/contextinator/internal/vectorstore"
)

type stubProvider struct{ dims int }

func (s stubProvider) Embed(ctx context.Context, texts []string, mode embedding.Mode) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}
func (s stubProvider) Dimensions() int { return s.dims }
func (s stubProvider) Model() string   { return "stub-model" }
func (s stubProvider) Close() error    { return nil }

func newTestStore(t *testing.T) vectorstore.Store {
	t.Helper()
	store, err := vectorstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func point(id, filePath, nodeName, nodeType, language string, startLine, endLine, splitIndex int, doc string) vectorstore.Point {
	return vectorstore.Point{
		ID:     id,
		Vector: []float32{0.1, 0.2, 0.3},
		Metadata: map[string]string{
			"file_path":   filePath,
			"node_name":   nodeName,
			"node_type":   nodeType,
			"language":    language,
			"start_line":  itoa(startLine),
			"end_line":    itoa(endLine),
			"split_index": itoa(splitIndex),
			"hash":        id + "-hash",
		},
		Document: doc,
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func TestSemanticReturnsHitsUpToLimit(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.CreateCollection(ctx, "repo"))

	points := []vectorstore.Point{
		point("1", "a.go", "Foo", "function", "go", 1, 5, 0, "func Foo() {}"),
		point("2", "b.go", "Bar", "function", "go", 1, 5, 0, "func Bar() {}"),
	}
	_, err := store.Upsert(ctx, "repo", points, 10, false)
	require.NoError(t, err)

	s := New(store, stubProvider{dims: 3})
	hits, err := s.Semantic(ctx, "repo", "find foo", SemanticOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestSymbolExactMatchFiltersByName(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.CreateCollection(ctx, "repo"))

	points := []vectorstore.Point{
		point("1", "a.go", "Foo", "function", "go", 1, 5, 0, "func Foo() {}"),
		point("2", "b.go", "FooBar", "function", "go", 1, 5, 0, "func FooBar() {}"),
	}
	_, err := store.Upsert(ctx, "repo", points, 10, false)
	require.NoError(t, err)

	s := New(store, stubProvider{dims: 3})
	hits, err := s.Symbol(ctx, "repo", "Foo", SymbolOptions{ExactMatch: true})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Foo", hits[0].Metadata["node_name"])
}

func TestSymbolSubstringMatchIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.CreateCollection(ctx, "repo"))

	points := []vectorstore.Point{
		point("1", "a.go", "HandleRequest", "function", "go", 1, 5, 0, "..."),
	}
	_, err := store.Upsert(ctx, "repo", points, 10, false)
	require.NoError(t, err)

	s := New(store, stubProvider{dims: 3})
	hits, err := s.Symbol(ctx, "repo", "request", SymbolOptions{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestSymbolDedupesByHash(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.CreateCollection(ctx, "repo"))

	p1 := point("1", "a.go", "Foo", "function", "go", 1, 5, 0, "...")
	p2 := point("2", "b.go", "Foo", "function", "go", 1, 5, 0, "...")
	p2.Metadata["hash"] = p1.Metadata["hash"]
	_, err := store.Upsert(ctx, "repo", []vectorstore.Point{p1, p2}, 10, false)
	require.NoError(t, err)

	s := New(store, stubProvider{dims: 3})
	hits, err := s.Symbol(ctx, "repo", "Foo", SymbolOptions{ExactMatch: true})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestGrepFindsLiteralMatchesAcrossFiles(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.CreateCollection(ctx, "repo"))

	points := []vectorstore.Point{
		point("1", "a.go", "Foo", "function", "go", 10, 12, 0, "line one\nTODO: fix this\nline three"),
		point("2", "b.go", "Bar", "function", "go", 1, 2, 0, "nothing here"),
	}
	_, err := store.Upsert(ctx, "repo", points, 10, false)
	require.NoError(t, err)

	s := New(store, stubProvider{dims: 3})
	matches, err := s.Grep(ctx, "repo", GrepOptions{Pattern: "TODO"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a.go", matches[0].FilePath)
	require.Len(t, matches[0].Lines, 1)
	assert.Equal(t, 11, matches[0].Lines[0].LineNumber)
}

func TestGrepRegexRespectsCaseSensitivity(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.CreateCollection(ctx, "repo"))

	points := []vectorstore.Point{
		point("1", "a.go", "Foo", "function", "go", 1, 1, 0, "ERROR: boom"),
	}
	_, err := store.Upsert(ctx, "repo", points, 10, false)
	require.NoError(t, err)

	s := New(store, stubProvider{dims: 3})
	matches, err := s.Grep(ctx, "repo", GrepOptions{Pattern: "error", IsRegex: true, CaseSensitive: true})
	require.NoError(t, err)
	assert.Len(t, matches, 0)

	matches, err = s.Grep(ctx, "repo", GrepOptions{Pattern: "error", IsRegex: true, CaseSensitive: false})
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestReadFileJoinsKeptChunksWithBlankLine(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.CreateCollection(ctx, "repo"))

	points := []vectorstore.Point{
		point("1", "pkg/main.go", "", "module", "go", 1, 20, 0, "package main"),
		point("2", "pkg/main.go", "", "module", "go", 21, 40, 0, "func main() {}"),
	}
	_, err := store.Upsert(ctx, "repo", points, 10, false)
	require.NoError(t, err)

	s := New(store, stubProvider{dims: 3})
	result, err := s.ReadFile(ctx, "repo", "main.go")
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalChunks)
	assert.Equal(t, "package main\n\nfunc main() {}", result.Content)
}

func TestReadFileDropsChunksFullyContainedInAnother(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.CreateCollection(ctx, "repo"))

	outer := point("1", "pkg/main.go", "", "module", "go", 1, 40, 0, "whole file")
	inner := point("2", "pkg/main.go", "", "function", "go", 5, 10, 0, "func body")
	_, err := store.Upsert(ctx, "repo", []vectorstore.Point{outer, inner}, 10, false)
	require.NoError(t, err)

	s := New(store, stubProvider{dims: 3})
	result, err := s.ReadFile(ctx, "repo", "pkg/main.go")
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalChunks)
	assert.Equal(t, "whole file", result.Content)
}

func TestAdvancedCombinesEqualsContainsAndPattern(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.CreateCollection(ctx, "repo"))

	points := []vectorstore.Point{
		point("1", "src/auth.ts", "login", "function", "typescript", 1, 5, 0, "import { login } from './auth'"),
		point("2", "src/auth.ts", "logout", "function", "typescript", 6, 10, 0, "export function logout() {}"),
		point("3", "src/other.ts", "login", "function", "typescript", 1, 5, 0, "import { login } from './auth'"),
		point("4", "src/auth.ts", "login", "class", "typescript", 1, 5, 0, "import { login } from './auth'"),
	}
	_, err := store.Upsert(ctx, "repo", points, 10, false)
	require.NoError(t, err)

	s := New(store, stubProvider{dims: 3})
	hits, err := s.Advanced(ctx, "repo", AdvancedOptions{
		TextPattern: "import",
		Equals:      map[string]string{"node_type": "function"},
		Contains:    map[string]string{"file_path": "auth.ts"},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "1", hits[0].ID)
}

func TestAdvancedLimitsResults(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.CreateCollection(ctx, "repo"))

	points := []vectorstore.Point{
		point("1", "a.go", "Foo", "function", "go", 1, 5, 0, "func Foo() {}"),
		point("2", "b.go", "Bar", "function", "go", 1, 5, 0, "func Bar() {}"),
	}
	_, err := store.Upsert(ctx, "repo", points, 10, false)
	require.NoError(t, err)

	s := New(store, stubProvider{dims: 3})
	hits, err := s.Advanced(ctx, "repo", AdvancedOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestMatchesFilePathThreeTierRules(t *testing.T) {
	assert.True(t, matchesFilePath("src/pkg/main.go", "src/pkg/main.go"))
	assert.True(t, matchesFilePath("src/pkg/main.go", "main.go"))
	assert.False(t, matchesFilePath("src/pkg/main.go", "pkg/other.go"))
	assert.True(t, matchesFilePath("src/pkg/main.go", "pkg/main.go"))
}
