package vectorstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/contextinator/contextinator/internal/chunking"
)

func TestSanitizeCollectionNameReplacesInvalidChars(t *testing.T) {
	assert.Equal(t, "my_repo_name", SanitizeCollectionName("my/repo name"))
}

func TestSanitizeCollectionNamePrependsCWhenNotAlphanumericStart(t *testing.T) {
	got := SanitizeCollectionName("_leading")
	assert.True(t, strings.HasPrefix(got, "c"))
}

func TestSanitizeCollectionNameForcesAlphanumericEnd(t *testing.T) {
	got := SanitizeCollectionName("repo_")
	last := got[len(got)-1]
	assert.True(t, (last >= 'a' && last <= 'z') || (last >= '0' && last <= '9') || (last >= 'A' && last <= 'Z'))
}

func TestSanitizeCollectionNameTruncatesTo63(t *testing.T) {
	got := SanitizeCollectionName(strings.Repeat("a", 100))
	assert.LessOrEqual(t, len(got), 63)
}

func TestPointFromEmbeddedChunkUsesRawContentNotEnriched(t *testing.T) {
	chunk := chunking.EmbeddedChunk{
		Chunk: chunking.Chunk{
			ID:              "abc",
			Content:         "raw body",
			EnrichedContent: "File: x\n\nraw body",
			NodeName:        "foo",
			Language:        "go",
		},
		Embedding: []float32{0.1, 0.2},
	}

	point := PointFromEmbeddedChunk(chunk)
	assert.Equal(t, "raw body", point.Document)
	assert.Equal(t, "abc", point.ID)
	assert.Equal(t, []float32{0.1, 0.2}, point.Vector)
	assert.Equal(t, "foo", point.Metadata["node_name"])
	assert.Equal(t, "go", point.Metadata["language"])
}

func TestMatchesFilterRequiresAllEqualsAndSubstring(t *testing.T) {
	p := Point{Document: "hello world", Metadata: map[string]string{"language": "go", "node_type": "function"}}

	assert.True(t, matchesFilter(p, Filter{Equals: map[string]string{"language": "go"}}))
	assert.False(t, matchesFilter(p, Filter{Equals: map[string]string{"language": "python"}}))
	assert.True(t, matchesFilter(p, Filter{DocumentContains: "world"}))
	assert.False(t, matchesFilter(p, Filter{DocumentContains: "missing"}))
}
