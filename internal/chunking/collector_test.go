package chunking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorDeduplicatesByContentHash(t *testing.T) {
	c := NewCollector()

	nodeA := RawNode{ID: "1", FilePath: "a.go", Content: "func Foo() {}", NodeName: "Foo", StartLine: 1, EndLine: 1}
	nodeB := RawNode{ID: "2", FilePath: "b.go", Content: "func Foo() {}", NodeName: "Foo", StartLine: 10, EndLine: 10}

	acceptedA := c.CollectFile([]RawNode{nodeA})
	require.Len(t, acceptedA, 1)

	acceptedB := c.CollectFile([]RawNode{nodeB})
	assert.Empty(t, acceptedB)

	stats := c.Stats()
	assert.Equal(t, 1, stats.UniqueHashes)
	assert.Equal(t, 1, stats.DuplicatesFound)
	assert.Equal(t, 2, stats.TotalChunks)
	assert.Contains(t, stats.DuplicateLocations[acceptedA[0].Hash], "b.go:10-10")
}

func TestCollectFileSetsEnrichedContentAndLocation(t *testing.T) {
	c := NewCollector()
	node := RawNode{
		ID:        "1",
		FilePath:  "pkg/foo.go",
		Language:  "go",
		NodeType:  "function_declaration",
		NodeName:  "Foo",
		Content:   "func Foo() {}",
		StartLine: 5,
		EndLine:   5,
	}

	accepted := c.CollectFile([]RawNode{node})
	require.Len(t, accepted, 1)

	chunk := accepted[0]
	assert.Equal(t, []string{"pkg/foo.go:5-5"}, chunk.Locations)
	assert.True(t, chunk.EnrichedContent != chunk.Content)
	assert.Contains(t, chunk.EnrichedContent, "Symbol: Foo")
	assert.Contains(t, chunk.EnrichedContent, "File: pkg/foo.go")
	assert.Regexp(t, "\\n\\nfunc Foo", chunk.EnrichedContent)
}
