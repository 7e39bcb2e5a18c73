package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextinator/contextinator/internal/chunking"
)

func TestWriteAndReadChunksRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	chunks := []chunking.Chunk{{ID: "1", Content: "a", Hash: "h1"}}
	stats := chunking.CollectorStats{TotalChunks: 1, UniqueHashes: 1}

	require.NoError(t, w.WriteChunks("myrepo", chunks, stats))

	manifest, err := ReadChunks(dir)
	require.NoError(t, err)
	assert.Equal(t, "myrepo", manifest.Repository)
	assert.Equal(t, 1, manifest.TotalChunks)
	assert.Equal(t, chunks, manifest.Chunks)

	_, err = os.Stat(filepath.Join(dir, ".tmp"))
	assert.NoError(t, err)
}

func TestReadChunksToleratesLegacyListFormat(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chunks.json"), []byte(`[{"id":"1","content":"x","hash":"h"}]`), 0o644))

	manifest, err := ReadChunks(dir)
	require.NoError(t, err)
	require.Len(t, manifest.Chunks, 1)
	assert.Equal(t, "1", manifest.Chunks[0].ID)
}

func TestReadChunksMissingFileReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	manifest, err := ReadChunks(dir)
	require.NoError(t, err)
	assert.Empty(t, manifest.Chunks)
}
