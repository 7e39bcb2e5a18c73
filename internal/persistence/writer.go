// Package persistence writes and reads the on-disk chunk and embedding
// manifests, atomically, under a repository's ".contextinator" directory.
package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/contextinator/contextinator/internal/chunking"
	"github.com/contextinator/contextinator/internal/contextinatorerrors"
)

// ChunkManifest is the on-disk shape of chunks.json.
type ChunkManifest struct {
	Chunks       []chunking.Chunk        `json:"chunks"`
	Statistics   chunking.CollectorStats `json:"statistics"`
	Repository   string                  `json:"repository"`
	Version      string                  `json:"version"`
	TotalChunks  int                     `json:"total_chunks"`
	Schema       ManifestSchema          `json:"schema"`
}

// ManifestSchema documents the hierarchy fields present on every chunk.
type ManifestSchema struct {
	ParentChildEnabled bool     `json:"parent_child_enabled"`
	HierarchyFields    []string `json:"hierarchy_fields"`
}

func defaultSchema() ManifestSchema {
	return ManifestSchema{
		ParentChildEnabled: true,
		HierarchyFields:    []string{"id", "parent_id", "parent_type", "parent_name", "children_ids", "is_parent"},
	}
}

// EmbeddingManifest is the on-disk shape of embeddings.json.
type EmbeddingManifest struct {
	Embeddings  []chunking.EmbeddedChunk `json:"embeddings"`
	Model       string                   `json:"model"`
	TotalChunks int                      `json:"total_chunks"`
	Repository  string                   `json:"repository"`
	Version     string                   `json:"version"`
}

// legacyChunkList tolerates manifests written before the object wrapper was
// introduced, which were a bare JSON array of chunks.
type legacyChunkList = []chunking.Chunk

// Writer persists manifests atomically (temp file + rename) under baseDir.
type Writer struct {
	baseDir string
	tempDir string
}

// NewWriter prepares a Writer rooted at baseDir (typically
// "<repo>/.contextinator"), creating it and a scratch subdirectory, and
// clearing any stale temp files left by a previous interrupted run.
func NewWriter(baseDir string) (*Writer, error) {
	tempDir := filepath.Join(baseDir, ".tmp")
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, contextinatorerrors.FileSystemError(err, "create output directory %s", baseDir)
	}
	if err := os.RemoveAll(tempDir); err != nil {
		return nil, contextinatorerrors.FileSystemError(err, "clear stale temp directory %s", tempDir)
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, contextinatorerrors.FileSystemError(err, "create temp directory %s", tempDir)
	}
	return &Writer{baseDir: baseDir, tempDir: tempDir}, nil
}

// WriteChunks atomically writes chunks.json.
func (w *Writer) WriteChunks(repository string, chunks []chunking.Chunk, stats chunking.CollectorStats) error {
	manifest := ChunkManifest{
		Chunks:      chunks,
		Statistics:  stats,
		Repository:  repository,
		Version:     "2.0",
		TotalChunks: len(chunks),
		Schema:      defaultSchema(),
	}
	return w.writeAtomic("chunks.json", manifest)
}

// WriteEmbeddings atomically writes embeddings.json.
func (w *Writer) WriteEmbeddings(repository, model string, embeddings []chunking.EmbeddedChunk) error {
	manifest := EmbeddingManifest{
		Embeddings:  embeddings,
		Model:       model,
		TotalChunks: len(embeddings),
		Repository:  repository,
		Version:     "1.0",
	}
	return w.writeAtomic("embeddings.json", manifest)
}

func (w *Writer) writeAtomic(filename string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return contextinatorerrors.FileSystemError(err, "marshal %s", filename)
	}

	tempPath := filepath.Join(w.tempDir, filename)
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return contextinatorerrors.FileSystemError(err, "write temp file for %s", filename)
	}

	finalPath := filepath.Join(w.baseDir, filename)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return contextinatorerrors.FileSystemError(err, "rename temp file into place for %s", filename)
	}
	return nil
}

// ReadChunks loads chunks.json, tolerating both the current object shape
// and the legacy bare-list shape. A missing file returns an empty manifest,
// not an error.
func ReadChunks(baseDir string) (*ChunkManifest, error) {
	path := filepath.Join(baseDir, "chunks.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ChunkManifest{Chunks: []chunking.Chunk{}, Schema: defaultSchema()}, nil
		}
		return nil, contextinatorerrors.FileSystemError(err, "read %s", path)
	}

	var manifest ChunkManifest
	if err := json.Unmarshal(data, &manifest); err == nil && manifest.Chunks != nil {
		return &manifest, nil
	}

	var legacy legacyChunkList
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, contextinatorerrors.FileSystemError(err, "parse %s", path)
	}
	return &ChunkManifest{Chunks: legacy, Schema: defaultSchema(), TotalChunks: len(legacy)}, nil
}

// ReadEmbeddings loads embeddings.json, tolerating the legacy bare-list shape.
func ReadEmbeddings(baseDir string) (*EmbeddingManifest, error) {
	path := filepath.Join(baseDir, "embeddings.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &EmbeddingManifest{Embeddings: []chunking.EmbeddedChunk{}}, nil
		}
		return nil, contextinatorerrors.FileSystemError(err, "read %s", path)
	}

	var manifest EmbeddingManifest
	if err := json.Unmarshal(data, &manifest); err == nil && manifest.Embeddings != nil {
		return &manifest, nil
	}

	var legacy []chunking.EmbeddedChunk
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, contextinatorerrors.FileSystemError(err, "parse %s", path)
	}
	return &EmbeddingManifest{Embeddings: legacy, TotalChunks: len(legacy)}, nil
}
