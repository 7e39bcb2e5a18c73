package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - LoadConfigFromDir() uses defaults when no config file exists
// - LoadConfigFromDir() loads from .contextinator/config.yml when present
// - Upstream env vars (OPENAI_API_KEY, EMBEDDING_BATCH_SIZE, CHROMA_*) override file+defaults
// - Validate() accepts a valid configuration
// - Validate() rejects empty endpoint/model, non-positive dimensions/batch sizes
// - Validate() rejects overlap >= max_tokens
// - ServerHostPort() splits a URL into host/port, defaulting the port

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "https://api.openai.com/v1/embeddings", cfg.Embedding.Endpoint)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 1536, cfg.Embedding.Dimensions)
	assert.Equal(t, 250, cfg.Embedding.BatchSize)

	assert.Equal(t, "http://localhost:8000", cfg.VectorStore.ServerURL)
	assert.Equal(t, 100, cfg.VectorStore.BatchSize)
	assert.False(t, cfg.VectorStore.UseServer)

	assert.Equal(t, 2000, cfg.Chunking.MaxTokens)
	assert.Equal(t, 200, cfg.Chunking.Overlap)

	require.NoError(t, Validate(cfg))
}

func TestLoadConfigFromDir_UsesDefaultsWhenNoFileExists(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfigFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, Default().Embedding.Model, cfg.Embedding.Model)
}

func TestLoadConfigFromDir_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".contextinator"), 0o755))
	contents := "embedding:\n  model: custom-model\n  dimensions: 768\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".contextinator", "config.yml"), []byte(contents), 0o644))

	cfg, err := LoadConfigFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "custom-model", cfg.Embedding.Model)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
}

func TestLoadConfigFromDir_UpstreamEnvVarsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("OPENAI_API_KEY", "sk-test-key")
	t.Setenv("EMBEDDING_BATCH_SIZE", "42")
	t.Setenv("USE_CHROMA_SERVER", "true")
	t.Setenv("CHROMA_SERVER_URL", "http://qdrant.internal:6333")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".contextinator"), 0o755))
	contents := "embedding:\n  batch_size: 7\nvector_store:\n  server_url: http://file-host:1234\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".contextinator", "config.yml"), []byte(contents), 0o644))

	cfg, err := LoadConfigFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "sk-test-key", cfg.Embedding.APIKey)
	assert.Equal(t, 42, cfg.Embedding.BatchSize)
	assert.True(t, cfg.VectorStore.UseServer)
	assert.Equal(t, "http://qdrant.internal:6333", cfg.VectorStore.ServerURL)
}

func TestValidate_RejectsEmptyEndpointAndModel(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Endpoint = ""
	cfg.Embedding.Model = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding.endpoint is required")
	assert.Contains(t, err.Error(), "embedding.model is required")
}

func TestValidate_RejectsNonPositiveDimensionsAndBatchSize(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Dimensions = 0
	cfg.Embedding.BatchSize = -1

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding.dimensions must be positive")
	assert.Contains(t, err.Error(), "embedding.batch_size must be positive")
}

func TestValidate_RejectsOverlapGreaterThanOrEqualMaxTokens(t *testing.T) {
	cfg := Default()
	cfg.Chunking.MaxTokens = 100
	cfg.Chunking.Overlap = 100

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlap must be less than")
}

func TestValidate_RequiresServerURLWhenUseServerIsTrue(t *testing.T) {
	cfg := Default()
	cfg.VectorStore.UseServer = true
	cfg.VectorStore.ServerURL = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector_store.server_url is required")
}

func TestServerHostPort_SplitsURL(t *testing.T) {
	cfg := VectorStoreConfig{ServerURL: "http://localhost:6333"}
	host, port, err := cfg.ServerHostPort()
	require.NoError(t, err)
	assert.Equal(t, "localhost", host)
	assert.Equal(t, 6333, port)
}

func TestServerHostPort_DefaultsPortWhenMissing(t *testing.T) {
	cfg := VectorStoreConfig{ServerURL: "http://qdrant.internal"}
	_, port, err := cfg.ServerHostPort()
	require.NoError(t, err)
	assert.Equal(t, 6334, port)
}
