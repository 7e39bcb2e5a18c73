package config

import (
	"strings"

	"github.com/contextinator/contextinator/internal/contextinatorerrors"
)

// Validate checks that the configuration is complete and internally
// consistent.
func Validate(cfg *Config) error {
	var msgs []string

	msgs = append(msgs, validateEmbedding(&cfg.Embedding)...)
	msgs = append(msgs, validateVectorStore(&cfg.VectorStore)...)
	msgs = append(msgs, validateChunking(&cfg.Chunking)...)

	if len(msgs) == 0 {
		return nil
	}
	if len(msgs) == 1 {
		return contextinatorerrors.ConfigurationError(msgs[0])
	}
	return contextinatorerrors.ConfigurationError("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

func validateEmbedding(cfg *EmbeddingConfig) []string {
	var msgs []string
	if strings.TrimSpace(cfg.Endpoint) == "" {
		msgs = append(msgs, "embedding.endpoint is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		msgs = append(msgs, "embedding.model is required")
	}
	if cfg.Dimensions <= 0 {
		msgs = append(msgs, "embedding.dimensions must be positive")
	}
	if cfg.BatchSize <= 0 {
		msgs = append(msgs, "embedding.batch_size must be positive")
	}
	if cfg.MaxConcurrent <= 0 {
		msgs = append(msgs, "embedding.max_concurrent must be positive")
	}
	return msgs
}

func validateVectorStore(cfg *VectorStoreConfig) []string {
	var msgs []string
	if cfg.UseServer && strings.TrimSpace(cfg.ServerURL) == "" {
		msgs = append(msgs, "vector_store.server_url is required when vector_store.use_server is true")
	}
	if cfg.BatchSize <= 0 {
		msgs = append(msgs, "vector_store.batch_size must be positive")
	}
	if strings.TrimSpace(cfg.BaseDir) == "" {
		msgs = append(msgs, "vector_store.base_dir is required")
	}
	return msgs
}

func validateChunking(cfg *ChunkingConfig) []string {
	var msgs []string
	if cfg.MaxTokens <= 0 {
		msgs = append(msgs, "chunking.max_tokens must be positive")
	}
	if cfg.Overlap < 0 {
		msgs = append(msgs, "chunking.overlap cannot be negative")
	}
	if cfg.MaxTokens > 0 && cfg.Overlap >= cfg.MaxTokens {
		msgs = append(msgs, "chunking.overlap must be less than chunking.max_tokens")
	}
	return msgs
}
