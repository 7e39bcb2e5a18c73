// Package config loads the complete pipeline configuration from
// ".contextinator/config.yml" with environment variable overrides, via
// spf13/viper.
package config

import "time"

// Config is the complete ingestion/search pipeline configuration. It can be
// loaded from ".contextinator/config.yml" with environment variable
// overrides.
type Config struct {
	Embedding   EmbeddingConfig   `yaml:"embedding" mapstructure:"embedding"`
	VectorStore VectorStoreConfig `yaml:"vector_store" mapstructure:"vector_store"`
	Discovery   DiscoveryConfig   `yaml:"discovery" mapstructure:"discovery"`
	Chunking    ChunkingConfig    `yaml:"chunking" mapstructure:"chunking"`
	Git         GitConfig         `yaml:"git" mapstructure:"git"`
}

// EmbeddingConfig configures the embedding provider. BatchSize and
// MaxConcurrent are loaded and validated, but embedding.Sync and
// embedding.Async do not read them: they always use batches of 250 chunks
// and at most 5 batches in flight.
type EmbeddingConfig struct {
	Endpoint      string `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey        string `yaml:"api_key" mapstructure:"api_key"`
	Model         string `yaml:"model" mapstructure:"model"`
	Dimensions    int    `yaml:"dimensions" mapstructure:"dimensions"`
	BatchSize     int    `yaml:"batch_size" mapstructure:"batch_size"`
	MaxConcurrent int    `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	UseServer bool   `yaml:"use_server" mapstructure:"use_server"`
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	AuthToken string `yaml:"auth_token" mapstructure:"auth_token"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
	BaseDir   string `yaml:"base_dir" mapstructure:"base_dir"`
}

// DiscoveryConfig controls which files get indexed.
type DiscoveryConfig struct {
	Ignore []string `yaml:"ignore" mapstructure:"ignore"`
}

// ChunkingConfig bounds chunk size and overlap.
type ChunkingConfig struct {
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`
	Overlap   int `yaml:"overlap" mapstructure:"overlap"`
}

// GitConfig controls repository cloning.
type GitConfig struct {
	CloneTimeout time.Duration `yaml:"clone_timeout" mapstructure:"clone_timeout"`
}

// Default returns a configuration with sensible defaults, matching the
// environment variable defaults the pipeline documents: EMBEDDING_BATCH_SIZE
// 250, CHROMA_SERVER_URL http://localhost:8000, CHROMA_BATCH_SIZE 100.
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Endpoint:      "https://api.openai.com/v1/embeddings",
			Model:         "text-embedding-3-small",
			Dimensions:    1536,
			BatchSize:     250,
			MaxConcurrent: 5,
		},
		VectorStore: VectorStoreConfig{
			UseServer: false,
			ServerURL: "http://localhost:8000",
			BatchSize: 100,
			BaseDir:   ".contextinator/chromadb",
		},
		Discovery: DiscoveryConfig{
			Ignore: nil,
		},
		Chunking: ChunkingConfig{
			MaxTokens: 2000,
			Overlap:   200,
		},
		Git: GitConfig{
			CloneTimeout: 300 * time.Second,
		},
	}
}
