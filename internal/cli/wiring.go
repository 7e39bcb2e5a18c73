package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/contextinator/contextinator/internal/config"
	"github.com/contextinator/contextinator/internal/embedding"
	"github.com/contextinator/contextinator/internal/vectorstore"
)

// loadConfig loads configuration from the current working directory.
func loadConfig() (*config.Config, string, error) {
	rootDir, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return nil, "", fmt.Errorf("load configuration: %w", err)
	}
	return cfg, rootDir, nil
}

// buildProvider constructs the embedding provider from configuration.
func buildProvider(cfg *config.Config) embedding.Provider {
	return embedding.NewHTTPClient(cfg.Embedding.Endpoint, cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.Dimensions)
}

// buildStore constructs the vector store from configuration, rooting the
// local fallback's on-disk database under rootDir/.contextinator/chromadb.
func buildStore(ctx context.Context, cfg *config.Config, rootDir string) (vectorstore.Store, error) {
	host, port, err := cfg.VectorStore.ServerHostPort()
	if err != nil && cfg.VectorStore.UseServer {
		return nil, fmt.Errorf("parse vector_store.server_url: %w", err)
	}

	baseDir := cfg.VectorStore.BaseDir
	if !filepath.IsAbs(baseDir) {
		baseDir = filepath.Join(rootDir, baseDir)
	}

	return vectorstore.NewStore(ctx, vectorstore.Config{
		ServerHost:   host,
		ServerPort:   port,
		AuthToken:    cfg.VectorStore.AuthToken,
		UseServer:    cfg.VectorStore.UseServer,
		VectorSize:   cfg.Embedding.Dimensions,
		LocalBaseDir: baseDir,
	})
}
