package vectorstore

import (
	"context"
	"log"
	"path/filepath"
)

// Config selects and configures a vector store backend.
type Config struct {
	// ServerHost/ServerPort address a Qdrant server, tried first when
	// UseServer is set.
	ServerHost string
	ServerPort int
	AuthToken  string
	UseServer  bool

	// VectorSize is the embedding dimension, needed up front to create a
	// remote collection.
	VectorSize int

	// LocalBaseDir roots the on-disk fallback, e.g.
	// "<working-dir>/.contextinator/chromadb".
	LocalBaseDir string
}

// NewStore prefers a remote vector-store endpoint when configured; a failed
// heartbeat falls back to a local on-disk store and logs the fallback,
// per the connection policy in spec §4.10.
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	if cfg.UseServer {
		remote, err := NewRemoteStore(RemoteConfig{
			Host:       cfg.ServerHost,
			Port:       cfg.ServerPort,
			APIKey:     cfg.AuthToken,
			VectorSize: cfg.VectorSize,
		})
		if err != nil {
			log.Printf("vectorstore: remote dial failed, falling back to local: %v", err)
		} else if hbErr := remote.Heartbeat(ctx); hbErr == nil {
			return remote, nil
		} else {
			log.Printf("vectorstore: remote heartbeat failed, falling back to local: %v", hbErr)
			remote.Close()
		}
	}

	return NewLocalStore(filepath.Clean(cfg.LocalBaseDir))
}
