package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/contextinator/contextinator/internal/persistence"
	"github.com/contextinator/contextinator/internal/vectorstore"
)

var (
	storeCollection string
	storeClear      bool
)

var storeEmbeddingsCmd = &cobra.Command{
	Use:   "store-embeddings",
	Short: "Upsert embeddings.json into the vector store",
	Long: `StoreEmbeddings reads .contextinator/embeddings.json and upserts every
point into the configured vector store (Qdrant when vector_store.use_server
is set, a local chromem-go database otherwise).`,
	RunE: runStoreEmbeddings,
}

func init() {
	rootCmd.AddCommand(storeEmbeddingsCmd)
	storeEmbeddingsCmd.Flags().StringVar(&storeCollection, "collection", "", "collection name (default: sanitized repository directory name)")
	storeEmbeddingsCmd.Flags().BoolVar(&storeClear, "clear", false, "clear the collection before upserting")
}

func runStoreEmbeddings(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, rootDir, err := loadConfig()
	if err != nil {
		return err
	}

	baseDir := filepath.Join(rootDir, ".contextinator")
	manifest, err := persistence.ReadEmbeddings(baseDir)
	if err != nil {
		return err
	}
	if len(manifest.Embeddings) == 0 {
		return fmt.Errorf("no embeddings found in %s/embeddings.json; run `contextinator embed` first", baseDir)
	}

	store, err := buildStore(ctx, cfg, rootDir)
	if err != nil {
		return fmt.Errorf("connect to vector store: %w", err)
	}
	defer store.Close()

	collection := storeCollection
	if collection == "" {
		collection = vectorstore.SanitizeCollectionName(filepath.Base(rootDir))
	}

	points := make([]vectorstore.Point, len(manifest.Embeddings))
	for i, e := range manifest.Embeddings {
		points[i] = vectorstore.PointFromEmbeddedChunk(e)
	}

	written, err := store.Upsert(ctx, collection, points, cfg.VectorStore.BatchSize, storeClear)
	if err != nil {
		return err
	}

	fmt.Printf("store-embeddings: upserted %d/%d points into %q (%s backend)\n", written, len(points), collection, store.Using())
	return nil
}
