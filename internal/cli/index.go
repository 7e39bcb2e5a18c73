package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/contextinator/contextinator/internal/orchestrator"
)

var (
	indexQuiet      bool
	indexCollection string
	indexClear      bool
	indexNoManifest bool
	indexConcurrent int
)

var indexCmd = &cobra.Command{
	Use:   "index [repo-or-url]...",
	Short: "Run the full chunk -> embed -> store pipeline",
	Long: `Index runs the complete ingestion pipeline for one or more repositories:
clone (if a URL is given), discover, parse, collect, split, embed, and
upsert into the vector store. With no arguments it indexes the current
directory. With more than one argument, repositories are processed
concurrently.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&indexQuiet, "quiet", "q", false, "suppress progress output")
	indexCmd.Flags().StringVar(&indexCollection, "collection", "", "collection name override (single-repo only)")
	indexCmd.Flags().BoolVar(&indexClear, "clear", false, "clear the collection before upserting")
	indexCmd.Flags().BoolVar(&indexNoManifest, "no-manifest", false, "skip writing chunks.json/embeddings.json")
	indexCmd.Flags().IntVar(&indexConcurrent, "concurrent", 5, "max repositories processed concurrently")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, rootDir, err := loadConfig()
	if err != nil {
		return err
	}

	provider := buildProvider(cfg)
	defer provider.Close()

	store, err := buildStore(ctx, cfg, rootDir)
	if err != nil {
		return fmt.Errorf("connect to vector store: %w", err)
	}
	defer store.Close()

	orch := orchestrator.New(cfg, provider, store)

	repos := args
	if len(repos) == 0 {
		repos = []string{rootDir}
	}

	opts := orchestrator.Options{
		CollectionName:   indexCollection,
		ClearExisting:    indexClear,
		PersistManifests: !indexNoManifest,
		BaseDir:          filepath.Join(rootDir, ".contextinator"),
		Cleanup:          true,
	}

	if len(repos) == 1 {
		stats, err := orch.Process(ctx, repos[0], opts)
		if err != nil {
			return fmt.Errorf("index %s: %w", repos[0], err)
		}
		printStats(repos[0], stats)
		return nil
	}

	results := orch.ProcessBatch(ctx, repos, opts, indexConcurrent)
	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
			fmt.Printf("index: %s failed: %v\n", r.RepoURLOrPath, r.Err)
			continue
		}
		printStats(r.RepoURLOrPath, r.Stats)
	}
	if failures > 0 {
		return fmt.Errorf("%d/%d repositories failed", failures, len(repos))
	}
	return nil
}

func printStats(repo string, stats orchestrator.Stats) {
	fmt.Printf("index: %s — %d files ok, %d failed, %d unique chunks (%d duplicates), %d embedded, %d upserted\n",
		repo, stats.FilesOK, stats.FilesFailed, stats.UniqueChunks, stats.Duplicates, stats.Embedded, stats.Upserted)
}
