package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/contextinator/contextinator/internal/chunking"
	"github.com/contextinator/contextinator/internal/embedding"
	"github.com/contextinator/contextinator/internal/persistence"
)

var (
	embedQuiet    bool
	embedFailFast bool
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed the chunks in chunks.json into embeddings.json",
	Long: `Embed reads .contextinator/chunks.json and dispatches each chunk's content
(or enriched content, where present) to the configured embedding endpoint,
writing the resulting vectors to .contextinator/embeddings.json.

By default chunks are embedded synchronously: a batch that exhausts its
retries is skipped and logged rather than aborting the run. Pass
--fail-fast to dispatch batches concurrently instead, trading that
resilience for lower latency — any one batch's exhausted retries then
fails the whole command.`,
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)
	embedCmd.Flags().BoolVarP(&embedQuiet, "quiet", "q", false, "suppress progress output")
	embedCmd.Flags().BoolVar(&embedFailFast, "fail-fast", false, "dispatch batches concurrently, failing the whole run if any batch exhausts its retries")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, rootDir, err := loadConfig()
	if err != nil {
		return err
	}

	baseDir := filepath.Join(rootDir, ".contextinator")
	manifest, err := persistence.ReadChunks(baseDir)
	if err != nil {
		return err
	}
	if len(manifest.Chunks) == 0 {
		return fmt.Errorf("no chunks found in %s/chunks.json; run `contextinator chunk` first", baseDir)
	}

	provider := buildProvider(cfg)
	defer provider.Close()

	var embedded []chunking.EmbeddedChunk
	if embedFailFast {
		embedded, err = embedding.Async(ctx, provider, manifest.Chunks)
	} else {
		progressCh := make(chan embedding.Progress, 1)
		done := make(chan struct{})
		go func() {
			embedProgressBar(embedQuiet, len(manifest.Chunks), progressCh, done)
		}()
		embedded, err = embedding.Sync(ctx, provider, manifest.Chunks, progressCh)
		close(done)
	}
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	w, err := persistence.NewWriter(baseDir)
	if err != nil {
		return err
	}
	if err := w.WriteEmbeddings(filepath.Base(rootDir), cfg.Embedding.Model, embedded); err != nil {
		return err
	}

	fmt.Printf("embed: %d/%d chunks embedded with %s\n", len(embedded), len(manifest.Chunks), cfg.Embedding.Model)
	return nil
}
