package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/contextinator/contextinator/internal/chunking"
	"github.com/contextinator/contextinator/internal/discovery"
	"github.com/contextinator/contextinator/internal/persistence"
)

var (
	chunkQuiet   bool
	chunkSaveAST bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Parse and chunk the current repository into chunks.json",
	Long: `Chunk discovers source and documentation files, parses them into
AST-derived chunks, deduplicates by content hash, splits oversized chunks,
and writes the result to .contextinator/chunks.json.`,
	RunE: runChunk,
}

func init() {
	rootCmd.AddCommand(chunkCmd)
	chunkCmd.Flags().BoolVarP(&chunkQuiet, "quiet", "q", false, "suppress progress output")
	chunkCmd.Flags().BoolVar(&chunkSaveAST, "save-ast", false, "write a JSON AST dump per parsed file under <chunks-dir>/ast_trees")
}

func runChunk(cmd *cobra.Command, args []string) error {
	cfg, rootDir, err := loadConfig()
	if err != nil {
		return err
	}

	disc, err := discovery.New(rootDir, cfg.Discovery.Ignore)
	if err != nil {
		return fmt.Errorf("set up discovery: %w", err)
	}
	files, err := disc.DiscoverFiles()
	if err != nil {
		return fmt.Errorf("discover files: %w", err)
	}
	if !chunkQuiet {
		log.Printf("chunk: discovered %d files\n", len(files))
	}

	baseDir := filepath.Join(rootDir, ".contextinator")
	astDir := filepath.Join(baseDir, "ast_trees")

	collector := chunking.NewCollector()
	filesFailed := 0
	for _, f := range files {
		content, err := os.ReadFile(f.AbsPath)
		if err != nil {
			log.Printf("chunk: skipping %s: %v", f.Path, err)
			filesFailed++
			continue
		}

		var nodes []chunking.RawNode
		if chunkSaveAST {
			nodes, err = chunking.ExtractFileForAST(f, content, astDir)
		} else {
			nodes, err = chunking.ExtractFile(f, content)
		}
		if err != nil {
			log.Printf("chunk: skipping %s: %v", f.Path, err)
			filesFailed++
			continue
		}
		collector.CollectFile(nodes)
	}

	var splitChunks []chunking.Chunk
	for _, c := range collector.Chunks() {
		splits, err := chunking.SplitChunk(c, cfg.Chunking.MaxTokens, cfg.Chunking.Overlap, cfg.Embedding.Model)
		if err != nil {
			log.Printf("chunk: failed to split %s: %v", c.ID, err)
			continue
		}
		splitChunks = append(splitChunks, splits...)
	}

	stats := collector.Stats()
	w, err := persistence.NewWriter(baseDir)
	if err != nil {
		return err
	}
	if err := w.WriteChunks(filepath.Base(rootDir), splitChunks, stats); err != nil {
		return err
	}

	if chunkSaveAST {
		overview, err := chunking.SaveASTOverview(astDir)
		if err != nil {
			log.Printf("chunk: failed to write ast overview: %v", err)
		} else {
			fmt.Printf("chunk: ast dump for %d files written to %s\n", overview.TotalFiles, astDir)
		}
	}

	fmt.Printf("chunk: %d files ok, %d failed, %d unique chunks (%d duplicates), %d after splitting\n",
		len(files)-filesFailed, filesFailed, stats.UniqueHashes, stats.DuplicatesFound, len(splitChunks))
	return nil
}
