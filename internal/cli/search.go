package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/contextinator/contextinator/internal/search"
	"github.com/contextinator/contextinator/internal/vectorstore"
)

var (
	searchCollection string
	searchLimit      int
	searchLanguage   string
	searchFilePath   string
	searchNodeType   string
	searchMinScore   float64
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantic search over an indexed collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	addSearchFlags(searchCmd)
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "minimum similarity score")
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&searchCollection, "collection", "", "collection name (default: sanitized repository directory name)")
	cmd.Flags().IntVar(&searchLimit, "limit", 15, "maximum results")
	cmd.Flags().StringVar(&searchLanguage, "language", "", "filter by language")
	cmd.Flags().StringVar(&searchFilePath, "file", "", "filter by file path substring")
	cmd.Flags().StringVar(&searchNodeType, "type", "", "filter by node type")
	cmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
}

func resolveCollection(rootDir string) string {
	if searchCollection != "" {
		return searchCollection
	}
	return vectorstore.SanitizeCollectionName(filepath.Base(rootDir))
}

func newSearcher(ctx context.Context) (*search.Searcher, string, error) {
	cfg, rootDir, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	store, err := buildStore(ctx, cfg, rootDir)
	if err != nil {
		return nil, "", fmt.Errorf("connect to vector store: %w", err)
	}
	provider := buildProvider(cfg)
	return search.New(store, provider), resolveCollection(rootDir), nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, collection, err := newSearcher(ctx)
	if err != nil {
		return err
	}

	hits, err := s.Semantic(ctx, collection, args[0], search.SemanticOptions{
		Limit:            searchLimit,
		Language:         searchLanguage,
		FilePathContains: searchFilePath,
		NodeType:         searchNodeType,
		MinScore:         searchMinScore,
	})
	if err != nil {
		return err
	}

	if searchJSON {
		return printJSON(hits)
	}
	for _, h := range hits {
		fmt.Printf("%.3f  %s:%s  %s\n", h.Similarity, h.Metadata["file_path"], h.Metadata["start_line"], h.Metadata["node_name"])
		fmt.Println(h.Content)
		fmt.Println("---")
	}
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
