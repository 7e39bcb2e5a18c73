package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/contextinator/contextinator/internal/search"
)

var (
	symbolType     string
	symbolLanguage string
	symbolExact    bool
)

var symbolCmd = &cobra.Command{
	Use:   "symbol <name>",
	Short: "Find symbols by name across an indexed collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbol,
}

func init() {
	rootCmd.AddCommand(symbolCmd)
	symbolCmd.Flags().StringVar(&searchCollection, "collection", "", "collection name (default: sanitized repository directory name)")
	symbolCmd.Flags().StringVar(&symbolType, "type", "", "filter by node type")
	symbolCmd.Flags().StringVar(&symbolLanguage, "language", "", "filter by language")
	symbolCmd.Flags().BoolVar(&symbolExact, "exact", false, "require an exact (case-sensitive) name match")
	symbolCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
}

func runSymbol(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, collection, err := newSearcher(ctx)
	if err != nil {
		return err
	}

	hits, err := s.Symbol(ctx, collection, args[0], search.SymbolOptions{
		SymbolType: symbolType,
		Language:   symbolLanguage,
		ExactMatch: symbolExact,
	})
	if err != nil {
		return err
	}

	if searchJSON {
		return printJSON(hits)
	}
	for _, h := range hits {
		fmt.Printf("%s  %s:%s  %s\n", h.Metadata["node_name"], h.Metadata["file_path"], h.Metadata["start_line"], h.Metadata["node_type"])
	}
	return nil
}
