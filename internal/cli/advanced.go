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
	advancedText     string
	advancedEquals   map[string]string
	advancedContains map[string]string
	advancedLimit    int
)

var advancedCmd = &cobra.Command{
	Use:   "search-advanced",
	Short: "Search with an exact-match metadata filter and a text pattern",
	Long: `search-advanced combines an exact-match metadata filter (--equals) with a
text pattern (--pattern) and per-field substring filters (--contains),
matching file_path contains through the same three-tier path rule as
read-file.`,
	RunE: runAdvanced,
}

func init() {
	rootCmd.AddCommand(advancedCmd)
	advancedCmd.Flags().StringVar(&searchCollection, "collection", "", "collection name (default: sanitized repository directory name)")
	advancedCmd.Flags().StringVar(&advancedText, "pattern", "", "text pattern to match within chunk content")
	advancedCmd.Flags().StringToStringVar(&advancedEquals, "equals", nil, "exact-match metadata filters, e.g. --equals language=python,node_type=function")
	advancedCmd.Flags().StringToStringVar(&advancedContains, "contains", nil, "substring metadata filters, e.g. --contains file_path=auth.ts")
	advancedCmd.Flags().IntVar(&advancedLimit, "limit", 50, "maximum results")
	advancedCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
}

func runAdvanced(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, collection, err := newSearcher(ctx)
	if err != nil {
		return err
	}

	hits, err := s.Advanced(ctx, collection, search.AdvancedOptions{
		TextPattern: advancedText,
		Equals:      advancedEquals,
		Contains:    advancedContains,
		Limit:       advancedLimit,
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
