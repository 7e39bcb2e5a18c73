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
	patternRegex     bool
	patternWholeWord bool
	patternCase      bool
	patternContext   int
	patternLanguage  string
)

var patternCmd = &cobra.Command{
	Use:   "pattern <pattern>",
	Short: "Grep chunk bodies in an indexed collection for a literal or regex pattern",
	Args:  cobra.ExactArgs(1),
	RunE:  runPattern,
}

func init() {
	rootCmd.AddCommand(patternCmd)
	patternCmd.Flags().StringVar(&searchCollection, "collection", "", "collection name (default: sanitized repository directory name)")
	patternCmd.Flags().BoolVar(&patternRegex, "regex", false, "treat pattern as a regular expression")
	patternCmd.Flags().BoolVar(&patternWholeWord, "word", false, "match whole words only")
	patternCmd.Flags().BoolVar(&patternCase, "case-sensitive", false, "case-sensitive match")
	patternCmd.Flags().IntVar(&patternContext, "context", 0, "lines of context around each match")
	patternCmd.Flags().StringVar(&patternLanguage, "language", "", "filter by language")
	patternCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
}

func runPattern(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, collection, err := newSearcher(ctx)
	if err != nil {
		return err
	}

	matches, err := s.Grep(ctx, collection, search.GrepOptions{
		Pattern:       args[0],
		IsRegex:       patternRegex,
		WholeWord:     patternWholeWord,
		CaseSensitive: patternCase,
		ContextLines:  patternContext,
		Language:      patternLanguage,
	})
	if err != nil {
		return err
	}

	if searchJSON {
		return printJSON(matches)
	}
	for _, fm := range matches {
		fmt.Println(fm.FilePath)
		for _, l := range fm.Lines {
			fmt.Printf("  %d: %s\n", l.LineNumber, l.Text)
		}
	}
	return nil
}
