package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var readFileCmd = &cobra.Command{
	Use:   "read-file <path>",
	Short: "Reconstruct a source file from its indexed chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runReadFile,
}

func init() {
	rootCmd.AddCommand(readFileCmd)
	readFileCmd.Flags().StringVar(&searchCollection, "collection", "", "collection name (default: sanitized repository directory name)")
	readFileCmd.Flags().BoolVar(&searchJSON, "json", false, "print the result as JSON")
}

func runReadFile(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, collection, err := newSearcher(ctx)
	if err != nil {
		return err
	}

	result, err := s.ReadFile(ctx, collection, args[0])
	if err != nil {
		return err
	}
	if result.TotalChunks == 0 {
		return fmt.Errorf("no chunks found for %q in collection %q", args[0], collection)
	}

	if searchJSON {
		return printJSON(result)
	}
	fmt.Println(result.Content)
	return nil
}
