package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "contextinator",
	Short: "Index a codebase into semantically searchable chunks and search it",
	Long: `Contextinator parses a repository's source and documentation into
semantically meaningful chunks, embeds them, and stores them in a vector
database for symbol lookup, semantic search, grep, and file reconstruction.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
