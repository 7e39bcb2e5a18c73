package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contextinator/contextinator/internal/search"
)

var (
	structureDepth int
	structureJSON  bool
)

var structureCmd = &cobra.Command{
	Use:   "structure [path]",
	Short: "Print the directory tree of a repository, honoring discovery's ignore rules",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStructure,
}

func init() {
	rootCmd.AddCommand(structureCmd)
	structureCmd.Flags().IntVar(&structureDepth, "depth", 0, "maximum depth (0 = unbounded)")
	structureCmd.Flags().BoolVar(&structureJSON, "json", false, "print the tree as JSON")
}

func runStructure(cmd *cobra.Command, args []string) error {
	cfg, rootDir, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		rootDir = args[0]
	}

	tree, err := search.Structure(rootDir, cfg.Discovery.Ignore, structureDepth)
	if err != nil {
		return err
	}

	if structureJSON {
		return printJSON(tree)
	}
	printTree(tree, "")
	return nil
}

func printTree(node *search.TreeNode, indent string) {
	fmt.Println(indent + node.Name)
	for _, child := range node.Children {
		printTree(child, indent+"  ")
	}
}
