package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	gitutil "github.com/contextinator/contextinator/internal/git"
)

var repoInfoCmd = &cobra.Command{
	Use:   "repo-info [path]",
	Short: "Print git branch, ancestor, remote, and worktree information for a repository",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRepoInfo,
}

func init() {
	rootCmd.AddCommand(repoInfoCmd)
}

func runRepoInfo(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}

	ops := gitutil.NewOperations()
	root := ops.GetWorktreeRoot(path)
	branch := ops.GetCurrentBranch(root)
	ancestor := ops.FindAncestorBranch(root, branch)
	remote := ops.GetRemoteURL(root)
	branches, err := ops.GetBranches(root)
	if err != nil {
		return err
	}

	fmt.Printf("worktree root: %s\n", root)
	fmt.Printf("current branch: %s\n", branch)
	if ancestor != "" {
		fmt.Printf("ancestor branch: %s\n", ancestor)
	}
	if remote != "" {
		fmt.Printf("remote: %s\n", remote)
	}
	fmt.Printf("branches (%d):\n", len(branches))
	for _, b := range branches {
		fmt.Printf("  %s\n", b)
	}
	return nil
}
