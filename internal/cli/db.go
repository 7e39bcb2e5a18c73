package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/contextinator/contextinator/internal/vectorstore"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect and manage the vector store's collections",
}

var dbInfoCmd = &cobra.Command{
	Use:   "info [collection]",
	Short: "Show which backend is active and a collection's point count",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDBInfo,
}

var dbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every collection in the vector store",
	RunE:  runDBList,
}

var dbShowCmd = &cobra.Command{
	Use:   "show <collection>",
	Short: "Show a sample of points in a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runDBShow,
}

var dbClearCmd = &cobra.Command{
	Use:   "clear <collection>",
	Short: "Delete a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runDBClear,
}

var dbShowLimit int

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbInfoCmd, dbListCmd, dbShowCmd, dbClearCmd)
	dbShowCmd.Flags().IntVar(&dbShowLimit, "limit", 10, "maximum points to show")
}

func withStore(fn func(ctx context.Context, store vectorstore.Store, rootDir string) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, rootDir, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := buildStore(ctx, cfg, rootDir)
	if err != nil {
		return fmt.Errorf("connect to vector store: %w", err)
	}
	defer store.Close()

	return fn(ctx, store, rootDir)
}

func runDBInfo(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, store vectorstore.Store, rootDir string) error {
		fmt.Printf("backend: %s\n", store.Using())
		collection := ""
		if len(args) == 1 {
			collection = args[0]
		} else {
			collection = vectorstore.SanitizeCollectionName(filepath.Base(rootDir))
		}
		info, err := store.GetCollection(ctx, collection)
		if err != nil {
			return err
		}
		fmt.Printf("collection: %s (%d points)\n", info.Name, info.Count)
		return nil
	})
}

func runDBList(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, store vectorstore.Store, rootDir string) error {
		collections, err := store.ListCollections(ctx)
		if err != nil {
			return err
		}
		for _, c := range collections {
			fmt.Printf("%s\t%d points\n", c.Name, c.Count)
		}
		return nil
	})
}

func runDBShow(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, store vectorstore.Store, rootDir string) error {
		points, err := store.Get(ctx, args[0], vectorstore.Filter{}, dbShowLimit)
		if err != nil {
			return err
		}
		return printJSON(points)
	})
}

func runDBClear(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, store vectorstore.Store, rootDir string) error {
		if err := store.DeleteCollection(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("cleared collection %s\n", args[0])
		return nil
	})
}
