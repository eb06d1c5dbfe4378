package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Manage vector store collections",
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections and their sizes",
	RunE:  runCollectionsList,
}

var collectionsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a collection and its documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionsDelete,
}

func init() {
	collectionsCmd.AddCommand(collectionsListCmd)
	collectionsCmd.AddCommand(collectionsDeleteCmd)
	rootCmd.AddCommand(collectionsCmd)
}

func runCollectionsList(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	infos, err := collectionService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}

	if len(infos) == 0 {
		cmd.Println("No collections found.")
		return nil
	}

	cmd.Printf("%-30s %s\n", "NAME", "POINTS")
	for _, info := range infos {
		cmd.Printf("%-30s %d\n", info.Name, info.PointCount)
	}
	return nil
}

func runCollectionsDelete(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	name := args[0]
	err := collectionService.Delete(cmd.Context(), name)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("collection %q does not exist", name)
	}
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}

	cmd.Printf("Collection %q deleted.\n", name)
	return nil
}
