package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var queryCollection string

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask a one-off question about your documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryCollection, "collection", "c", "", "collection to query (default from config)")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	answer, err := queryService.Ask(cmd.Context(), args[0], queryCollection)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	cmd.Println(answer.Text)
	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, src := range answer.Sources {
			cmd.Printf("  - %s\n", src)
		}
	}
	return nil
}
