package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry/internal/adapters/driving/tui"
)

var chatCollection string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat over your documents",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatCollection, "collection", "c", "", "collection to query (default from config)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	chat := tui.NewChat(queryService, chatCollection).WithContext(cmd.Context())
	return chat.Run()
}
