package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [directory]",
	Short: "Show statistics for the documents directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	}

	stats, err := ingestService.Stats(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	cmd.Printf("Directory: %s\n", stats.Path)
	cmd.Printf("  Total files:     %d\n", stats.TotalFiles)
	cmd.Printf("  Supported files: %d\n", stats.SupportedFiles)
	cmd.Printf("  Total size:      %s\n", humanSize(stats.TotalSize))

	if len(stats.FileTypes) > 0 {
		cmd.Println("  By type:")
		exts := make([]string, 0, len(stats.FileTypes))
		for ext := range stats.FileTypes {
			exts = append(exts, ext)
		}
		sort.Strings(exts)
		for _, ext := range exts {
			cmd.Printf("    %-10s %d\n", ext, stats.FileTypes[ext])
		}
	}
	return nil
}

// humanSize renders a byte count using binary units.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
