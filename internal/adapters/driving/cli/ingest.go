package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

var ingestCollection string

var ingestCmd = &cobra.Command{
	Use:   "ingest [directory]",
	Short: "Ingest documents into the vector store",
	Long: `Walks the directory, parses every supported file, splits it into
chunks, embeds the chunks and stores them in the vector store.
Without an argument the configured documents directory is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestCollection, "collection", "c", "", "target collection (default from config)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	}

	cmd.Println("Ingesting documents...")
	report, err := ingestService.IngestDirectory(cmd.Context(), path, ingestCollection)
	if errors.Is(err, domain.ErrIngestInProgress) {
		return errors.New("another ingestion run is already in progress")
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Done in %s\n", report.Duration.Round(time.Millisecond))
	cmd.Printf("  Files processed: %d\n", report.FilesProcessed)
	cmd.Printf("  Files skipped:   %d\n", report.FilesSkipped)
	cmd.Printf("  Chunks created:  %d\n", report.ChunksCreated)
	if report.ErrorCount > 0 {
		cmd.Printf("  Errors:          %d (run with --verbose for details)\n", report.ErrorCount)
	}
	return nil
}
