package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry/internal/adapters/driving/api"
	"github.com/quarry-labs/quarry/internal/adapters/driving/webhook"
	"github.com/quarry-labs/quarry/internal/connectors/filesystem"
	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/logger"
)

var (
	serveAddr        string
	serveWebhookAddr string
	serveWatch       bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API server",
	Long: `Starts the REST API server. Optionally also starts the Nextcloud
webhook listener and a filesystem watcher that keeps the vector store
in sync with the documents directory.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "API listen address (default from config)")
	serveCmd.Flags().StringVar(&serveWebhookAddr, "webhook-addr", "", "webhook listen address (empty disables the webhook)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "watch the documents directory for changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("services not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := vectorStore.Ping(ctx); err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = settings.Server.APIAddr
	}

	apiServer := api.NewServer(addr, ingestService, queryService, collectionService, statusService)
	apiErrs, err := apiServer.Start()
	if err != nil {
		return err
	}
	defer apiServer.Shutdown(context.Background()) //nolint:errcheck // Best effort on exit

	webhookAddr := serveWebhookAddr
	if webhookAddr == "" {
		webhookAddr = settings.Server.WebhookAddr
	}

	var webhookErrs <-chan error
	if webhookAddr != "" {
		webhookServer := webhook.NewServer(webhookAddr, settings.Ingest.DocumentsDir, ingestService)
		webhookErrs, err = webhookServer.Start()
		if err != nil {
			return err
		}
		defer webhookServer.Shutdown(context.Background()) //nolint:errcheck // Best effort on exit
	}

	if serveWatch {
		if settings.Ingest.DocumentsDir == "" {
			return errors.New("--watch requires a configured documents directory")
		}
		connector := filesystem.New(settings.Ingest.DocumentsDir)
		defer connector.Close()

		changes, err := connector.Watch(ctx)
		if err != nil {
			return err
		}
		go watchLoop(ctx, changes)
		logger.Info("Watching %s for changes", settings.Ingest.DocumentsDir)
	}

	cmd.Printf("API server listening on %s\n", apiServer.Addr())

	select {
	case <-ctx.Done():
		cmd.Println("Shutting down...")
		return nil
	case err := <-apiErrs:
		return err
	case err := <-webhookErrs:
		return err
	}
}

// watchLoop applies filesystem change events to the vector store.
func watchLoop(ctx context.Context, changes <-chan domain.RawDocumentChange) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			switch change.Type {
			case domain.ChangeCreated, domain.ChangeUpdated:
				if _, err := ingestService.IngestFile(ctx, change.Document.URI, ""); err != nil {
					logger.Warn("Watch ingest of %s failed: %v", change.Document.URI, err)
				}
			case domain.ChangeDeleted:
				if err := ingestService.RemoveFile(ctx, change.Document.URI, ""); err != nil {
					logger.Warn("Watch removal of %s failed: %v", change.Document.URI, err)
				}
			}
		}
	}
}
