// Package cli implements the command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry/internal/adapters/driven/ai"
	configfile "github.com/quarry-labs/quarry/internal/adapters/driven/config/file"
	"github.com/quarry-labs/quarry/internal/adapters/driven/storage/sqlite"
	vectormem "github.com/quarry-labs/quarry/internal/adapters/driven/vectorstore/memory"
	"github.com/quarry-labs/quarry/internal/adapters/driven/vectorstore/qdrant"
	"github.com/quarry-labs/quarry/internal/connectors/filesystem"
	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/core/services"
	"github.com/quarry-labs/quarry/internal/logger"
	"github.com/quarry-labs/quarry/internal/normalisers"
	"github.com/quarry-labs/quarry/internal/normalisers/docx"
	"github.com/quarry-labs/quarry/internal/normalisers/html"
	"github.com/quarry-labs/quarry/internal/normalisers/markdown"
	"github.com/quarry-labs/quarry/internal/normalisers/pdf"
	"github.com/quarry-labs/quarry/internal/normalisers/plaintext"
	"github.com/quarry-labs/quarry/internal/normalisers/xlsx"
	"github.com/quarry-labs/quarry/internal/postprocessors"
	"github.com/quarry-labs/quarry/internal/postprocessors/chunker"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Wired services, populated by initServices. Commands check for nil so
// tests can inject fakes.
var (
	settings          domain.Settings
	ingestService     driving.IngestService
	queryService      driving.QueryService
	collectionService driving.CollectionService
	statusService     driving.StatusService

	docStore    *sqlite.Store
	vectorStore driven.VectorStore
	embedder    driven.EmbeddingService
	llm         driven.LLMService
)

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Ask questions about your local documents",
	Long: `quarry ingests a directory of documents into a vector store and
answers natural-language questions about them using a local LLM.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if skipsServices(cmd) {
			return nil
		}
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the CLI.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// skipsServices reports whether a command runs without the service
// graph (version, help, completion).
func skipsServices(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return true
	}
	return false
}

// initServices builds the full dependency graph from configuration.
// Idempotent so tests can pre-populate the service variables.
func initServices() error {
	if ingestService != nil {
		return nil
	}

	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settings = configfile.LoadSettings(configStore)

	docStore, err = sqlite.NewStore(settings.DataDir)
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}

	embedder, err = ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return fmt.Errorf("creating embedding service: %w", err)
	}
	if embedder == nil {
		return fmt.Errorf("%w: check the embedding provider settings", domain.ErrEmbeddingUnavailable)
	}
	llm, err = ai.CreateLLMService(&settings.LLM)
	if err != nil {
		return fmt.Errorf("creating llm service: %w", err)
	}
	if llm == nil {
		return fmt.Errorf("%w: check the llm provider settings", domain.ErrLLMUnavailable)
	}

	if settings.VectorStore.URL != "" {
		vectorStore = qdrant.NewStore(qdrant.Config{
			URL:    settings.VectorStore.URL,
			APIKey: settings.VectorStore.APIKey,
		})
	} else {
		logger.Info("No vector store URL configured, using in-memory store")
		vectorStore = vectormem.NewStore()
	}

	registry := buildRegistry()
	pipeline := postprocessors.NewPipeline(
		chunker.New(
			chunker.WithChunkSize(settings.Ingest.ChunkSize),
			chunker.WithOverlap(settings.Ingest.ChunkOverlap),
		),
	)

	connectorFor := func(rootPath string) driven.Connector {
		return filesystem.New(rootPath)
	}

	ingestService = services.NewIngestService(
		settings, connectorFor, registry, pipeline, embedder, docStore, vectorStore,
	)
	queryService = services.NewQueryService(settings, embedder, vectorStore, llm)
	collectionService = services.NewCollectionService(vectorStore, docStore)
	statusService = services.NewStatusService(embedder, llm, vectorStore)
	return nil
}

// buildRegistry registers every available normaliser. PDF support
// depends on the pdftotext binary being installed.
func buildRegistry() driven.NormaliserRegistry {
	registry := normalisers.NewRegistry()
	registry.Register(plaintext.New())
	registry.Register(markdown.New())
	registry.Register(html.New())
	registry.Register(docx.New())
	registry.Register(xlsx.New())

	if err := pdf.CheckAvailable(); err == nil {
		registry.Register(pdf.New())
	} else {
		logger.Warn("PDF support disabled: %v", err)
		logger.Warn("%s", pdf.InstallInstructions())
	}
	return registry
}

func closeServices() {
	if embedder != nil {
		embedder.Close()
	}
	if llm != nil {
		llm.Close()
	}
	if vectorStore != nil {
		vectorStore.Close()
	}
	if docStore != nil {
		docStore.Close()
	}
}
