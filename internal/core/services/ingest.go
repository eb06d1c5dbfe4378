package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// errNoChunks marks documents whose normalised content is empty.
// They are counted as skipped, not as errors.
var errNoChunks = errors.New("document produced no chunks")

// ConnectorFactory builds a connector rooted at the given path.
// The composition root supplies the filesystem implementation.
type ConnectorFactory func(rootPath string) driven.Connector

// IngestService coordinates the document ingestion pipeline:
// connector -> normaliser -> chunker -> embeddings -> stores.
type IngestService struct {
	settings   domain.Settings
	connectors ConnectorFactory
	registry   driven.NormaliserRegistry
	pipeline   driven.PostProcessorPipeline
	embedder   driven.EmbeddingService
	documents  driven.DocumentStore
	vectors    driven.VectorStore

	mu      sync.Mutex
	running bool
}

// NewIngestService creates the ingestion orchestrator.
func NewIngestService(
	settings domain.Settings,
	connectors ConnectorFactory,
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	documents driven.DocumentStore,
	vectors driven.VectorStore,
) *IngestService {
	return &IngestService{
		settings:   settings,
		connectors: connectors,
		registry:   registry,
		pipeline:   pipeline,
		embedder:   embedder,
		documents:  documents,
		vectors:    vectors,
	}
}

// IngestDirectory processes every supported file under path into the
// collection. Files that fail are logged and counted, not fatal.
func (s *IngestService) IngestDirectory(ctx context.Context, path, collection string) (*domain.IngestReport, error) {
	path = s.resolvePath(path)
	collection = s.resolveCollection(collection)
	if path == "" {
		return nil, fmt.Errorf("%w: no documents directory configured", domain.ErrInvalidInput)
	}

	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	if err := s.vectors.EnsureCollection(ctx, collection, s.embedder.Dimensions()); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	connector := s.connectors(path)
	defer connector.Close()

	report := &domain.IngestReport{
		Collection: collection,
		Path:       path,
		StartedAt:  time.Now(),
	}

	logger.Info("Starting ingest of %s into %q", path, collection)

	docsCh, errsCh := connector.FullSync(ctx, s.registry.SupportedMIMETypes())
	if err := s.consume(ctx, collection, docsCh, errsCh, report); err != nil {
		return nil, err
	}

	report.Duration = time.Since(report.StartedAt)
	if err := s.documents.SaveIngestReport(ctx, report); err != nil {
		logger.Warn("Failed to record ingest run: %v", err)
	}

	logger.Info("Ingest complete: %d files, %d chunks, %d skipped, %d errors",
		report.FilesProcessed, report.ChunksCreated, report.FilesSkipped, report.ErrorCount)
	return report, nil
}

// IngestFile processes a single file into the collection.
func (s *IngestService) IngestFile(ctx context.Context, path, collection string) (*domain.IngestReport, error) {
	collection = s.resolveCollection(collection)

	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	if err := s.vectors.EnsureCollection(ctx, collection, s.embedder.Dimensions()); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	connector := s.connectors(s.resolvePath(""))
	defer connector.Close()

	raw, err := connector.Fetch(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}

	report := &domain.IngestReport{
		Collection: collection,
		Path:       path,
		StartedAt:  time.Now(),
	}

	chunks, err := s.processOne(ctx, collection, raw)
	switch {
	case errors.Is(err, domain.ErrUnsupportedType), errors.Is(err, errNoChunks):
		report.FilesSkipped++
	case err != nil:
		return nil, err
	default:
		report.FilesProcessed++
		report.ChunksCreated += chunks
	}

	report.Duration = time.Since(report.StartedAt)
	return report, nil
}

// RemoveFile deletes the document ingested from path along with its
// chunks and vectors. Unknown paths are a no-op.
func (s *IngestService) RemoveFile(ctx context.Context, path, collection string) error {
	collection = s.resolveCollection(collection)

	doc, err := s.documents.GetDocumentByURI(ctx, collection, path)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup %s: %w", path, err)
	}

	if err := s.vectors.DeletePoints(ctx, collection, doc.ID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := s.documents.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	logger.Debug("Removed %s from %q", path, collection)
	return nil
}

// Stats computes directory statistics without ingesting anything.
func (s *IngestService) Stats(ctx context.Context, path string) (*domain.DirectoryStats, error) {
	path = s.resolvePath(path)
	if path == "" {
		return nil, fmt.Errorf("%w: no documents directory configured", domain.ErrInvalidInput)
	}

	connector := s.connectors(path)
	defer connector.Close()

	return connector.Stats(ctx, s.registry.SupportedMIMETypes())
}

// Running reports whether an ingestion run is active.
func (s *IngestService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// consume drains the connector channels, processing each document.
func (s *IngestService) consume(
	ctx context.Context,
	collection string,
	docsCh <-chan domain.RawDocument,
	errsCh <-chan error,
	report *domain.IngestReport,
) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if err != nil {
				return fmt.Errorf("connector error: %w", err)
			}

		case raw, ok := <-docsCh:
			if !ok {
				return nil
			}

			logger.Debug("Processing: %s", raw.URI)
			chunks, err := s.processOne(ctx, collection, &raw)
			switch {
			case errors.Is(err, domain.ErrUnsupportedType), errors.Is(err, errNoChunks):
				report.FilesSkipped++
				logger.Debug("Skipping %s: %v", raw.URI, err)
			case err != nil:
				report.ErrorCount++
				logger.Warn("Failed to process %s: %v", raw.URI, err)
			default:
				report.FilesProcessed++
				report.ChunksCreated += chunks
			}
		}
	}
}

// processOne runs a single raw document through the pipeline and
// returns the number of chunks stored.
func (s *IngestService) processOne(ctx context.Context, collection string, raw *domain.RawDocument) (int, error) {
	// 1. Normalise into a Document with text content
	result, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		return 0, fmt.Errorf("normalise: %w", err)
	}

	doc := result.Document
	doc.Collection = collection
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	// 2. Replace any earlier ingest of the same path
	if existing, err := s.documents.GetDocumentByURI(ctx, collection, doc.URI); err == nil {
		doc.CreatedAt = existing.CreatedAt
		if err := s.vectors.DeletePoints(ctx, collection, existing.ID); err != nil {
			return 0, fmt.Errorf("delete stale vectors: %w", err)
		}
		if err := s.documents.DeleteDocument(ctx, existing.ID); err != nil {
			return 0, fmt.Errorf("delete stale document: %w", err)
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return 0, fmt.Errorf("lookup %s: %w", doc.URI, err)
	}

	// 3. Chunk
	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		return 0, fmt.Errorf("post-process: %w", err)
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: %s", errNoChunks, doc.URI)
	}

	// 4. Embed
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = make(map[string]any)
		}
		// The vector store payload carries these so retrieval can cite
		// sources without a metadata store round trip.
		chunks[i].Metadata["source"] = doc.URI
		chunks[i].Metadata["title"] = doc.Title
	}

	// 5. Persist metadata then vectors
	if err := s.documents.SaveDocument(ctx, &doc); err != nil {
		return 0, fmt.Errorf("save document: %w", err)
	}
	if err := s.documents.SaveChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("save chunks: %w", err)
	}
	if err := s.vectors.Upsert(ctx, collection, chunks); err != nil {
		return 0, fmt.Errorf("upsert vectors: %w", err)
	}

	return len(chunks), nil
}

// begin claims the single ingest slot.
func (s *IngestService) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return domain.ErrIngestInProgress
	}
	s.running = true
	return nil
}

func (s *IngestService) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

func (s *IngestService) resolvePath(path string) string {
	if path == "" {
		return s.settings.Ingest.DocumentsDir
	}
	return path
}

func (s *IngestService) resolveCollection(collection string) string {
	if collection == "" {
		return s.settings.VectorStore.Collection
	}
	return collection
}
