package driven

import (
	"context"
	"time"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// DocumentStore persists documents, chunks and ingest run history.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks for a document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByURI retrieves a document by its source path within
	// a collection. Returns domain.ErrNotFound when absent.
	GetDocumentByURI(ctx context.Context, collection, uri string) (*domain.Document, error)

	// GetChunks retrieves all chunks for a document in position order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns documents in a collection.
	ListDocuments(ctx context.Context, collection string) ([]domain.Document, error)

	// CountDocuments returns the number of documents in a collection.
	CountDocuments(ctx context.Context, collection string) (int64, error)

	// SaveIngestReport records a completed ingestion run.
	SaveIngestReport(ctx context.Context, report *domain.IngestReport) error

	// LastIngest returns the time of the most recent ingestion run for
	// a collection. Returns domain.ErrNotFound when none exists.
	LastIngest(ctx context.Context, collection string) (time.Time, error)
}
