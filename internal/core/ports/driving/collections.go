package driving

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// CollectionService manages vector store collections.
type CollectionService interface {
	// List returns all collections with document and point counts.
	List(ctx context.Context) ([]domain.CollectionInfo, error)

	// Delete removes a collection and its documents. Returns
	// domain.ErrNotFound when the collection does not exist.
	Delete(ctx context.Context, name string) error
}

// StatusService reports system health.
type StatusService interface {
	// Status checks connectivity to the embedding service, the LLM and
	// the vector store, and reports the configured models and the
	// available collections.
	Status(ctx context.Context) (*domain.SystemStatus, error)
}
