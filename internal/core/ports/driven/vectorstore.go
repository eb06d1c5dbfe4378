package driven

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// VectorStore persists chunk embeddings in named collections and
// supports similarity search. Backed by Qdrant over REST.
type VectorStore interface {
	// EnsureCollection creates the collection if it does not exist.
	// Dimensions must match the embedding service.
	EnsureCollection(ctx context.Context, name string, dimensions int) error

	// Upsert stores chunks with their embeddings. Every chunk must
	// carry a populated Embedding.
	Upsert(ctx context.Context, collection string, chunks []domain.Chunk) error

	// Query finds the k nearest chunks to the query vector.
	Query(ctx context.Context, collection string, vector []float32, topK int) ([]domain.RetrievedChunk, error)

	// DeletePoints removes all vectors belonging to a document.
	DeletePoints(ctx context.Context, collection string, documentID string) error

	// ListCollections returns all collections with point counts.
	ListCollections(ctx context.Context) ([]domain.CollectionInfo, error)

	// DeleteCollection removes a collection and all its vectors.
	// Returns domain.ErrNotFound when the collection does not exist.
	DeleteCollection(ctx context.Context, name string) error

	// Ping validates the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
