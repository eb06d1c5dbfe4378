package services

import (
	"context"
	"fmt"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Ensure CollectionService implements the interface.
var _ driving.CollectionService = (*CollectionService)(nil)

// CollectionService manages vector store collections and the documents
// recorded against them.
type CollectionService struct {
	vectors   driven.VectorStore
	documents driven.DocumentStore
}

// NewCollectionService creates the collection service.
func NewCollectionService(vectors driven.VectorStore, documents driven.DocumentStore) *CollectionService {
	return &CollectionService{vectors: vectors, documents: documents}
}

// List returns all collections with their point counts.
func (s *CollectionService) List(ctx context.Context) ([]domain.CollectionInfo, error) {
	infos, err := s.vectors.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return infos, nil
}

// Delete removes a collection from the vector store together with its
// document records.
func (s *CollectionService) Delete(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty collection name", domain.ErrInvalidInput)
	}

	if err := s.vectors.DeleteCollection(ctx, name); err != nil {
		return err
	}

	docs, err := s.documents.ListDocuments(ctx, name)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	for _, doc := range docs {
		if err := s.documents.DeleteDocument(ctx, doc.ID); err != nil {
			logger.Warn("Failed to delete document %s: %v", doc.ID, err)
		}
	}

	logger.Info("Deleted collection %q (%d documents)", name, len(docs))
	return nil
}
