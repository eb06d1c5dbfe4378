// Package memory provides an in-process VectorStore for development
// and tests. Vectors are matched by cosine similarity.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

type collection struct {
	dimensions int
	points     map[string]domain.Chunk
}

// Store keeps vectors in process memory. Contents are lost on restart.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewStore creates an empty in-memory vector store.
func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// EnsureCollection creates the collection if it does not exist.
func (s *Store) EnsureCollection(_ context.Context, name string, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrInvalidInput, dimensions)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.collections[name]; ok {
		if existing.dimensions != dimensions {
			return fmt.Errorf("%w: collection %s has dimension %d, requested %d",
				domain.ErrInvalidInput, name, existing.dimensions, dimensions)
		}
		return nil
	}
	s.collections[name] = &collection{
		dimensions: dimensions,
		points:     make(map[string]domain.Chunk),
	}
	return nil
}

// Upsert stores chunk vectors, replacing points with the same ID.
func (s *Store) Upsert(_ context.Context, name string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: collection %s", domain.ErrNotFound, name)
	}
	for _, chunk := range chunks {
		if len(chunk.Embedding) != coll.dimensions {
			return fmt.Errorf("%w: chunk %s has %d dimensions, collection expects %d",
				domain.ErrInvalidInput, chunk.ID, len(chunk.Embedding), coll.dimensions)
		}
		coll.points[chunk.ID] = chunk
	}
	return nil
}

// Query returns the topK chunks closest to the vector by cosine
// similarity.
func (s *Store) Query(_ context.Context, name string, vector []float32, topK int) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: collection %s", domain.ErrNotFound, name)
	}

	results := make([]domain.RetrievedChunk, 0, len(coll.points))
	for _, chunk := range coll.points {
		retrieved := domain.RetrievedChunk{
			Chunk: chunk,
			Score: cosineSimilarity(vector, chunk.Embedding),
		}
		if chunk.Metadata != nil {
			if source, ok := chunk.Metadata["source"].(string); ok {
				retrieved.DocumentURI = source
			}
			if title, ok := chunk.Metadata["title"].(string); ok {
				retrieved.DocumentTitle = title
			}
		}
		results = append(results, retrieved)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeletePoints removes every point belonging to a document.
func (s *Store) DeletePoints(_ context.Context, name, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: collection %s", domain.ErrNotFound, name)
	}
	for id, chunk := range coll.points {
		if chunk.DocumentID == documentID {
			delete(coll.points, id)
		}
	}
	return nil
}

// ListCollections returns every collection with its point count.
func (s *Store) ListCollections(_ context.Context) ([]domain.CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]domain.CollectionInfo, 0, len(s.collections))
	for name, coll := range s.collections {
		infos = append(infos, domain.CollectionInfo{
			Name:       name,
			PointCount: int64(len(coll.points)),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// DeleteCollection drops a collection. Returns domain.ErrNotFound when
// the collection does not exist.
func (s *Store) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; !ok {
		return fmt.Errorf("%w: collection %s", domain.ErrNotFound, name)
	}
	delete(s.collections, name)
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// cosineSimilarity returns the cosine of the angle between two vectors,
// or 0 when either has zero magnitude or the lengths differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
