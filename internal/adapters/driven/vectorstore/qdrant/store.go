// Package qdrant provides a VectorStore adapter backed by the Qdrant
// REST API. Collections use cosine distance.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// DefaultTimeout is the per-request timeout.
const DefaultTimeout = 15 * time.Second

// Config holds connection settings for Qdrant.
type Config struct {
	// URL is the Qdrant base URL, e.g. http://localhost:6333.
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Timeout is the per-request timeout (default: 15s).
	Timeout time.Duration
}

// Store is a REST client to Qdrant.
type Store struct {
	url    string
	apiKey string
	client *http.Client
}

// NewStore creates a Qdrant vector store client.
func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Store{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates the collection if it does not exist.
// Qdrant returns 200 for an existing collection with the same schema.
func (s *Store) EnsureCollection(ctx context.Context, name string, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrInvalidInput, dimensions)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", name), body, nil)
}

// Upsert writes chunk vectors into the collection. Each chunk must
// carry its embedding.
func (s *Store) Upsert(ctx context.Context, collection string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]map[string]any, len(chunks))
	for i, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("%w: chunk %s has no embedding", domain.ErrInvalidInput, chunk.ID)
		}
		payload := map[string]any{
			"document_id": chunk.DocumentID,
			"content":     chunk.Content,
			"position":    chunk.Position,
		}
		if chunk.Metadata != nil {
			if source, ok := chunk.Metadata["source"].(string); ok {
				payload["source"] = source
			}
			if title, ok := chunk.Metadata["title"].(string); ok {
				payload["title"] = title
			}
		}
		points[i] = map[string]any{
			"id":      chunk.ID,
			"vector":  chunk.Embedding,
			"payload": payload,
		}
	}

	body := map[string]any{"points": points}
	path := fmt.Sprintf("/collections/%s/points?wait=true", collection)
	return s.do(ctx, http.MethodPut, path, body, nil)
}

// Query runs a similarity search and returns the topK closest chunks.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, topK int) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		topK = 5
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}

	path := fmt.Sprintf("/collections/%s/points/search", collection)
	if err := s.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}

	results := make([]domain.RetrievedChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := domain.Chunk{}
		if id, ok := r.ID.(string); ok {
			chunk.ID = id
		}
		if v, ok := r.Payload["document_id"].(string); ok {
			chunk.DocumentID = v
		}
		if v, ok := r.Payload["content"].(string); ok {
			chunk.Content = v
		}
		if v, ok := r.Payload["position"].(float64); ok {
			chunk.Position = int(v)
		}

		retrieved := domain.RetrievedChunk{Chunk: chunk, Score: r.Score}
		if v, ok := r.Payload["source"].(string); ok {
			retrieved.DocumentURI = v
		}
		if v, ok := r.Payload["title"].(string); ok {
			retrieved.DocumentTitle = v
		}
		results = append(results, retrieved)
	}
	return results, nil
}

// DeletePoints removes every point belonging to a document.
func (s *Store) DeletePoints(ctx context.Context, collection, documentID string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key":   "document_id",
					"match": map[string]any{"value": documentID},
				},
			},
		},
	}
	path := fmt.Sprintf("/collections/%s/points/delete?wait=true", collection)
	return s.do(ctx, http.MethodPost, path, body, nil)
}

// ListCollections returns every collection with its point count.
func (s *Store) ListCollections(ctx context.Context) ([]domain.CollectionInfo, error) {
	var listResp struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodGet, "/collections", nil, &listResp); err != nil {
		return nil, err
	}

	infos := make([]domain.CollectionInfo, 0, len(listResp.Result.Collections))
	for _, c := range listResp.Result.Collections {
		var detail struct {
			Result struct {
				PointsCount int64 `json:"points_count"`
			} `json:"result"`
		}
		if err := s.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", c.Name), nil, &detail); err != nil {
			return nil, err
		}
		infos = append(infos, domain.CollectionInfo{
			Name:       c.Name,
			PointCount: detail.Result.PointsCount,
		})
	}
	return infos, nil
}

// DeleteCollection drops a collection. Returns domain.ErrNotFound when
// the collection does not exist.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	err := s.do(ctx, http.MethodDelete, fmt.Sprintf("/collections/%s", name), nil, nil)
	if err != nil {
		return err
	}
	return nil
}

// Ping checks that Qdrant is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, http.MethodGet, "/collections", nil, nil); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorStoreUnavailable, err)
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// do sends a JSON request and decodes the JSON response when out is
// non-nil. 404 responses map to domain.ErrNotFound.
func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: qdrant %s %s", domain.ErrNotFound, method, path)
	}
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant %s %s failed (status %d): %s", method, path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
