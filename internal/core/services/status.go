package services

import (
	"context"
	"fmt"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
)

// Ensure StatusService implements the interface.
var _ driving.StatusService = (*StatusService)(nil)

// StatusService checks connectivity to the external services.
type StatusService struct {
	embedder driven.EmbeddingService
	llm      driven.LLMService
	vectors  driven.VectorStore
}

// NewStatusService creates the status service.
func NewStatusService(embedder driven.EmbeddingService, llm driven.LLMService, vectors driven.VectorStore) *StatusService {
	return &StatusService{embedder: embedder, llm: llm, vectors: vectors}
}

// Status pings each backing service and reports what is reachable.
// A failing ping degrades the status but never fails the call.
func (s *StatusService) Status(ctx context.Context) (*domain.SystemStatus, error) {
	status := &domain.SystemStatus{
		Status:         "healthy",
		LLMModel:       s.llm.ModelName(),
		EmbeddingModel: s.embedder.ModelName(),
	}

	if err := s.embedder.Ping(ctx); err != nil {
		status.Problems = append(status.Problems, fmt.Sprintf("embedding service: %v", err))
	}
	if err := s.llm.Ping(ctx); err != nil {
		status.Problems = append(status.Problems, fmt.Sprintf("llm service: %v", err))
	}

	if err := s.vectors.Ping(ctx); err != nil {
		status.Problems = append(status.Problems, fmt.Sprintf("vector store: %v", err))
	} else if infos, err := s.vectors.ListCollections(ctx); err == nil {
		for _, info := range infos {
			status.Collections = append(status.Collections, info.Name)
		}
	}

	if len(status.Problems) > 0 {
		status.Status = "degraded"
	}
	return status, nil
}
