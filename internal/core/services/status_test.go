package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vectormem "github.com/quarry-labs/quarry/internal/adapters/driven/vectorstore/memory"
)

func TestStatusService(t *testing.T) {
	t.Run("healthy when every service responds", func(t *testing.T) {
		vectors := vectormem.NewStore()
		require.NoError(t, vectors.EnsureCollection(context.Background(), "documents", 3))

		service := NewStatusService(newMockEmbedder(), &mockLLM{}, vectors)
		status, err := service.Status(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "healthy", status.Status)
		assert.Equal(t, "mock-llm", status.LLMModel)
		assert.Equal(t, "mock-embed", status.EmbeddingModel)
		assert.Equal(t, []string{"documents"}, status.Collections)
		assert.Empty(t, status.Problems)
	})

	t.Run("degraded when a ping fails", func(t *testing.T) {
		embedder := newMockEmbedder()
		embedder.pingErr = errors.New("connection refused")
		llm := &mockLLM{pingErr: errors.New("model not loaded")}

		service := NewStatusService(embedder, llm, vectormem.NewStore())
		status, err := service.Status(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "degraded", status.Status)
		require.Len(t, status.Problems, 2)
		assert.Contains(t, status.Problems[0], "embedding service")
		assert.Contains(t, status.Problems[1], "llm service")
	})
}
