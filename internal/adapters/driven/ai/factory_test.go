package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	t.Run("creates ollama service", func(t *testing.T) {
		svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
			Provider:   domain.AIProviderOllama,
			Model:      "all-minilm",
			Dimensions: 384,
		})
		require.NoError(t, err)
		require.NotNil(t, svc)
		defer svc.Close()

		assert.Equal(t, "all-minilm", svc.ModelName())
		assert.Equal(t, 384, svc.Dimensions())
	})

	t.Run("creates openai service", func(t *testing.T) {
		svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOpenAI,
			Model:    "text-embedding-3-small",
			APIKey:   "sk-test",
		})
		require.NoError(t, err)
		require.NotNil(t, svc)
		defer svc.Close()

		assert.Equal(t, "text-embedding-3-small", svc.ModelName())
	})

	t.Run("nil settings return no service", func(t *testing.T) {
		svc, err := CreateEmbeddingService(nil)
		assert.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("openai without key is not configured", func(t *testing.T) {
		svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOpenAI,
			Model:    "text-embedding-3-small",
		})
		assert.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("unknown provider is not configured", func(t *testing.T) {
		svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
			Provider: "anthropic",
			Model:    "whatever",
		})
		assert.NoError(t, err)
		assert.Nil(t, svc)
	})
}

func TestCreateLLMService(t *testing.T) {
	t.Run("creates ollama service", func(t *testing.T) {
		svc, err := CreateLLMService(&domain.LLMSettings{
			Provider: domain.AIProviderOllama,
			Model:    "llama3.2",
		})
		require.NoError(t, err)
		require.NotNil(t, svc)
		defer svc.Close()

		assert.Equal(t, "llama3.2", svc.ModelName())
	})

	t.Run("creates openai service", func(t *testing.T) {
		svc, err := CreateLLMService(&domain.LLMSettings{
			Provider: domain.AIProviderOpenAI,
			Model:    "gpt-4o-mini",
			APIKey:   "sk-test",
		})
		require.NoError(t, err)
		require.NotNil(t, svc)
		defer svc.Close()

		assert.Equal(t, "gpt-4o-mini", svc.ModelName())
	})

	t.Run("nil settings return no service", func(t *testing.T) {
		svc, err := CreateLLMService(nil)
		assert.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("openai without key is not configured", func(t *testing.T) {
		svc, err := CreateLLMService(&domain.LLMSettings{
			Provider: domain.AIProviderOpenAI,
			Model:    "gpt-4o-mini",
		})
		assert.NoError(t, err)
		assert.Nil(t, svc)
	})
}
