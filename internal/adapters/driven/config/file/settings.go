package file

import (
	"os"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// Environment variable names. Environment always wins over the config
// file so containerised deployments can override without editing TOML.
const (
	EnvDocumentsDir   = "QUARRY_DOCUMENTS_DIR"
	EnvDataDir        = "QUARRY_DATA_DIR"
	EnvCollection     = "QUARRY_COLLECTION"
	EnvLLMModel       = "QUARRY_LLM_MODEL"
	EnvEmbeddingModel = "QUARRY_EMBEDDING_MODEL"
	EnvAPIAddr        = "QUARRY_API_ADDR"
	EnvWebhookAddr    = "QUARRY_WEBHOOK_ADDR"
	EnvOllamaBaseURL  = "OLLAMA_BASE_URL"
	EnvQdrantURL      = "QDRANT_URL"
	EnvQdrantAPIKey   = "QDRANT_API_KEY"
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
)

// LoadSettings builds the application settings from defaults, the
// config store, and environment overrides, in that order.
func LoadSettings(store driven.ConfigStore) domain.Settings {
	settings := domain.DefaultSettings()

	// Config file layer
	applyString(&settings.Embedding.Provider, store.GetString("embedding.provider"))
	overrideString(&settings.Embedding.Model, store.GetString("embedding.model"))
	overrideString(&settings.Embedding.BaseURL, store.GetString("embedding.base_url"))
	overrideString(&settings.Embedding.APIKey, store.GetString("embedding.api_key"))
	if dims := store.GetInt("embedding.dimensions"); dims > 0 {
		settings.Embedding.Dimensions = dims
	}

	applyString(&settings.LLM.Provider, store.GetString("llm.provider"))
	overrideString(&settings.LLM.Model, store.GetString("llm.model"))
	overrideString(&settings.LLM.BaseURL, store.GetString("llm.base_url"))
	overrideString(&settings.LLM.APIKey, store.GetString("llm.api_key"))

	overrideString(&settings.VectorStore.URL, store.GetString("vectorstore.url"))
	overrideString(&settings.VectorStore.APIKey, store.GetString("vectorstore.api_key"))
	overrideString(&settings.VectorStore.Collection, store.GetString("vectorstore.collection"))

	overrideString(&settings.Ingest.DocumentsDir, store.GetString("ingest.documents_dir"))
	if size := store.GetInt("ingest.chunk_size"); size > 0 {
		settings.Ingest.ChunkSize = size
	}
	if overlap := store.GetInt("ingest.chunk_overlap"); overlap > 0 {
		settings.Ingest.ChunkOverlap = overlap
	}

	overrideString(&settings.Server.APIAddr, store.GetString("server.api_addr"))
	overrideString(&settings.Server.WebhookAddr, store.GetString("server.webhook_addr"))
	overrideString(&settings.DataDir, store.GetString("data_dir"))

	// Environment layer
	overrideString(&settings.Ingest.DocumentsDir, os.Getenv(EnvDocumentsDir))
	overrideString(&settings.DataDir, os.Getenv(EnvDataDir))
	overrideString(&settings.VectorStore.Collection, os.Getenv(EnvCollection))
	overrideString(&settings.LLM.Model, os.Getenv(EnvLLMModel))
	overrideString(&settings.Embedding.Model, os.Getenv(EnvEmbeddingModel))
	overrideString(&settings.Server.APIAddr, os.Getenv(EnvAPIAddr))
	overrideString(&settings.Server.WebhookAddr, os.Getenv(EnvWebhookAddr))
	overrideString(&settings.VectorStore.URL, os.Getenv(EnvQdrantURL))
	overrideString(&settings.VectorStore.APIKey, os.Getenv(EnvQdrantAPIKey))

	if base := os.Getenv(EnvOllamaBaseURL); base != "" {
		if settings.Embedding.Provider == domain.AIProviderOllama {
			settings.Embedding.BaseURL = base
		}
		if settings.LLM.Provider == domain.AIProviderOllama {
			settings.LLM.BaseURL = base
		}
	}
	if key := os.Getenv(EnvOpenAIAPIKey); key != "" {
		if settings.Embedding.Provider == domain.AIProviderOpenAI {
			settings.Embedding.APIKey = key
		}
		if settings.LLM.Provider == domain.AIProviderOpenAI {
			settings.LLM.APIKey = key
		}
	}

	return settings
}

func overrideString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func applyString(dst *domain.AIProvider, value string) {
	if value == "" {
		return
	}
	provider := domain.AIProvider(value)
	if provider.IsValid() {
		*dst = provider
	}
}
