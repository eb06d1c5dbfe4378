package domain

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// EmbeddingSettings configures the embedding service.
type EmbeddingSettings struct {
	// Provider selects the embedding backend.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the service endpoint.
	BaseURL string

	// APIKey authenticates cloud providers. Empty for Ollama.
	APIKey string

	// Dimensions is the embedding vector size.
	Dimensions int
}

// IsConfigured returns true if the settings name a usable service.
func (s *EmbeddingSettings) IsConfigured() bool {
	if s == nil || !s.Provider.IsValid() {
		return false
	}
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings configures the language model service.
type LLMSettings struct {
	// Provider selects the LLM backend.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL is the service endpoint.
	BaseURL string

	// APIKey authenticates cloud providers. Empty for Ollama.
	APIKey string
}

// IsConfigured returns true if the settings name a usable service.
func (s *LLMSettings) IsConfigured() bool {
	if s == nil || !s.Provider.IsValid() {
		return false
	}
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return true
}

// VectorStoreSettings configures the vector database connection.
type VectorStoreSettings struct {
	// URL is the Qdrant base URL. Empty selects the in-memory store.
	URL string

	// APIKey is the optional Qdrant API key.
	APIKey string

	// Collection is the default collection name.
	Collection string
}

// IngestSettings configures the ingestion pipeline.
type IngestSettings struct {
	// DocumentsDir is the root directory to ingest from.
	DocumentsDir string

	// ChunkSize is the target chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the number of characters shared between
	// consecutive chunks.
	ChunkOverlap int
}

// ServerSettings configures the HTTP listeners.
type ServerSettings struct {
	// APIAddr is the REST API listen address.
	APIAddr string

	// WebhookAddr is the webhook receiver listen address.
	// Empty disables the webhook listener.
	WebhookAddr string
}

// Settings aggregates all application configuration.
type Settings struct {
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	VectorStore VectorStoreSettings
	Ingest      IngestSettings
	Server      ServerSettings

	// DataDir is where the metadata database lives.
	DataDir string
}

// Default configuration values, mirroring the models the system was
// built against.
const (
	DefaultOllamaBaseURL  = "http://localhost:11434"
	DefaultEmbeddingModel = "all-minilm"
	DefaultEmbeddingDims  = 384
	DefaultLLMModel       = "llama3.2"
	DefaultCollection     = "documents"
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 200
	DefaultAPIAddr        = ":8000"
)

// DefaultSettings returns settings for a local Ollama + Qdrant setup.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOllama,
			Model:      DefaultEmbeddingModel,
			BaseURL:    DefaultOllamaBaseURL,
			Dimensions: DefaultEmbeddingDims,
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModel,
			BaseURL:  DefaultOllamaBaseURL,
		},
		VectorStore: VectorStoreSettings{
			Collection: DefaultCollection,
		},
		Ingest: IngestSettings{
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
		},
		Server: ServerSettings{
			APIAddr: DefaultAPIAddr,
		},
	}
}
