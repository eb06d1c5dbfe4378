package services

import (
	"context"
	"errors"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// --- Shared test doubles ---

// mockConnector implements driven.Connector with canned documents.
type mockConnector struct {
	docs     []domain.RawDocument
	syncErr  error
	fetchDoc *domain.RawDocument
	fetchErr error
	stats    *domain.DirectoryStats
	closed   bool
}

func (m *mockConnector) Type() string                     { return "mock" }
func (m *mockConnector) Validate(_ context.Context) error { return nil }
func (m *mockConnector) Close() error                     { m.closed = true; return nil }

func (m *mockConnector) FullSync(ctx context.Context, _ []string) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if m.syncErr != nil {
			errs <- m.syncErr
			return
		}
		for _, doc := range m.docs {
			select {
			case <-ctx.Done():
				return
			case docs <- doc:
			}
		}
	}()

	return docs, errs
}

func (m *mockConnector) Fetch(_ context.Context, _ string) (*domain.RawDocument, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if m.fetchDoc == nil {
		return nil, domain.ErrNotFound
	}
	return m.fetchDoc, nil
}

func (m *mockConnector) Watch(_ context.Context) (<-chan domain.RawDocumentChange, error) {
	return nil, errors.New("watch not implemented")
}

func (m *mockConnector) Stats(_ context.Context, _ []string) (*domain.DirectoryStats, error) {
	if m.stats == nil {
		return nil, errors.New("no stats configured")
	}
	return m.stats, nil
}

// mockEmbedder implements driven.EmbeddingService with deterministic
// vectors so similarity ordering is predictable.
type mockEmbedder struct {
	dims     int
	vectors  map[string][]float32
	embedErr error
	pingErr  error
	calls    int
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{dims: 3, vectors: make(map[string][]float32)}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	m.calls++
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dims }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.pingErr }
func (m *mockEmbedder) Close() error                 { return nil }

// mockLLM implements driven.LLMService, recording the last request.
type mockLLM struct {
	response     string
	generateErr  error
	pingErr      error
	lastPrompt   string
	lastMessages []domain.ChatMessage
	generated    int
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	if m.generateErr != nil {
		return "", m.generateErr
	}
	m.lastPrompt = prompt
	m.generated++
	return m.response, nil
}

func (m *mockLLM) Chat(_ context.Context, messages []domain.ChatMessage, _ driven.ChatOptions) (string, error) {
	if m.generateErr != nil {
		return "", m.generateErr
	}
	m.lastMessages = messages
	m.generated++
	return m.response, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return m.pingErr }
func (m *mockLLM) Close() error                 { return nil }
