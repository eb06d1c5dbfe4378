package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 5

// systemPrompt instructs the model to stay grounded in the retrieved
// context.
const systemPrompt = `You are a helpful assistant that answers questions about the user's documents.
Answer using only the provided context. If the context does not contain
the answer, say you do not know rather than guessing. Keep answers
concise and mention which document the information came from when it
helps.`

// emptyCorpusReply is returned without consulting the model when
// retrieval finds nothing.
const emptyCorpusReply = "I could not find anything relevant in your documents. " +
	"Try ingesting more files or rephrasing the question."

// QueryService answers questions by retrieving similar chunks and
// forwarding them to the language model.
type QueryService struct {
	settings domain.Settings
	embedder driven.EmbeddingService
	vectors  driven.VectorStore
	llm      driven.LLMService
}

// NewQueryService creates the query service.
func NewQueryService(
	settings domain.Settings,
	embedder driven.EmbeddingService,
	vectors driven.VectorStore,
	llm driven.LLMService,
) *QueryService {
	return &QueryService{
		settings: settings,
		embedder: embedder,
		vectors:  vectors,
		llm:      llm,
	}
}

// Ask retrieves context for the question and generates an answer.
func (s *QueryService) Ask(ctx context.Context, question, collection string) (*domain.Answer, error) {
	retrieved, err := s.retrieve(ctx, question, collection, DefaultTopK)
	if err != nil {
		return nil, err
	}
	if len(retrieved) == 0 {
		return &domain.Answer{Text: emptyCorpusReply, Model: s.llm.ModelName()}, nil
	}

	prompt := buildPrompt(question, retrieved)
	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:      text,
		Sources:   sourcesOf(retrieved),
		Model:     s.llm.ModelName(),
		Retrieved: retrieved,
	}, nil
}

// AskWithHistory behaves like Ask but carries the prior conversation
// turns so the model can resolve follow-up questions.
func (s *QueryService) AskWithHistory(ctx context.Context, history []domain.ChatMessage, question, collection string) (*domain.Answer, error) {
	retrieved, err := s.retrieve(ctx, question, collection, DefaultTopK)
	if err != nil {
		return nil, err
	}
	if len(retrieved) == 0 {
		return &domain.Answer{Text: emptyCorpusReply, Model: s.llm.ModelName()}, nil
	}

	messages := make([]domain.ChatMessage, 0, len(history)+2)
	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleSystem,
		Content: systemPrompt + "\n\nContext:\n" + contextBlock(retrieved),
	})
	for _, m := range history {
		if m.Role == domain.RoleSystem {
			continue
		}
		messages = append(messages, m)
	}
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: question})

	text, err := s.llm.Chat(ctx, messages, driven.ChatOptions{})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Text:      text,
		Sources:   sourcesOf(retrieved),
		Model:     s.llm.ModelName(),
		Retrieved: retrieved,
	}, nil
}

// Retrieve returns the most similar chunks without consulting the LLM.
func (s *QueryService) Retrieve(ctx context.Context, question, collection string, topK int) ([]domain.RetrievedChunk, error) {
	return s.retrieve(ctx, question, collection, topK)
}

func (s *QueryService) retrieve(ctx context.Context, question, collection string, topK int) ([]domain.RetrievedChunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if collection == "" {
		collection = s.settings.VectorStore.Collection
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	retrieved, err := s.vectors.Query(ctx, collection, vector, topK)
	if errors.Is(err, domain.ErrNotFound) {
		// The collection is only created on first ingest. Asking before
		// then is an empty corpus, not an error.
		logger.Debug("Collection %q does not exist yet", collection)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	logger.Debug("Retrieved %d chunks for question (collection %q)", len(retrieved), collection)
	return retrieved, nil
}

// buildPrompt assembles a single-shot prompt from the retrieved chunks.
func buildPrompt(question string, retrieved []domain.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nContext:\n")
	b.WriteString(contextBlock(retrieved))
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

// contextBlock formats retrieved chunks with their source labels.
func contextBlock(retrieved []domain.RetrievedChunk) string {
	var b strings.Builder
	for i, rc := range retrieved {
		label := rc.DocumentTitle
		if label == "" {
			label = rc.DocumentURI
		}
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, label, rc.Chunk.Content)
	}
	return b.String()
}

// sourcesOf lists the distinct document URIs in retrieval order.
func sourcesOf(retrieved []domain.RetrievedChunk) []string {
	seen := make(map[string]struct{}, len(retrieved))
	var sources []string
	for _, rc := range retrieved {
		uri := rc.DocumentURI
		if uri == "" {
			continue
		}
		if _, ok := seen[uri]; ok {
			continue
		}
		seen[uri] = struct{}{}
		sources = append(sources, uri)
	}
	return sources
}
