package driving

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// QueryService answers natural-language questions over the ingested
// corpus.
type QueryService interface {
	// Ask retrieves relevant chunks for the question and forwards them
	// with the question to the language model. An empty collection uses
	// the default. Empty questions return domain.ErrInvalidInput.
	Ask(ctx context.Context, question, collection string) (*domain.Answer, error)

	// AskWithHistory behaves like Ask but forwards prior conversation
	// turns to the model. Used by the chat UI.
	AskWithHistory(ctx context.Context, history []domain.ChatMessage, question, collection string) (*domain.Answer, error)

	// Retrieve returns the chunks most similar to the question without
	// consulting the language model.
	Retrieve(ctx context.Context, question, collection string, topK int) ([]domain.RetrievedChunk, error)
}
