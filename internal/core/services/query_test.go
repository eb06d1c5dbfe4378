package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vectormem "github.com/quarry-labs/quarry/internal/adapters/driven/vectorstore/memory"
	"github.com/quarry-labs/quarry/internal/core/domain"
)

type queryFixture struct {
	service  *QueryService
	embedder *mockEmbedder
	llm      *mockLLM
	vectors  *vectormem.Store
}

func newQueryFixture(t *testing.T) *queryFixture {
	t.Helper()

	f := &queryFixture{
		embedder: newMockEmbedder(),
		llm:      &mockLLM{response: "The report is due on Friday."},
		vectors:  vectormem.NewStore(),
	}
	f.service = NewQueryService(domain.DefaultSettings(), f.embedder, f.vectors, f.llm)
	return f
}

// seedCorpus stores three chunks with distinct vectors so retrieval
// order is deterministic.
func (f *queryFixture) seedCorpus(t *testing.T) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, f.vectors.EnsureCollection(ctx, domain.DefaultCollection, 3))

	chunks := []domain.Chunk{
		{
			ID: "c1", DocumentID: "d1", Position: 0,
			Content:   "Deadlines: the quarterly report is due on Friday.",
			Embedding: []float32{1, 0, 0},
			Metadata:  map[string]any{"source": "notes.txt", "title": "notes"},
		},
		{
			ID: "c2", DocumentID: "d1", Position: 1,
			Content:   "Remember to circulate the agenda beforehand.",
			Embedding: []float32{0.9, 0.1, 0},
			Metadata:  map[string]any{"source": "notes.txt", "title": "notes"},
		},
		{
			ID: "c3", DocumentID: "d2", Position: 0,
			Content:   "Grocery list: milk, eggs, coffee.",
			Embedding: []float32{0, 1, 0},
			Metadata:  map[string]any{"source": "groceries.txt", "title": "groceries"},
		},
	}
	require.NoError(t, f.vectors.Upsert(ctx, domain.DefaultCollection, chunks))
}

func TestAsk(t *testing.T) {
	t.Run("answers with sources", func(t *testing.T) {
		f := newQueryFixture(t)
		f.seedCorpus(t)
		f.embedder.vectors["When is the report due?"] = []float32{1, 0, 0}

		answer, err := f.service.Ask(context.Background(), "When is the report due?", "")
		require.NoError(t, err)

		assert.Equal(t, "The report is due on Friday.", answer.Text)
		assert.Equal(t, "mock-llm", answer.Model)
		assert.Equal(t, []string{"notes.txt", "groceries.txt"}, answer.Sources)
		require.NotEmpty(t, answer.Retrieved)
		assert.Equal(t, "c1", answer.Retrieved[0].Chunk.ID)

		// Prompt carries both the context and the question
		assert.Contains(t, f.llm.lastPrompt, "quarterly report is due on Friday")
		assert.Contains(t, f.llm.lastPrompt, "When is the report due?")
		assert.Contains(t, f.llm.lastPrompt, "[1] notes")
	})

	t.Run("empty question returns ErrInvalidInput", func(t *testing.T) {
		f := newQueryFixture(t)

		_, err := f.service.Ask(context.Background(), "   ", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Zero(t, f.llm.generated)
	})

	t.Run("empty corpus short-circuits the model", func(t *testing.T) {
		f := newQueryFixture(t)
		require.NoError(t, f.vectors.EnsureCollection(context.Background(), domain.DefaultCollection, 3))

		answer, err := f.service.Ask(context.Background(), "anything?", "")
		require.NoError(t, err)
		assert.Equal(t, emptyCorpusReply, answer.Text)
		assert.Empty(t, answer.Sources)
		assert.Zero(t, f.llm.generated)
	})

	t.Run("asking before first ingest returns the canned reply", func(t *testing.T) {
		// No collection exists yet on a fresh store.
		f := newQueryFixture(t)

		answer, err := f.service.Ask(context.Background(), "anything there?", "")
		require.NoError(t, err)
		assert.Equal(t, emptyCorpusReply, answer.Text)
		assert.Equal(t, "mock-llm", answer.Model)
		assert.Empty(t, answer.Sources)
		assert.Zero(t, f.llm.generated)
	})

	t.Run("unknown collection returns the canned reply", func(t *testing.T) {
		f := newQueryFixture(t)
		f.seedCorpus(t)

		answer, err := f.service.Ask(context.Background(), "anything?", "nope")
		require.NoError(t, err)
		assert.Equal(t, emptyCorpusReply, answer.Text)
		assert.Zero(t, f.llm.generated)
	})
}

func TestAskWithHistory(t *testing.T) {
	f := newQueryFixture(t)
	f.seedCorpus(t)
	f.embedder.vectors["And the agenda?"] = []float32{0.95, 0.05, 0}

	history := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "stale system prompt", Time: time.Now()},
		{Role: domain.RoleUser, Content: "When is the report due?", Time: time.Now()},
		{Role: domain.RoleAssistant, Content: "On Friday.", Time: time.Now()},
	}

	answer, err := f.service.AskWithHistory(context.Background(), history, "And the agenda?", "")
	require.NoError(t, err)
	assert.Equal(t, "The report is due on Friday.", answer.Text)

	messages := f.llm.lastMessages
	require.Len(t, messages, 4)
	assert.Equal(t, domain.RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "circulate the agenda")
	assert.NotContains(t, messages[0].Content, "stale system prompt")
	assert.Equal(t, "When is the report due?", messages[1].Content)
	assert.Equal(t, domain.RoleAssistant, messages[2].Role)
	assert.Equal(t, "And the agenda?", messages[3].Content)
}

func TestRetrieve(t *testing.T) {
	t.Run("returns chunks in score order", func(t *testing.T) {
		f := newQueryFixture(t)
		f.seedCorpus(t)
		f.embedder.vectors["report"] = []float32{1, 0, 0}

		retrieved, err := f.service.Retrieve(context.Background(), "report", "", 2)
		require.NoError(t, err)
		require.Len(t, retrieved, 2)
		assert.Equal(t, "c1", retrieved[0].Chunk.ID)
		assert.Equal(t, "c2", retrieved[1].Chunk.ID)
		assert.Greater(t, retrieved[0].Score, retrieved[1].Score)
		assert.Zero(t, f.llm.generated)
	})

	t.Run("non-positive topK uses the default", func(t *testing.T) {
		f := newQueryFixture(t)
		f.seedCorpus(t)

		retrieved, err := f.service.Retrieve(context.Background(), "report", "", 0)
		require.NoError(t, err)
		assert.Len(t, retrieved, 3)
	})

	t.Run("missing collection retrieves nothing", func(t *testing.T) {
		f := newQueryFixture(t)

		retrieved, err := f.service.Retrieve(context.Background(), "report", "", 5)
		require.NoError(t, err)
		assert.Empty(t, retrieved)
	})
}
