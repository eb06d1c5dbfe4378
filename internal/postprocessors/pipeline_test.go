package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// fakeProcessor is a test double that records invocation and returns
// canned chunks or an error.
type fakeProcessor struct {
	name   string
	out    []domain.Chunk
	err    error
	called bool
	gotIn  []domain.Chunk
}

func (f *fakeProcessor) Name() string { return f.name }

func (f *fakeProcessor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	f.called = true
	f.gotIn = chunks
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func TestPipeline_NilDocument(t *testing.T) {
	p := NewPipeline()

	_, err := p.Process(context.Background(), nil)

	assert.Error(t, err)
}

func TestPipeline_RunsProcessorsInOrder(t *testing.T) {
	first := &fakeProcessor{name: "first", out: []domain.Chunk{{ID: "c1"}}}
	second := &fakeProcessor{name: "second", out: []domain.Chunk{{ID: "c1"}, {ID: "c2"}}}
	p := NewPipeline(first, second)

	chunks, err := p.Process(context.Background(), &domain.Document{ID: "doc"})

	require.NoError(t, err)
	assert.True(t, first.called)
	assert.True(t, second.called)
	assert.Nil(t, first.gotIn, "first processor receives nil chunks")
	assert.Equal(t, []domain.Chunk{{ID: "c1"}}, second.gotIn, "second receives first's output")
	assert.Len(t, chunks, 2)
}

func TestPipeline_ErrorNamesProcessor(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(&fakeProcessor{name: "exploder", err: boom})

	_, err := p.Process(context.Background(), &domain.Document{ID: "doc"})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "exploder")
}

func TestPipeline_AddAndLen(t *testing.T) {
	p := NewPipeline()
	assert.Equal(t, 0, p.Len())

	p.Add(&fakeProcessor{name: "one"})
	assert.Equal(t, 1, p.Len())
}

func TestDefaultPipeline(t *testing.T) {
	p := DefaultPipeline(domain.IngestSettings{ChunkSize: 100, ChunkOverlap: 10})

	doc := &domain.Document{ID: "doc", Content: "hello world"}
	chunks, err := p.Process(context.Background(), doc)

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0].Content)
}
