package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/adapters/driven/storage/sqlite"
	vectormem "github.com/quarry-labs/quarry/internal/adapters/driven/vectorstore/memory"
	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/normalisers"
	"github.com/quarry-labs/quarry/internal/normalisers/plaintext"
	"github.com/quarry-labs/quarry/internal/postprocessors"
	"github.com/quarry-labs/quarry/internal/postprocessors/chunker"
)

type ingestFixture struct {
	service   *IngestService
	connector *mockConnector
	embedder  *mockEmbedder
	documents *sqlite.Store
	vectors   *vectormem.Store
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()

	documents, err := sqlite.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { documents.Close() })

	registry := normalisers.NewRegistry()
	registry.Register(plaintext.New())

	pipeline := postprocessors.NewPipeline(
		chunker.New(chunker.WithChunkSize(100), chunker.WithOverlap(20)),
	)

	f := &ingestFixture{
		connector: &mockConnector{},
		embedder:  newMockEmbedder(),
		documents: documents,
		vectors:   vectormem.NewStore(),
	}

	settings := domain.DefaultSettings()
	settings.Ingest.DocumentsDir = "/docs"

	f.service = NewIngestService(
		settings,
		func(_ string) driven.Connector { return f.connector },
		registry,
		pipeline,
		f.embedder,
		documents,
		f.vectors,
	)
	return f
}

func rawText(uri, content string) domain.RawDocument {
	return domain.RawDocument{
		URI:      uri,
		MIMEType: "text/plain",
		Content:  []byte(content),
		Metadata: map[string]any{"filename": uri},
	}
}

func TestIngestDirectory(t *testing.T) {
	t.Run("processes all supported files", func(t *testing.T) {
		f := newIngestFixture(t)
		f.connector.docs = []domain.RawDocument{
			rawText("notes.txt", "The quarterly report is due on Friday."),
			rawText("todo.txt", "Buy milk. Call the dentist."),
		}

		report, err := f.service.IngestDirectory(context.Background(), "", "")
		require.NoError(t, err)

		assert.Equal(t, 2, report.FilesProcessed)
		assert.Zero(t, report.FilesSkipped)
		assert.Zero(t, report.ErrorCount)
		assert.GreaterOrEqual(t, report.ChunksCreated, 2)
		assert.Equal(t, domain.DefaultCollection, report.Collection)
		assert.Equal(t, "/docs", report.Path)
		assert.True(t, f.connector.closed)

		count, err := f.documents.CountDocuments(context.Background(), domain.DefaultCollection)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		infos, err := f.vectors.ListCollections(context.Background())
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, int64(report.ChunksCreated), infos[0].PointCount)

		_, err = f.documents.LastIngest(context.Background(), domain.DefaultCollection)
		assert.NoError(t, err)
	})

	t.Run("skips unsupported files", func(t *testing.T) {
		f := newIngestFixture(t)
		f.connector.docs = []domain.RawDocument{
			rawText("notes.txt", "supported"),
			{URI: "image.png", MIMEType: "image/png", Content: []byte{0x89}},
		}

		report, err := f.service.IngestDirectory(context.Background(), "", "")
		require.NoError(t, err)
		assert.Equal(t, 1, report.FilesProcessed)
		assert.Equal(t, 1, report.FilesSkipped)
		assert.Zero(t, report.ErrorCount)
	})

	t.Run("empty files are skipped not errored", func(t *testing.T) {
		f := newIngestFixture(t)
		f.connector.docs = []domain.RawDocument{
			rawText("notes.txt", "some real content"),
			rawText("empty.txt", ""),
		}

		report, err := f.service.IngestDirectory(context.Background(), "", "")
		require.NoError(t, err)
		assert.Equal(t, 1, report.FilesProcessed)
		assert.Equal(t, 1, report.FilesSkipped)
		assert.Zero(t, report.ErrorCount)

		count, err := f.documents.CountDocuments(context.Background(), domain.DefaultCollection)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("re-ingesting replaces instead of duplicating", func(t *testing.T) {
		f := newIngestFixture(t)
		f.connector.docs = []domain.RawDocument{
			rawText("notes.txt", "version one of the notes"),
		}

		first, err := f.service.IngestDirectory(context.Background(), "", "")
		require.NoError(t, err)

		f.connector.docs = []domain.RawDocument{
			rawText("notes.txt", "version two of the notes"),
		}
		second, err := f.service.IngestDirectory(context.Background(), "", "")
		require.NoError(t, err)

		count, err := f.documents.CountDocuments(context.Background(), domain.DefaultCollection)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		infos, err := f.vectors.ListCollections(context.Background())
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, int64(second.ChunksCreated), infos[0].PointCount)
		assert.Equal(t, first.FilesProcessed, second.FilesProcessed)

		doc, err := f.documents.GetDocumentByURI(context.Background(), domain.DefaultCollection, "notes.txt")
		require.NoError(t, err)
		assert.Contains(t, doc.Content, "version two")
	})

	t.Run("counts failed files without aborting", func(t *testing.T) {
		f := newIngestFixture(t)
		f.connector.docs = []domain.RawDocument{
			rawText("a.txt", "first"),
			rawText("b.txt", "second"),
		}
		f.embedder.embedErr = errors.New("embedding backend down")

		report, err := f.service.IngestDirectory(context.Background(), "", "")
		require.NoError(t, err)
		assert.Zero(t, report.FilesProcessed)
		assert.Equal(t, 2, report.ErrorCount)
	})

	t.Run("connector errors abort the run", func(t *testing.T) {
		f := newIngestFixture(t)
		f.connector.syncErr = errors.New("path /docs does not exist")

		_, err := f.service.IngestDirectory(context.Background(), "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("rejects concurrent runs", func(t *testing.T) {
		f := newIngestFixture(t)
		require.NoError(t, f.service.begin())

		_, err := f.service.IngestDirectory(context.Background(), "", "")
		assert.ErrorIs(t, err, domain.ErrIngestInProgress)
		assert.True(t, f.service.Running())

		f.service.end()
		assert.False(t, f.service.Running())
	})

	t.Run("no documents directory configured", func(t *testing.T) {
		f := newIngestFixture(t)
		f.service.settings.Ingest.DocumentsDir = ""

		_, err := f.service.IngestDirectory(context.Background(), "", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestIngestFile(t *testing.T) {
	t.Run("ingests a single file", func(t *testing.T) {
		f := newIngestFixture(t)
		raw := rawText("notes.txt", "single file content")
		f.connector.fetchDoc = &raw

		report, err := f.service.IngestFile(context.Background(), "notes.txt", "")
		require.NoError(t, err)
		assert.Equal(t, 1, report.FilesProcessed)
		assert.GreaterOrEqual(t, report.ChunksCreated, 1)

		_, err = f.documents.GetDocumentByURI(context.Background(), domain.DefaultCollection, "notes.txt")
		assert.NoError(t, err)
	})

	t.Run("missing file returns error", func(t *testing.T) {
		f := newIngestFixture(t)
		f.connector.fetchErr = domain.ErrNotFound

		_, err := f.service.IngestFile(context.Background(), "missing.txt", "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unsupported file is skipped", func(t *testing.T) {
		f := newIngestFixture(t)
		f.connector.fetchDoc = &domain.RawDocument{
			URI: "image.png", MIMEType: "image/png", Content: []byte{0x89},
		}

		report, err := f.service.IngestFile(context.Background(), "image.png", "")
		require.NoError(t, err)
		assert.Zero(t, report.FilesProcessed)
		assert.Equal(t, 1, report.FilesSkipped)
	})
}

func TestRemoveFile(t *testing.T) {
	t.Run("removes document chunks and vectors", func(t *testing.T) {
		f := newIngestFixture(t)
		raw := rawText("notes.txt", "to be removed")
		f.connector.fetchDoc = &raw

		_, err := f.service.IngestFile(context.Background(), "notes.txt", "")
		require.NoError(t, err)

		require.NoError(t, f.service.RemoveFile(context.Background(), "notes.txt", ""))

		count, err := f.documents.CountDocuments(context.Background(), domain.DefaultCollection)
		require.NoError(t, err)
		assert.Zero(t, count)

		infos, err := f.vectors.ListCollections(context.Background())
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Zero(t, infos[0].PointCount)
	})

	t.Run("unknown path is a no-op", func(t *testing.T) {
		f := newIngestFixture(t)
		assert.NoError(t, f.service.RemoveFile(context.Background(), "never-ingested.txt", ""))
	})
}

func TestIngestStats(t *testing.T) {
	f := newIngestFixture(t)
	f.connector.stats = &domain.DirectoryStats{
		Path:           "/docs",
		TotalFiles:     10,
		SupportedFiles: 7,
		FileTypes:      map[string]int{".txt": 4, ".md": 3},
		TotalSize:      2048,
	}

	stats, err := f.service.Stats(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 7, stats.SupportedFiles)
	assert.Equal(t, 10, stats.TotalFiles)
	assert.True(t, f.connector.closed)
}
