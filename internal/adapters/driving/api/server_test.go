package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// --- Stub services ---

type stubIngest struct {
	report    *domain.IngestReport
	stats     *domain.DirectoryStats
	err       error
	lastPath  string
	lastColl  string
	isRunning bool
}

func (s *stubIngest) IngestDirectory(_ context.Context, path, collection string) (*domain.IngestReport, error) {
	s.lastPath, s.lastColl = path, collection
	return s.report, s.err
}

func (s *stubIngest) IngestFile(_ context.Context, path, collection string) (*domain.IngestReport, error) {
	s.lastPath, s.lastColl = path, collection
	return s.report, s.err
}

func (s *stubIngest) RemoveFile(_ context.Context, path, _ string) error {
	s.lastPath = path
	return s.err
}

func (s *stubIngest) Stats(_ context.Context, path string) (*domain.DirectoryStats, error) {
	s.lastPath = path
	return s.stats, s.err
}

func (s *stubIngest) Running() bool { return s.isRunning }

type stubQuery struct {
	answer   *domain.Answer
	err      error
	lastQ    string
	lastColl string
}

func (s *stubQuery) Ask(_ context.Context, question, collection string) (*domain.Answer, error) {
	s.lastQ, s.lastColl = question, collection
	return s.answer, s.err
}

func (s *stubQuery) AskWithHistory(_ context.Context, _ []domain.ChatMessage, question, collection string) (*domain.Answer, error) {
	s.lastQ, s.lastColl = question, collection
	return s.answer, s.err
}

func (s *stubQuery) Retrieve(_ context.Context, _, _ string, _ int) ([]domain.RetrievedChunk, error) {
	if s.answer == nil {
		return nil, s.err
	}
	return s.answer.Retrieved, s.err
}

type stubCollections struct {
	infos    []domain.CollectionInfo
	err      error
	lastName string
}

func (s *stubCollections) List(_ context.Context) ([]domain.CollectionInfo, error) {
	return s.infos, s.err
}

func (s *stubCollections) Delete(_ context.Context, name string) error {
	s.lastName = name
	return s.err
}

type stubStatus struct {
	status *domain.SystemStatus
	err    error
}

func (s *stubStatus) Status(_ context.Context) (*domain.SystemStatus, error) {
	return s.status, s.err
}

type fixture struct {
	server      *Server
	ingest      *stubIngest
	query       *stubQuery
	collections *stubCollections
	status      *stubStatus
}

func newFixture() *fixture {
	f := &fixture{
		ingest:      &stubIngest{},
		query:       &stubQuery{},
		collections: &stubCollections{},
		status:      &stubStatus{},
	}
	f.server = NewServer(":0", f.ingest, f.query, f.collections, f.status)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestIngestEndpoint(t *testing.T) {
	t.Run("returns the report counters", func(t *testing.T) {
		f := newFixture()
		f.ingest.report = &domain.IngestReport{
			FilesProcessed: 3, FilesSkipped: 1, ChunksCreated: 12,
		}

		rec := f.do(t, http.MethodPost, "/ingest", `{"directory_path":"/docs","collection":"notes"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[ingestResponse](t, rec)
		assert.Equal(t, 3, resp.FilesProcessed)
		assert.Equal(t, 1, resp.FilesSkipped)
		assert.Equal(t, 12, resp.ChunksCreated)
		assert.Equal(t, "/docs", f.ingest.lastPath)
		assert.Equal(t, "notes", f.ingest.lastColl)
	})

	t.Run("empty body uses the defaults", func(t *testing.T) {
		f := newFixture()
		f.ingest.report = &domain.IngestReport{}

		rec := f.do(t, http.MethodPost, "/ingest", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, f.ingest.lastPath)
	})

	t.Run("concurrent run returns 409", func(t *testing.T) {
		f := newFixture()
		f.ingest.err = domain.ErrIngestInProgress

		rec := f.do(t, http.MethodPost, "/ingest", "{}")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid JSON returns 400", func(t *testing.T) {
		f := newFixture()
		rec := f.do(t, http.MethodPost, "/ingest", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("failure returns 500", func(t *testing.T) {
		f := newFixture()
		f.ingest.err = errors.New("qdrant unreachable")

		rec := f.do(t, http.MethodPost, "/ingest", "{}")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestQueryEndpoint(t *testing.T) {
	t.Run("returns answer and sources", func(t *testing.T) {
		f := newFixture()
		f.query.answer = &domain.Answer{
			Text:    "The report is due on Friday.",
			Sources: []string{"notes.txt"},
		}

		rec := f.do(t, http.MethodPost, "/query", `{"query":"when is the report due?"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[queryResponse](t, rec)
		assert.Equal(t, "The report is due on Friday.", resp.Message)
		assert.Equal(t, []string{"notes.txt"}, resp.Sources)
		assert.Equal(t, "when is the report due?", f.query.lastQ)
	})

	t.Run("empty query returns 400", func(t *testing.T) {
		f := newFixture()
		f.query.err = domain.ErrInvalidInput

		rec := f.do(t, http.MethodPost, "/query", `{"query":""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStatusEndpoint(t *testing.T) {
	f := newFixture()
	f.status.status = &domain.SystemStatus{
		Status:         "degraded",
		LLMModel:       "llama3.2",
		EmbeddingModel: "all-minilm",
		Collections:    []string{"documents"},
		Problems:       []string{"vector store: connection refused"},
	}

	rec := f.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[statusResponse](t, rec)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "llama3.2", resp.LLMModel)
	assert.Equal(t, []string{"documents"}, resp.CollectionsAvailable)
	require.Len(t, resp.Problems, 1)
}

func TestCollectionsEndpoints(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		f := newFixture()
		f.collections.infos = []domain.CollectionInfo{
			{Name: "documents", PointCount: 42},
		}

		rec := f.do(t, http.MethodGet, "/collections", "")
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[collectionsResponse](t, rec)
		require.Len(t, resp.Collections, 1)
		assert.Equal(t, "documents", resp.Collections[0].Name)
		assert.Equal(t, int64(42), resp.Collections[0].DocumentCount)
	})

	t.Run("delete", func(t *testing.T) {
		f := newFixture()

		rec := f.do(t, http.MethodDelete, "/collections/notes", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "notes", f.collections.lastName)
	})

	t.Run("delete missing returns 404", func(t *testing.T) {
		f := newFixture()
		f.collections.err = domain.ErrNotFound

		rec := f.do(t, http.MethodDelete, "/collections/missing", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestFileStatsEndpoint(t *testing.T) {
	f := newFixture()
	f.ingest.stats = &domain.DirectoryStats{
		Path:           "/docs",
		TotalFiles:     10,
		SupportedFiles: 7,
		FileTypes:      map[string]int{".txt": 7},
		TotalSize:      4096,
	}

	rec := f.do(t, http.MethodGet, "/files/stats?directory_path=/docs", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[fileStatsResponse](t, rec)
	assert.Equal(t, 7, resp.SupportedFiles)
	assert.Equal(t, int64(4096), resp.TotalSizeBytes)
	assert.Equal(t, "/docs", f.ingest.lastPath)
}

func TestHealthAndRoot(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)

	rec = f.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "endpoints")

	rec = f.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartAndShutdown(t *testing.T) {
	f := newFixture()

	errs, err := f.server.Start()
	require.NoError(t, err)
	assert.NotEmpty(t, f.server.Addr())

	resp, err := http.Get("http://" + f.server.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, f.server.Shutdown(context.Background()))
	_, open := <-errs
	assert.False(t, open)
}
