package cli

import (
	"context"
	"time"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// setupTestServices swaps the package-level services for stubs and
// returns a cleanup that restores the originals.
func setupTestServices() func() {
	origSettings := settings
	origIngest := ingestService
	origQuery := queryService
	origCollections := collectionService
	origStatus := statusService

	settings = domain.DefaultSettings()
	ingestService = &stubIngestService{
		report: &domain.IngestReport{
			Collection:     "documents",
			Path:           "/docs",
			FilesProcessed: 2,
			ChunksCreated:  7,
			Duration:       1500 * time.Millisecond,
		},
		stats: &domain.DirectoryStats{
			Path:           "/docs",
			TotalFiles:     3,
			SupportedFiles: 2,
			FileTypes:      map[string]int{".txt": 2},
			TotalSize:      2048,
		},
	}
	queryService = &stubQueryService{
		answer: &domain.Answer{
			Text:    "The meeting is on Tuesday.",
			Sources: []string{"notes.txt"},
			Model:   "llama3.2",
		},
	}
	collectionService = &stubCollectionService{
		infos: []domain.CollectionInfo{{Name: "documents", PointCount: 7}},
	}
	statusService = &stubStatusService{
		status: &domain.SystemStatus{Status: "healthy"},
	}

	return func() {
		settings = origSettings
		ingestService = origIngest
		queryService = origQuery
		collectionService = origCollections
		statusService = origStatus
	}
}

type stubIngestService struct {
	report *domain.IngestReport
	stats  *domain.DirectoryStats
	err    error
}

func (s *stubIngestService) IngestDirectory(context.Context, string, string) (*domain.IngestReport, error) {
	return s.report, s.err
}

func (s *stubIngestService) IngestFile(context.Context, string, string) (*domain.IngestReport, error) {
	return s.report, s.err
}

func (s *stubIngestService) RemoveFile(context.Context, string, string) error { return s.err }

func (s *stubIngestService) Stats(context.Context, string) (*domain.DirectoryStats, error) {
	return s.stats, s.err
}

func (s *stubIngestService) Running() bool { return false }

type stubQueryService struct {
	answer *domain.Answer
	err    error
}

func (s *stubQueryService) Ask(context.Context, string, string) (*domain.Answer, error) {
	return s.answer, s.err
}

func (s *stubQueryService) AskWithHistory(context.Context, []domain.ChatMessage, string, string) (*domain.Answer, error) {
	return s.answer, s.err
}

func (s *stubQueryService) Retrieve(context.Context, string, string, int) ([]domain.RetrievedChunk, error) {
	return nil, s.err
}

type stubCollectionService struct {
	infos []domain.CollectionInfo
	err   error
}

func (s *stubCollectionService) List(context.Context) ([]domain.CollectionInfo, error) {
	return s.infos, s.err
}

func (s *stubCollectionService) Delete(context.Context, string) error { return s.err }

type stubStatusService struct {
	status *domain.SystemStatus
	err    error
}

func (s *stubStatusService) Status(context.Context) (*domain.SystemStatus, error) {
	return s.status, s.err
}
