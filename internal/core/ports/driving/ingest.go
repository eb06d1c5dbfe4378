package driving

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// IngestService loads documents into the vector store.
type IngestService interface {
	// IngestDirectory processes every supported file under path and
	// stores the resulting chunks in the given collection. An empty
	// path uses the configured documents directory; an empty collection
	// uses the default. Only one ingest may run at a time; concurrent
	// calls return domain.ErrIngestInProgress.
	IngestDirectory(ctx context.Context, path, collection string) (*domain.IngestReport, error)

	// IngestFile processes a single file. Used by the webhook receiver
	// and the filesystem watcher.
	IngestFile(ctx context.Context, path, collection string) (*domain.IngestReport, error)

	// RemoveFile deletes the document previously ingested from path,
	// including its chunks and vectors. Missing documents are a no-op.
	RemoveFile(ctx context.Context, path, collection string) error

	// Stats computes directory statistics without ingesting anything.
	Stats(ctx context.Context, path string) (*domain.DirectoryStats, error)

	// Running reports whether an ingestion run is currently active.
	Running() bool
}
