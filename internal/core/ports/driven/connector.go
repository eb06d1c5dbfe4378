package driven

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// Connector fetches raw documents from a data source.
// The filesystem connector is the only implementation; the interface
// keeps the ingest service independent of where bytes come from.
type Connector interface {
	// Type returns the connector type identifier.
	Type() string

	// Validate checks the connector is properly configured.
	// For filesystem, this checks the path exists and is a directory.
	Validate(ctx context.Context) error

	// FullSync streams all documents from the source. Files outside
	// supportedMIMETypes are emitted without content so the caller can
	// count them as skipped without reading them; an empty list
	// disables the filter. Both channels are closed when the walk
	// finishes.
	FullSync(ctx context.Context, supportedMIMETypes []string) (<-chan domain.RawDocument, <-chan error)

	// Fetch loads a single document by path. Returns domain.ErrNotFound
	// for missing paths; MIME support is decided downstream by the
	// normaliser registry.
	Fetch(ctx context.Context, path string) (*domain.RawDocument, error)

	// Watch listens for real-time changes until the context is cancelled.
	Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error)

	// Stats summarises the files under the source without reading their
	// contents. supportedMIMETypes decides which files count as parseable.
	Stats(ctx context.Context, supportedMIMETypes []string) (*domain.DirectoryStats, error)

	// Close releases resources.
	Close() error
}
