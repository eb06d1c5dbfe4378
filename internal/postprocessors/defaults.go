package postprocessors

import (
	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/postprocessors/chunker"
)

// DefaultPipeline builds the standard processing pipeline from ingest
// settings: a single recursive character chunker.
func DefaultPipeline(settings domain.IngestSettings) driven.PostProcessorPipeline {
	var opts []chunker.Option
	if settings.ChunkSize > 0 {
		opts = append(opts, chunker.WithChunkSize(settings.ChunkSize))
	}
	if settings.ChunkOverlap >= 0 {
		opts = append(opts, chunker.WithOverlap(settings.ChunkOverlap))
	}
	return NewPipeline(chunker.New(opts...))
}
