package domain

import "time"

// DirectoryStats summarises the files under a documents directory.
// Counts cover every regular file; SupportedFiles and FileTypes only
// count files the ingest pipeline can parse.
type DirectoryStats struct {
	// Path is the directory the stats were computed for.
	Path string

	// TotalFiles is the number of regular files found.
	TotalFiles int

	// SupportedFiles is the number of files with a supported extension.
	SupportedFiles int

	// FileTypes maps supported extensions (with dot, lowercase) to counts.
	FileTypes map[string]int

	// TotalSize is the cumulative size of all files in bytes.
	TotalSize int64
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// Collection is the vector store collection written to.
	Collection string

	// Path is the directory or file that was ingested.
	Path string

	// FilesProcessed is the number of files successfully ingested.
	FilesProcessed int

	// FilesSkipped is the number of files skipped (unsupported or hidden).
	FilesSkipped int

	// ChunksCreated is the number of chunks embedded and stored.
	ChunksCreated int

	// ErrorCount is the number of files that failed to process.
	ErrorCount int

	// StartedAt is when the run began.
	StartedAt time.Time

	// Duration is how long the run took.
	Duration time.Duration
}

// CollectionInfo describes a vector store collection.
type CollectionInfo struct {
	// Name is the collection name.
	Name string

	// PointCount is the number of stored vectors.
	PointCount int64
}

// SystemStatus reports the health of the system's external services.
type SystemStatus struct {
	// Status is "healthy" or "degraded".
	Status string

	// LLMModel is the configured language model.
	LLMModel string

	// EmbeddingModel is the configured embedding model.
	EmbeddingModel string

	// Collections lists the available vector store collections.
	Collections []string

	// Problems lists connectivity issues, empty when healthy.
	Problems []string
}
