package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/logger"
)

type ingestRequest struct {
	DirectoryPath string `json:"directory_path"`
	Collection    string `json:"collection"`
}

type ingestResponse struct {
	Message        string `json:"message"`
	FilesProcessed int    `json:"files_processed"`
	FilesSkipped   int    `json:"files_skipped"`
	ChunksCreated  int    `json:"chunks_created"`
	ErrorCount     int    `json:"error_count"`
}

type queryRequest struct {
	Query      string `json:"query"`
	Collection string `json:"collection"`
}

type queryResponse struct {
	Message string   `json:"message"`
	Sources []string `json:"sources"`
}

type statusResponse struct {
	Status               string   `json:"status"`
	LLMModel             string   `json:"llm_model"`
	EmbeddingModel       string   `json:"embedding_model"`
	CollectionsAvailable []string `json:"collections_available"`
	Problems             []string `json:"problems,omitempty"`
}

type collectionEntry struct {
	Name          string `json:"name"`
	DocumentCount int64  `json:"document_count"`
}

type collectionsResponse struct {
	Collections []collectionEntry `json:"collections"`
}

type fileStatsResponse struct {
	Path           string         `json:"path"`
	TotalFiles     int            `json:"total_files"`
	SupportedFiles int            `json:"supported_files"`
	FileTypes      map[string]int `json:"file_types"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.ingest.IngestDirectory(r.Context(), req.DirectoryPath, req.Collection)
	switch {
	case errors.Is(err, domain.ErrIngestInProgress):
		writeError(w, http.StatusConflict, "an ingestion run is already in progress")
		return
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		logger.Warn("ingest failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Message:        "Documents ingested successfully",
		FilesProcessed: report.FilesProcessed,
		FilesSkipped:   report.FilesSkipped,
		ChunksCreated:  report.ChunksCreated,
		ErrorCount:     report.ErrorCount,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	answer, err := s.query.Ask(r.Context(), req.Query, req.Collection)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "query cannot be empty")
		return
	case err != nil:
		logger.Warn("query failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Message: answer.Text,
		Sources: answer.Sources,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.status.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Status:               status.Status,
		LLMModel:             status.LLMModel,
		EmbeddingModel:       status.EmbeddingModel,
		CollectionsAvailable: status.Collections,
		Problems:             status.Problems,
	})
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	infos, err := s.collections.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := collectionsResponse{Collections: make([]collectionEntry, 0, len(infos))}
	for _, info := range infos {
		resp.Collections = append(resp.Collections, collectionEntry{
			Name:          info.Name,
			DocumentCount: info.PointCount,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	err := s.collections.Delete(r.Context(), name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "collection not found: "+name)
		return
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Collection '" + name + "' deleted successfully",
	})
}

func (s *Server) handleFileStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ingest.Stats(r.Context(), r.URL.Query().Get("directory_path"))
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, fileStatsResponse{
		Path:           stats.Path,
		TotalFiles:     stats.TotalFiles,
		SupportedFiles: stats.SupportedFiles,
		FileTypes:      stats.FileTypes,
		TotalSizeBytes: stats.TotalSize,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "API is running",
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "quarry API server",
		"endpoints": map[string]string{
			"POST /ingest":               "ingest documents into the vector store",
			"POST /query":                "answer a question over the ingested documents",
			"GET /status":                "system status",
			"GET /collections":           "list collections",
			"DELETE /collections/{name}": "delete a collection",
			"GET /files/stats":           "documents directory statistics",
			"GET /health":                "health check",
		},
	})
}

// decodeBody parses a JSON request body. An empty body is allowed and
// leaves the destination zero-valued.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}
