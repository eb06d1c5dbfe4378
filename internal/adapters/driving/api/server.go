// Package api exposes the ingest, query, collection and status
// services over a JSON REST API.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Default server timeouts. Ingest and query calls can be slow (model
// inference), hence the generous write timeout.
const (
	readTimeout     = 30 * time.Second
	writeTimeout    = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// Server is the REST API front end.
type Server struct {
	ingest      driving.IngestService
	query       driving.QueryService
	collections driving.CollectionService
	status      driving.StatusService

	addr     string
	server   *http.Server
	listener net.Listener
}

// NewServer creates the API server. addr is the listen address,
// e.g. ":8000".
func NewServer(
	addr string,
	ingest driving.IngestService,
	query driving.QueryService,
	collections driving.CollectionService,
	status driving.StatusService,
) *Server {
	s := &Server{
		ingest:      ingest,
		query:       query,
		collections: collections,
		status:      status,
		addr:        addr,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /ingest", s.handleIngest)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /collections", s.handleListCollections)
	mux.HandleFunc("DELETE /collections/{name}", s.handleDeleteCollection)
	mux.HandleFunc("GET /files/stats", s.handleFileStats)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins listening. It returns once the listener is bound; serve
// errors are reported on the returned channel.
func (s *Server) Start() (<-chan error, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, err
	}
	s.listener = listener

	errs := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
		close(errs)
	}()

	logger.Info("API server listening on %s", listener.Addr())
	return errs, nil
}

// Addr returns the bound address, useful when the port was 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// writeJSON serialises v with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("write response: %v", err)
	}
}

// writeError serialises an error body {"error": "..."}.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
