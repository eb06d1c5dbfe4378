// Package webhook receives Nextcloud file events and triggers
// single-file ingestion. Experimental: only file creation is handled,
// modifications and deletions are covered by the filesystem watcher.
package webhook

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

// nodeCreatedEvent is the Nextcloud event class for new files.
const nodeCreatedEvent = `OCP\Files\Events\Node\NodeCreatedEvent`

// Burst and sustained rate for incoming webhooks. Nextcloud fires one
// event per uploaded file, so bulk uploads arrive in bursts.
const (
	rateLimit = rate.Limit(5)
	rateBurst = 20
)

// payload is the Nextcloud webhook body.
type payload struct {
	Event struct {
		Class string `json:"class"`
		Node  struct {
			Path string `json:"path"`
		} `json:"node"`
	} `json:"event"`
	User struct {
		UID string `json:"uid"`
	} `json:"user"`
}

// Server is the webhook listener. It runs separately from the REST API
// so it can be exposed to the Nextcloud host alone.
type Server struct {
	ingest       driving.IngestService
	documentsDir string
	addr         string

	limiter  *rate.Limiter
	server   *http.Server
	listener net.Listener
}

// NewServer creates the webhook server. documentsDir is the local root
// the Nextcloud data directory is mounted at.
func NewServer(addr, documentsDir string, ingest driving.IngestService) *Server {
	s := &Server{
		ingest:       ingest,
		documentsDir: documentsDir,
		addr:         addr,
		limiter:      rate.NewLimiter(rateLimit, rateBurst),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/nextcloud", s.handleNextcloud)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
	}
	return s
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins listening. Serve errors are reported on the returned
// channel.
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

	logger.Info("Webhook listener on %s", listener.Addr())
	return errs, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleNextcloud(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{
			"status": "error", "message": "rate limit exceeded",
		})
		return
	}

	var p payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status": "error", "message": "invalid JSON body",
		})
		return
	}

	logger.Info("Nextcloud webhook: %s for %s by %s", p.Event.Class, p.Event.Node.Path, p.User.UID)

	if p.Event.Class != nodeCreatedEvent {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ignored", "reason": "Event type not handled",
		})
		return
	}

	path := s.translatePath(p.Event.Node.Path, p.User.UID)
	report, err := s.ingest.IngestFile(r.Context(), path, "")
	if err != nil {
		logger.Warn("Webhook ingest of %s failed: %v", path, err)
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "failed", "file": "Failed to process file: " + err.Error(),
		})
		return
	}
	if report.FilesSkipped > 0 {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "failed", "file": "File type not supported: " + filepath.Ext(path),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "success", "file": path,
	})
}

// translatePath maps a Nextcloud internal path like
// "/admin/files/Documents/report.pdf" onto the local mount.
func (s *Server) translatePath(ncPath, uid string) string {
	relative := strings.TrimPrefix(ncPath, "/"+uid+"/files/")
	return filepath.Join(s.documentsDir, uid, "files", relative)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("write response: %v", err)
	}
}
