// Package mcp exposes the query service to MCP clients as ask and
// search tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quarry-labs/quarry/internal/core/ports/driving"
)

// Version is the MCP server version.
const Version = "0.1.0"

// ErrMissingQueryService is returned when no query service is wired.
var ErrMissingQueryService = errors.New("mcp: query service is required")

// Server is the MCP server for quarry.
type Server struct {
	query  driving.QueryService
	server *mcp.Server
}

// NewServer creates an MCP server backed by the query service.
func NewServer(query driving.QueryService) (*Server, error) {
	if query == nil {
		return nil, fmt.Errorf("creating mcp server: %w", ErrMissingQueryService)
	}

	impl := &mcp.Implementation{
		Name:    "quarry",
		Version: Version,
	}

	s := &Server{
		query:  query,
		server: mcp.NewServer(impl, nil),
	}
	s.registerTools()
	return s, nil
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
