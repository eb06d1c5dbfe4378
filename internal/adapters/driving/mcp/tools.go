package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question   string `json:"question" jsonschema:"the question to answer from the ingested documents"`
	Collection string `json:"collection,omitempty" jsonschema:"collection to query (default collection when omitted)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
	Model   string   `json:"model"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"text to find similar document chunks for"`
	Collection string `json:"collection,omitempty" jsonschema:"collection to search (default collection when omitted)"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of chunks to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single retrieved chunk.
type SearchResultOutput struct {
	Title   string  `json:"title"`
	URI     string  `json:"uri"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the ingested documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find document chunks similar to a query, without LLM generation",
	}, s.handleSearch)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.query.Ask(ctx, input.Question, input.Collection)
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:  answer.Text,
		Sources: answer.Sources,
		Model:   answer.Model,
	}, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	retrieved, err := s.query.Retrieve(ctx, input.Query, input.Collection, input.Limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(retrieved)),
		Count:   len(retrieved),
	}
	for i := range retrieved {
		output.Results[i] = SearchResultOutput{
			Title:   retrieved[i].DocumentTitle,
			URI:     retrieved[i].DocumentURI,
			Score:   retrieved[i].Score,
			Content: retrieved[i].Chunk.Content,
		}
	}
	return nil, output, nil
}
