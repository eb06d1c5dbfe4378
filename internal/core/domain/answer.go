package domain

import "time"

// RetrievedChunk is a chunk returned by vector similarity search,
// paired with its relevance score and originating document metadata.
type RetrievedChunk struct {
	// Chunk is the matched chunk. Embedding is not populated on retrieval.
	Chunk Chunk

	// Score is the cosine similarity score (higher is more relevant).
	Score float64

	// DocumentURI is the source location of the parent document.
	DocumentURI string

	// DocumentTitle is the human-readable title of the parent document.
	DocumentTitle string
}

// Answer is the result of a RAG query: generated text plus the
// retrieval context that informed it.
type Answer struct {
	// Text is the LLM-generated response.
	Text string

	// Sources lists the distinct document URIs that contributed context.
	Sources []string

	// Model is the LLM model that produced the text.
	Model string

	// Retrieved holds the chunks forwarded as context, in score order.
	Retrieved []RetrievedChunk
}

// ChatMessage is a single turn in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string

	// Time is when the message was created. Used by the chat UI.
	Time time.Time
}

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
