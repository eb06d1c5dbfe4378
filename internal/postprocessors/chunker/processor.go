// Package chunker provides a recursive character text splitter.
// Content is split on the strongest separator present (paragraph break,
// newline, space) and merged back into overlapping chunks, so chunk
// boundaries fall on natural text boundaries whenever possible.
package chunker

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// defaultSeparators is the preference order for split points.
// The empty string means a hard character cut.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Processor splits document content into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithSeparators overrides the separator preference order.
func WithSeparators(separators []string) Option {
	return func(p *Processor) {
		if len(separators) > 0 {
			p.separators = separators
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: defaultSeparators,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must leave room for forward progress
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from
// document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc.Content == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	pieces := p.splitText(doc.Content, p.separators)

	chunks := make([]domain.Chunk, 0, len(pieces))
	position := 0
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Content:    piece,
			Position:   position,
			Metadata:   map[string]any{"source": doc.URI},
		})
		position++
	}

	return chunks, nil
}

// splitText recursively splits text on the first separator present,
// then merges the splits into chunks of at most chunkSize characters
// with overlap characters shared between consecutive chunks.
func (p *Processor) splitText(text string, separators []string) []string {
	if len(text) <= p.chunkSize {
		return []string{text}
	}

	sep, remaining := p.pickSeparator(text, separators)
	if sep == "" {
		return p.hardSplit(text)
	}

	splits := strings.Split(text, sep)

	// Oversized splits recurse with the weaker separators before merging.
	var parts []string
	for _, s := range splits {
		if len(s) > p.chunkSize {
			parts = append(parts, p.splitText(s, remaining)...)
		} else {
			parts = append(parts, s)
		}
	}

	return p.merge(parts, sep)
}

// pickSeparator returns the first separator that occurs in the text and
// the weaker separators after it. Falls back to the hard cut.
func (p *Processor) pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

// hardSplit cuts text at fixed offsets with overlap. Last resort when
// no separator is available.
func (p *Processor) hardSplit(text string) []string {
	step := p.chunkSize - p.overlap
	var pieces []string
	for start := 0; start < len(text); start += step {
		end := start + p.chunkSize
		if end >= len(text) {
			pieces = append(pieces, text[start:])
			break
		}
		pieces = append(pieces, text[start:end])
	}
	return pieces
}

// merge greedily joins parts into chunks of roughly chunkSize
// characters, carrying a tail of at most overlap characters into the
// next chunk. A chunk may slightly exceed chunkSize when the overlap
// tail and the next part do not both fit.
func (p *Processor) merge(parts []string, sep string) []string {
	var (
		pieces  []string
		current []string
		length  int
	)

	flush := func() {
		pieces = append(pieces, strings.Join(current, sep))

		// Keep the tail as overlap for the next chunk
		var tail []string
		tailLen := 0
		for i := len(current) - 1; i >= 0; i-- {
			next := tailLen + len(current[i]) + len(sep)
			if next > p.overlap {
				break
			}
			tail = append([]string{current[i]}, tail...)
			tailLen = next
		}
		current = tail
		length = tailLen
	}

	for _, part := range parts {
		cost := len(part)
		if len(current) > 0 {
			cost += len(sep)
		}
		if len(current) > 0 && length+cost > p.chunkSize {
			flush()
			cost = len(part)
			if len(current) > 0 {
				cost += len(sep)
			}
		}
		current = append(current, part)
		length += cost
	}

	if len(current) > 0 {
		pieces = append(pieces, strings.Join(current, sep))
	}

	return pieces
}
