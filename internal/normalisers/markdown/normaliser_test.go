package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()
	assert.Contains(t, mimeTypes, "text/markdown")
	assert.Contains(t, mimeTypes, "text/x-markdown")
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_TitleFromHeading(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/docs/guide.md",
		MIMEType: "text/markdown",
		Content:  []byte("# Getting Started\n\nWelcome to the guide."),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, "Getting Started", doc.Title)
	assert.Contains(t, doc.Content, "Welcome to the guide.")
	assert.Equal(t, "markdown", doc.Metadata["format"])
}

func TestNormalise_TitleFallsBackToFilename(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/docs/release-notes.md",
		MIMEType: "text/markdown",
		Content:  []byte("No heading here, just text."),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "release notes", result.Document.Title)
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name:     "headings",
			source:   "# Title\n## Subtitle\nBody",
			expected: "Title\nSubtitle\nBody",
		},
		{
			name:     "links keep text",
			source:   "See [the docs](https://example.com) for details",
			expected: "See the docs for details",
		},
		{
			name:     "images keep alt text",
			source:   "![diagram](img.png) explains it",
			expected: "diagram explains it",
		},
		{
			name:     "emphasis",
			source:   "this is **bold** and *italic*",
			expected: "this is bold and italic",
		},
		{
			name:     "inline code keeps text",
			source:   "run `make build` first",
			expected: "run make build first",
		},
		{
			name:     "fenced code dropped",
			source:   "before\n```go\nfunc main() {}\n```\nafter",
			expected: "before\n\nafter",
		},
		{
			name:     "list markers",
			source:   "- one\n- two\n* three",
			expected: "one\ntwo\nthree",
		},
		{
			name:     "blockquotes",
			source:   "> quoted line",
			expected: "quoted line",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stripMarkdown(tc.source))
		})
	}
}
