// Package html provides a normaliser for HTML documents.
package html

import (
	"context"
	stdhtml "html"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Format-specific, above plaintext fallback
}

// Normalise extracts visible text from an HTML document.
// The <title> element becomes the document title when present.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	source := string(raw.Content)

	title := elementTitle(source)
	if title == "" {
		title = normalisers.TitleFor(raw)
	}

	now := time.Now()
	doc := domain.Document{
		ID:        uuid.New().String(),
		URI:       raw.URI,
		Title:     title,
		Content:   stripHTML(source),
		Metadata:  normalisers.CopyMetadata(raw),
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.Metadata["format"] = "html"

	return &driven.NormaliseResult{Document: doc}, nil
}

var (
	titleRe      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptRe     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	blockTagRe   = regexp.MustCompile(`(?i)</?(p|div|br|h[1-6]|li|tr|table|section|article|header|footer)[^>]*>`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	multiBlankRe = regexp.MustCompile(`\n{3,}`)
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
)

// elementTitle returns the text of the first <title> element.
func elementTitle(source string) string {
	m := titleRe.FindStringSubmatch(source)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(stdhtml.UnescapeString(m[1]))
}

// stripHTML removes markup, keeping visible text. Block-level tags
// become newlines so paragraph structure survives for the chunker.
func stripHTML(source string) string {
	out := scriptRe.ReplaceAllString(source, "")
	out = styleRe.ReplaceAllString(out, "")
	out = blockTagRe.ReplaceAllString(out, "\n")
	out = tagRe.ReplaceAllString(out, "")
	out = stdhtml.UnescapeString(out)
	out = spaceRunRe.ReplaceAllString(out, " ")

	// Collapse leading/trailing space on each line
	lines := strings.Split(out, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	out = strings.Join(lines, "\n")
	out = multiBlankRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
