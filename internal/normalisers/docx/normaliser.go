// Package docx provides a normaliser for DOCX documents.
// DOCX is a ZIP archive; visible text lives in word/document.xml as
// <w:t> runs grouped into <w:p> paragraphs.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Format-specific
}

// Normalise extracts paragraph text from a DOCX archive.
// The title comes from docProps/core.xml when the author set one.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, domain.ErrInvalidInput
	}

	content, err := bodyText(archive)
	if err != nil {
		return nil, err
	}

	title := coreTitle(archive)
	if title == "" {
		title = normalisers.TitleFor(raw)
	}

	now := time.Now()
	doc := domain.Document{
		ID:        uuid.New().String(),
		URI:       raw.URI,
		Title:     title,
		Content:   content,
		Metadata:  normalisers.CopyMetadata(raw),
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.Metadata["format"] = "docx"

	return &driven.NormaliseResult{Document: doc}, nil
}

// documentXML mirrors the parts of word/document.xml we read.
type documentXML struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []struct {
					Content string `xml:",chardata"`
				} `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

// bodyText extracts paragraph text from word/document.xml.
// Paragraphs are separated by blank lines so the chunker can split on
// paragraph boundaries.
func bodyText(archive *zip.Reader) (string, error) {
	data, err := readArchiveFile(archive, "word/document.xml")
	if err != nil {
		return "", err
	}
	if data == nil {
		return "", nil
	}

	var doc documentXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", nil
	}

	var b strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		for _, run := range para.Runs {
			for _, text := range run.Text {
				b.WriteString(text.Content)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// coreTitle returns the dc:title from docProps/core.xml, or empty.
func coreTitle(archive *zip.Reader) string {
	data, err := readArchiveFile(archive, "docProps/core.xml")
	if err != nil || data == nil {
		return ""
	}

	var core struct {
		Title string `xml:"title"`
	}
	if err := xml.Unmarshal(data, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}

// readArchiveFile reads a named file from the archive.
// Returns nil bytes when the file is absent.
func readArchiveFile(archive *zip.Reader, name string) ([]byte, error) {
	for _, f := range archive.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		return data, nil
	}
	return nil, nil
}
