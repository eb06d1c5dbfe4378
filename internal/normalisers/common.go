package normalisers

import (
	"path/filepath"
	"strings"

	"github.com/quarry-labs/quarry/internal/core/domain"
)

// TitleFor picks a document title: the metadata "filename" when the
// connector set one, otherwise a cleaned-up form of the URI basename.
func TitleFor(raw *domain.RawDocument) string {
	if raw.Metadata != nil {
		if name, ok := raw.Metadata["filename"].(string); ok && name != "" {
			return cleanName(name)
		}
	}
	return cleanName(filepath.Base(raw.URI))
}

// CopyMetadata shallow-copies metadata and stamps the MIME type.
func CopyMetadata(raw *domain.RawDocument) map[string]any {
	dst := make(map[string]any, len(raw.Metadata)+1)
	for k, v := range raw.Metadata {
		dst[k] = v
	}
	dst["mime_type"] = raw.MIMEType
	return dst
}

// cleanName strips the extension and turns separators into spaces.
func cleanName(name string) string {
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}
