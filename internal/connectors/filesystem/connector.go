// Package filesystem provides a connector that reads documents from a
// local directory tree.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector reads documents from a directory tree. Hidden files and
// directories (dot-prefixed) are skipped.
type Connector struct {
	rootPath string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// New creates a filesystem connector rooted at rootPath.
// Path validation happens in Validate, not here.
func New(rootPath string) *Connector {
	return &Connector{rootPath: rootPath}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "filesystem"
}

// Validate checks that the root path exists and is a readable directory.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(c.rootPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("path %s does not exist", c.rootPath)
	}
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path %s is not a directory", c.rootPath)
	}
	return nil
}

// FullSync walks the tree and streams every non-hidden file. Files
// whose MIME type is not in supportedMIMETypes are emitted without
// content so the caller can count them as skipped without the cost of
// reading them; an empty list disables the filter. Both channels close
// when the walk finishes or the context is cancelled.
func (c *Connector) FullSync(ctx context.Context, supportedMIMETypes []string) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)
	supported := mimeSet(supportedMIMETypes)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := c.Validate(ctx); err != nil {
			errs <- err
			return
		}

		walkErr := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("skipping %s: %v", path, err)
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			if d.IsDir() {
				if path != c.rootPath && isHidden(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if isHidden(path) {
				return nil
			}

			mimeType := DetectMIMEType(filepath.Base(path))
			if len(supported) > 0 {
				if _, ok := supported[mimeType]; !ok {
					select {
					case docs <- domain.RawDocument{URI: path, MIMEType: mimeType}:
					case <-ctx.Done():
						return ctx.Err()
					}
					return nil
				}
			}

			raw, err := c.readFile(path)
			if err != nil {
				logger.Warn("reading %s: %v", path, err)
				return nil
			}

			select {
			case docs <- *raw:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
			errs <- walkErr
		}
	}()

	return docs, errs
}

// Fetch reads a single file under the root path.
func (c *Connector) Fetch(_ context.Context, path string) (*domain.RawDocument, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.rootPath, path)
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	return c.readFile(path)
}

// Watch emits change events for the tree via fsnotify. New
// subdirectories are added to the watch set as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.New("connector is closed")
	}
	if err := c.Validate(ctx); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	// Watch every non-hidden directory; fsnotify is not recursive.
	err = filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != c.rootPath && isHidden(path) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", c.rootPath, err)
	}
	c.watcher = watcher

	changes := make(chan domain.RawDocumentChange)
	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if change := c.handleFsEvent(watcher, event); change != nil {
					select {
					case changes <- *change:
					case <-ctx.Done():
						return
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watch error: %v", err)
			}
		}
	}()

	return changes, nil
}

// Stats walks the tree collecting file counts and sizes without
// reading file contents. Hidden files and directories are skipped.
func (c *Connector) Stats(ctx context.Context, supportedMIMETypes []string) (*domain.DirectoryStats, error) {
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}

	supported := mimeSet(supportedMIMETypes)

	stats := &domain.DirectoryStats{
		Path:      c.rootPath,
		FileTypes: make(map[string]int),
	}

	err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != c.rootPath && isHidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		stats.TotalFiles++
		stats.TotalSize += info.Size()

		name := filepath.Base(path)
		if _, ok := supported[DetectMIMEType(name)]; ok {
			stats.SupportedFiles++
			ext := strings.ToLower(filepath.Ext(name))
			if ext == "" {
				ext = "(none)"
			}
			stats.FileTypes[ext]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Close releases the watcher. Safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

// handleFsEvent converts an fsnotify event into a document change.
// Returns nil for events that should be ignored.
func (c *Connector) handleFsEvent(watcher *fsnotify.Watcher, event fsnotify.Event) *domain.RawDocumentChange {
	if isHidden(event.Name) {
		return nil
	}

	switch {
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		return &domain.RawDocumentChange{
			Type:     domain.ChangeDeleted,
			Document: domain.RawDocument{URI: event.Name},
		}
	case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if event.Op.Has(fsnotify.Create) && watcher != nil {
				_ = watcher.Add(event.Name)
			}
			return nil
		}

		raw, err := c.readFile(event.Name)
		if err != nil {
			logger.Warn("reading %s: %v", event.Name, err)
			return nil
		}

		changeType := domain.ChangeUpdated
		if event.Op.Has(fsnotify.Create) {
			changeType = domain.ChangeCreated
		}
		return &domain.RawDocumentChange{Type: changeType, Document: *raw}
	default:
		return nil
	}
}

// readFile loads a file into a RawDocument with detected MIME type and
// file metadata.
func (c *Connector) readFile(path string) (*domain.RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	return &domain.RawDocument{
		URI:      path,
		MIMEType: DetectMIMEType(name),
		Content:  content,
		Metadata: map[string]any{
			"source":        path,
			"filename":      name,
			"extension":     strings.TrimPrefix(filepath.Ext(name), "."),
			"file_size":     info.Size(),
			"last_modified": info.ModTime(),
		},
	}, nil
}

// mimeSet builds a lookup set from a MIME type list.
func mimeSet(mimeTypes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(mimeTypes))
	for _, mt := range mimeTypes {
		set[mt] = struct{}{}
	}
	return set
}

// Extensions the mime package resolves poorly or not at all.
var extraMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".ts":       "text/typescript",
	".tsx":      "text/typescript-jsx",
	".jsx":      "text/javascript-jsx",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".sh":       "text/x-shellscript",
	".bash":     "text/x-shellscript",
	".sql":      "text/x-sql",
	".js":       "text/javascript",
	".txt":      "text/plain",
	".csv":      "text/csv",
	".xml":      "application/xml",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// DetectMIMEType resolves a MIME type from the file extension.
// Extensionless files are assumed to be plain text.
func DetectMIMEType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "text/plain"
	}
	if mt, ok := extraMIMETypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		// Strip parameters like "; charset=utf-8"
		if i := strings.Index(mt, ";"); i >= 0 {
			mt = mt[:i]
		}
		return strings.TrimSpace(mt)
	}
	return "application/octet-stream"
}

// isHidden reports whether any path element is dot-prefixed.
// "." and ".." are navigation elements, not hidden names.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." || part == "" {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
