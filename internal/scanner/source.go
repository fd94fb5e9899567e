package scanner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklift/internal/shared"
	"github.com/fsnotify/fsnotify"
)

// maxDocument bounds how much of a page is read.
const maxDocument = 16 << 20

// Load parses the document at src, an http(s) URL or a file path. A nil client means [http.DefaultClient].
func Load(ctx context.Context, src string, client *http.Client) (*Document, error) {
	if !IsURL(src) {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("failed to open document: %w", err)
		}
		defer f.Close()
		return Parse(io.LimitReader(f, maxDocument))
	}

	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetching %s: status %d", shared.ErrAPIRequest, src, resp.StatusCode)
	}
	return Parse(io.LimitReader(resp.Body, maxDocument))
}

// IsURL reports whether src names an http(s) document rather than a file.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// ReloadOnChange replaces doc with the contents of path every time the file is written, until ctx is done.
//
// The parent directory is watched, so editors that save by renaming a temp file still trigger a reload.
func ReloadOnChange(ctx context.Context, doc *Document, path string, logger *log.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.Close()

	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", "error", err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}

			data, err := os.ReadFile(path)
			if err != nil {
				logger.Warn("reload failed", "path", path, "error", err)
				continue
			}
			if err := doc.Replace(bytes.NewReader(data)); err != nil {
				logger.Warn("reload failed", "path", path, "error", err)
				continue
			}
			logger.Debug("document reloaded", "path", path)
		}
	}
}
