package templates

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher invalidates cached templates when their source files change on disk.
type Watcher struct {
	root   string
	ext    string
	cache  *Cache
	fsw    *fsnotify.Watcher
	logger zerolog.Logger
}

// NewWatcher starts watching the store's root directory.
func NewWatcher(store *FileStore, cache *Cache, logger *zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("templates: failed to create watcher: %w", err)
	}
	if err := fsw.Add(store.Root()); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("templates: failed to watch %s: %w", store.Root(), err)
	}

	return &Watcher{
		root:   store.Root(),
		ext:    store.Ext(),
		cache:  cache,
		fsw:    fsw,
		logger: logger.With().Str("component", "template_watcher").Logger(),
	}, nil
}

// Run processes file events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	w.logger.Info().Str("root", w.root).Msg("watching templates for changes")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("template watcher error")
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	id, ok := w.identifier(ev.Name)
	if !ok {
		return
	}
	w.logger.Debug().Str("template", id).Str("op", ev.Op.String()).Msg("template source changed")
	w.cache.Invalidate(id)
}

// identifier maps a file path back to its template identifier.
func (w *Watcher) identifier(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, w.ext) {
		return "", false
	}
	id := strings.TrimSuffix(base, w.ext)
	return id, ValidID(id)
}

// Close stops the underlying file watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
