// Package watch re-imports a catalogue file whenever it changes on disk and
// refreshes the search index afterwards.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/logger"
)

// Defaults for the watcher timings.
const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultRetry    = time.Second
)

// Reload describes one re-import.
type Reload struct {
	Imported  int
	Refreshed bool
	Err       error
}

// CatalogWatcher watches one catalogue file.
type CatalogWatcher struct {
	path    string
	format  driving.CatalogFormat
	catalog driving.CatalogService
	search  driving.SearchService

	debounce time.Duration
	retry    time.Duration
	onReload func(Reload)

	mu      sync.Mutex
	pending bool // index refresh still owed after a throttled attempt
}

// NewCatalogWatcher creates a watcher for path. search may be nil.
func NewCatalogWatcher(
	path string,
	format driving.CatalogFormat,
	catalog driving.CatalogService,
	search driving.SearchService,
) *CatalogWatcher {
	return &CatalogWatcher{
		path:     filepath.Clean(path),
		format:   format,
		catalog:  catalog,
		search:   search,
		debounce: DefaultDebounce,
		retry:    DefaultRetry,
	}
}

// SetDebounce sets how long writes must settle before a re-import.
func (w *CatalogWatcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// SetRetry sets the delay before retrying a throttled index refresh.
func (w *CatalogWatcher) SetRetry(d time.Duration) {
	if d > 0 {
		w.retry = d
	}
}

// OnReload registers a callback run after every import attempt.
func (w *CatalogWatcher) OnReload(fn func(Reload)) {
	w.onReload = fn
}

// Run imports the file once, then watches it until ctx is cancelled.
// The parent directory is watched so editors that save by rename are seen.
func (w *CatalogWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	logger.Info("watching %s", w.path)

	w.reload(ctx)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	if w.needsRefresh() {
		timer.Reset(w.retry)
	}

	dirty := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("catalog %s: %s", w.path, event.Op)
			dirty = true
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch %s: %v", w.path, err)

		case <-timer.C:
			if dirty {
				dirty = false
				w.reload(ctx)
			} else if w.needsRefresh() {
				w.refresh(ctx)
			}
			if w.needsRefresh() {
				timer.Reset(w.retry)
			}
		}
	}
}

func (w *CatalogWatcher) reload(ctx context.Context) {
	f, err := os.Open(w.path)
	if err != nil {
		w.report(Reload{Err: fmt.Errorf("opening catalogue: %w", err)})
		return
	}
	defer f.Close()

	n, err := w.catalog.Import(ctx, f, w.format)
	if err != nil {
		logger.Error("catalog %s: import failed: %v", w.path, err)
		w.report(Reload{Imported: n, Err: err})
		return
	}

	w.mu.Lock()
	w.pending = w.search != nil
	w.mu.Unlock()

	r := Reload{Imported: n}
	if w.search != nil {
		r.Refreshed, r.Err = w.tryRefresh(ctx)
	}
	w.report(r)
}

func (w *CatalogWatcher) refresh(ctx context.Context) {
	refreshed, err := w.tryRefresh(ctx)
	if refreshed || err != nil {
		w.report(Reload{Refreshed: refreshed, Err: err})
	}
}

// tryRefresh rebuilds the index; a throttled attempt stays pending.
func (w *CatalogWatcher) tryRefresh(ctx context.Context) (bool, error) {
	refreshed, err := w.search.Refresh(ctx)
	if err != nil {
		return false, err
	}
	if refreshed {
		w.mu.Lock()
		w.pending = false
		w.mu.Unlock()
		logger.Debug("catalog %s: index refreshed", w.path)
	}
	return refreshed, nil
}

func (w *CatalogWatcher) needsRefresh() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

func (w *CatalogWatcher) report(r Reload) {
	if w.onReload != nil {
		w.onReload(r)
	}
}
