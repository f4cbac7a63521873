package modver

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/vk/modver/internal/fsutil"
)

// watcher invalidates record caches when their registered paths change on
// disk. fsnotify cannot watch files that do not exist yet and does not
// recurse, so the watcher observes each record's path (directories) or its
// parent directory (files) and matches events back by path prefix.
type watcher struct {
	fw     *fsnotify.Watcher
	logger *slog.Logger

	mu      sync.Mutex
	records map[*Record]string // record -> watched path prefix

	closeOnce sync.Once
	wg        sync.WaitGroup
}

func newWatcher(logger *slog.Logger) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &watcher{
		fw:      fw,
		logger:  logger,
		records: make(map[*Record]string),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.invalidateMatching(ev.Name)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Filesystem watcher error.", "error", err)
		}
	}
}

// invalidateMatching drops the cache of every record whose registered path
// covers the changed file.
func (w *watcher) invalidateMatching(changed string) {
	w.mu.Lock()
	var hit []*Record
	for rec, prefix := range w.records {
		if changed == prefix || strings.HasPrefix(changed, prefix+string(filepath.Separator)) {
			hit = append(hit, rec)
		}
	}
	w.mu.Unlock()

	for _, rec := range hit {
		w.logger.Debug("Path changed on disk; invalidating cached pack.",
			"package", rec.Name, "version", rec.Version, "changed", changed)
		rec.Invalidate()
	}
}

// add starts watching a record's registered path.
func (w *watcher) add(rec *Record) {
	target := rec.Path
	if abs, err := filepath.Abs(rec.Path); err == nil {
		target = abs
	}

	watched := target
	if !fsutil.DirExists(target) {
		watched = filepath.Dir(target)
	}
	if err := w.fw.Add(watched); err != nil {
		w.logger.Warn("Failed to watch path.", "path", watched, "error", err)
		return
	}

	w.mu.Lock()
	w.records[rec] = target
	w.mu.Unlock()
}

// remove stops tracking a record. The underlying directory watch stays in
// place; spurious events for untracked paths simply match nothing.
func (w *watcher) remove(rec *Record) {
	w.mu.Lock()
	delete(w.records, rec)
	w.mu.Unlock()
}

func (w *watcher) close() {
	w.closeOnce.Do(func() {
		_ = w.fw.Close()
		w.wg.Wait()
	})
}
