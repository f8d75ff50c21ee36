// Package watcher polls the search roots for Python source changes and
// reports them as change batches the analysis database applies directly.
// Polling keeps behavior identical across platforms; a scan stats every
// tracked file and recomputes content hashes only when a stat changed.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"pysema/internal/db"
	"pysema/internal/source"
)

// Handler receives debounced change batches. It runs on the debouncer's
// timer goroutine.
type Handler func(changes []db.FileChange)

// Options configures the polling watcher.
type Options struct {
	Interval time.Duration
	Debounce time.Duration
	Exclude  []string // directory names skipped during scans
}

// DefaultOptions mirrors the config defaults.
func DefaultOptions() Options {
	return Options{
		Interval: time.Second,
		Debounce: 300 * time.Millisecond,
		Exclude:  []string{".git", "__pycache__", ".venv", "venv", "node_modules", ".pysema"},
	}
}

type fileMeta struct {
	modTime time.Time
	size    int64
	hash    string
}

// Watcher polls a set of filesystem roots for .py and .pyi changes.
type Watcher struct {
	opts    Options
	logger  *slog.Logger
	handler Handler
	batch   *BatchDebouncer

	mu    sync.Mutex
	roots []string
	files map[string]fileMeta

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher over the given roots. Virtual roots must be
// filtered out by the caller; resolver.SearchPaths.WatchRoots does that.
func New(roots []string, opts Options, logger *slog.Logger, handler Handler) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultOptions().Interval
	}
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		opts:    opts,
		logger:  logger,
		handler: handler,
		roots:   append([]string(nil), roots...),
		files:   make(map[string]fileMeta),
		ctx:     ctx,
		cancel:  cancel,
	}
	w.batch = NewBatchDebouncer(opts.Debounce, func(changes []db.FileChange) {
		if w.handler != nil {
			w.handler(changes)
		}
	})
	return w
}

// Start records the baseline snapshot and begins polling. Files already
// present when Start runs are not reported as created.
func (w *Watcher) Start() error {
	w.mu.Lock()
	w.files = w.snapshot()
	roots, tracked := len(w.roots), len(w.files)
	w.mu.Unlock()

	w.logger.Info("File watcher started",
		"roots", roots,
		"files", tracked,
		"intervalMs", w.opts.Interval.Milliseconds(),
		"debounceMs", w.opts.Debounce.Milliseconds())

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop halts polling and flushes any pending batch.
func (w *Watcher) Stop() {
	w.cancel()
	w.wg.Wait()
	w.batch.Flush()
	w.logger.Info("File watcher stopped")
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, change := range w.Scan() {
				w.batch.Add(change)
			}
		case <-w.ctx.Done():
			return
		}
	}
}

// Scan performs one poll pass, updates the snapshot and returns the
// changes found, sorted by path. The background loop feeds the same
// changes through the debouncer; tests and one-shot callers can use
// Scan directly.
//
// A stat change on a file whose content hash was never computed is
// reported as modified even though the content may be unchanged. The
// hash is recorded at that point, so later no-op touches are silent.
func (w *Watcher) Scan() []db.FileChange {
	w.mu.Lock()
	defer w.mu.Unlock()

	current := w.snapshot()
	var changes []db.FileChange

	for path, meta := range current {
		prev, known := w.files[path]
		if !known {
			changes = append(changes, db.FileChange{Path: path, Kind: db.ChangeCreated})
			continue
		}
		if meta.modTime.Equal(prev.modTime) && meta.size == prev.size {
			current[path] = prev
			continue
		}
		meta.hash = source.FingerprintFile(path)
		current[path] = meta
		if prev.hash == "" || meta.hash != prev.hash {
			changes = append(changes, db.FileChange{Path: path, Kind: db.ChangeModified})
		}
	}
	for path := range w.files {
		if _, ok := current[path]; !ok {
			changes = append(changes, db.FileChange{Path: path, Kind: db.ChangeDeleted})
		}
	}

	w.files = current
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}

// SetRoots replaces the watched roots after a search path update. Files
// only reachable from removed roots show up as deleted on the next scan.
func (w *Watcher) SetRoots(roots []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.roots = append([]string(nil), roots...)
}

// Roots returns the watched roots.
func (w *Watcher) Roots() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// Stats reports watcher state.
func (w *Watcher) Stats() map[string]any {
	w.mu.Lock()
	defer w.mu.Unlock()

	return map[string]any{
		"roots":      len(w.roots),
		"files":      len(w.files),
		"intervalMs": w.opts.Interval.Milliseconds(),
		"debounceMs": w.opts.Debounce.Milliseconds(),
		"pending":    w.batch.Pending(),
	}
}

// snapshot stats every Python file under the roots. Caller holds w.mu.
func (w *Watcher) snapshot() map[string]fileMeta {
	seen := make(map[string]fileMeta, len(w.files))
	for _, root := range w.roots {
		w.scanRoot(root, seen)
	}
	return seen
}

func (w *Watcher) scanRoot(root string, seen map[string]fileMeta) {
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			if path != root && w.excluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isPython(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		seen[path] = fileMeta{modTime: info.ModTime(), size: info.Size()}
		return nil
	})
}

func (w *Watcher) excluded(name string) bool {
	for _, ex := range w.opts.Exclude {
		if name == ex {
			return true
		}
	}
	return false
}

func isPython(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".py" || ext == ".pyi"
}
