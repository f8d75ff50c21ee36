package watcher

import (
	"sort"
	"sync"
	"time"

	"pysema/internal/db"
)

// BatchDebouncer collects changes during a quiet period and emits them
// as one batch. Changes to the same path coalesce: create then delete
// cancels out, delete then create becomes a modify.
type BatchDebouncer struct {
	delay   time.Duration
	timer   *time.Timer
	mu      sync.Mutex
	pending map[string]db.ChangeKind
	emit    func([]db.FileChange)
}

// NewBatchDebouncer creates a batch debouncer. emit runs on the timer
// goroutine once the delay passes without new changes.
func NewBatchDebouncer(delay time.Duration, emit func([]db.FileChange)) *BatchDebouncer {
	return &BatchDebouncer{
		delay:   delay,
		pending: make(map[string]db.ChangeKind),
		emit:    emit,
	}
}

// Add records a change and resets the quiet-period timer.
func (b *BatchDebouncer) Add(change db.FileChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prev, ok := b.pending[change.Path]; ok {
		kind, keep := coalesce(prev, change.Kind)
		if keep {
			b.pending[change.Path] = kind
		} else {
			delete(b.pending, change.Path)
		}
	} else {
		b.pending[change.Path] = change.Kind
	}

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, b.flush)
}

func coalesce(prev, next db.ChangeKind) (db.ChangeKind, bool) {
	switch {
	case prev == db.ChangeCreated && next == db.ChangeDeleted:
		return "", false
	case prev == db.ChangeCreated:
		return db.ChangeCreated, true
	case prev == db.ChangeDeleted && next == db.ChangeCreated:
		return db.ChangeModified, true
	default:
		return next, true
	}
}

func (b *BatchDebouncer) flush() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	pending := b.pending
	b.pending = make(map[string]db.ChangeKind)
	b.mu.Unlock()

	if len(pending) == 0 || b.emit == nil {
		return
	}
	changes := make([]db.FileChange, 0, len(pending))
	for path, kind := range pending {
		changes = append(changes, db.FileChange{Path: path, Kind: kind})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	b.emit(changes)
}

// Flush emits any pending changes immediately.
func (b *BatchDebouncer) Flush() {
	b.flush()
}

// Cancel discards pending changes without emitting them.
func (b *BatchDebouncer) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.pending = make(map[string]db.ChangeKind)
}

// Pending returns the number of coalesced changes waiting to emit.
func (b *BatchDebouncer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
