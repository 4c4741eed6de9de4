package store

import (
	"sync"

	"wcnotify/internal/domain"
)

// Store lifecycle event ops.
const (
	OpSet    = "set"
	OpUpdate = "update"
	OpDelete = "delete"
)

// watchers fans store lifecycle events out to registered callbacks.
type watchers struct {
	mu  sync.Mutex
	fns []func(domain.StoreEvent)
}

func (w *watchers) add(fn func(domain.StoreEvent)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fns = append(w.fns, fn)
}

func (w *watchers) notify(op, key string) {
	w.mu.Lock()
	fns := append([]func(domain.StoreEvent){}, w.fns...)
	w.mu.Unlock()
	for _, fn := range fns {
		fn(domain.StoreEvent{Op: op, Key: key})
	}
}
