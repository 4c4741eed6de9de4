package engine

import (
	"sync"

	"wcnotify/internal/domain"
)

// Emitter is the subscribe-callback registry delivering engine events to the
// host. Callbacks run on the emitting goroutine and must not block.
type Emitter struct {
	mu  sync.Mutex
	fns []func(domain.Event)
}

// Subscribe registers a callback for every subsequent event.
func (e *Emitter) Subscribe(fn func(domain.Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fns = append(e.fns, fn)
}

func (e *Emitter) emit(ev domain.Event) {
	e.mu.Lock()
	fns := append([]func(domain.Event){}, e.fns...)
	e.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
