package client

import "sync"

// emitter fans a typed event out to subscribers. Subscribe returns a
// disposer; disposing twice is harmless. Handlers run synchronously on the
// emitting goroutine, so they must not block.
type emitter[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(T)
}

func (e *emitter[T]) subscribe(fn func(T)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.subs == nil {
		e.subs = make(map[int]func(T))
	}
	id := e.next
	e.next++
	e.subs[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}
}

func (e *emitter[T]) emit(v T) {
	e.mu.Lock()
	fns := make([]func(T), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}
