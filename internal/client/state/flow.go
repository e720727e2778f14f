// Package state provides the two observation primitives used by repositories
// and presenters: Flow, a current value with conflated change notification,
// and Events, a one-shot queue.
package state

import "sync"

// Flow holds a value that is replaced wholesale on each Set. Subscribers see
// the latest value; intermediate values may be skipped if they read slowly.
type Flow[T any] struct {
	mu    sync.Mutex
	value T
	subs  map[uint64]chan T
	next  uint64
}

func NewFlow[T any](initial T) *Flow[T] {
	return &Flow[T]{value: initial, subs: make(map[uint64]chan T)}
}

func (f *Flow[T]) Value() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

func (f *Flow[T]) Set(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setLocked(v)
}

// Update applies fn to the current value atomically and publishes the result.
func (f *Flow[T]) Update(fn func(T) T) T {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := fn(f.value)
	f.setLocked(v)
	return v
}

func (f *Flow[T]) setLocked(v T) {
	f.value = v
	for _, ch := range f.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Subscribe returns a channel primed with the current value. cancel closes
// the channel; it is safe to call more than once.
func (f *Flow[T]) Subscribe() (<-chan T, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	ch := make(chan T, 1)
	ch <- f.value
	f.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers reports how many subscriptions are open.
func (f *Flow[T]) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
