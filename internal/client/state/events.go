package state

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

const DefaultEventCapacity = 16

// Events is a queue of one-shot signals (navigation, toasts). Each event is
// received by exactly one reader and is gone afterwards; nothing is replayed
// to a reader that arrives later. When full, the oldest event is dropped.
type Events[E any] struct {
	mu  sync.Mutex
	ch  chan E
	log logging.Logger
}

func NewEvents[E any](capacity int, log logging.Logger) *Events[E] {
	if capacity <= 0 {
		capacity = DefaultEventCapacity
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Events[E]{ch: make(chan E, capacity), log: log}
}

// Emit never blocks.
func (e *Events[E]) Emit(ev E) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for {
		select {
		case e.ch <- ev:
			return
		default:
		}

		select {
		case dropped := <-e.ch:
			e.log.Warn(context.Background(), "event queue full, dropping oldest", "event", dropped)
		default:
		}
	}
}

func (e *Events[E]) C() <-chan E { return e.ch }

// Next waits for one event or for ctx to end.
func (e *Events[E]) Next(ctx context.Context) (E, error) {
	select {
	case ev := <-e.ch:
		return ev, nil
	case <-ctx.Done():
		var zero E
		return zero, ctx.Err()
	}
}

func (e *Events[E]) Len() int { return len(e.ch) }
