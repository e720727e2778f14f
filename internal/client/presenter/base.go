// Package presenter holds per-screen state for the UI layer.
//
// Every holder embeds a Base, which gives it one state value (replaced
// wholesale), a loading flag, an error message and a one-shot event queue.
// Work is launched with Execute, ExecuteWithResult or LoadCacheFirst; all of
// them run on a goroutine tied to the holder and trap every failure, panics
// included, into the error field.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/weelo-captain/internal/client/result"
	"github.com/dmitrijs2005/weelo-captain/internal/client/state"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

type EventKind int

const (
	EventToast EventKind = iota
	EventNavigate
	// EventForceLogout asks the UI to drop the session and show login.
	EventForceLogout
)

type Event struct {
	Kind    EventKind
	Message string
	Route   string
}

type ExecOptions struct {
	// Quiet leaves the loading flag alone (background refreshes).
	Quiet bool
	// OnError runs after the error message is stored.
	OnError func(err error)
}

type Base[S any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    logging.Logger

	state   *state.Flow[S]
	loading *state.Flow[bool]
	errMsg  *state.Flow[string]
	events  *state.Events[Event]
}

func NewBase[S any](parent context.Context, initial S, log logging.Logger) *Base[S] {
	if log == nil {
		log = logging.Nop()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Base[S]{
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
		state:   state.NewFlow(initial),
		loading: state.NewFlow(false),
		errMsg:  state.NewFlow(""),
		events:  state.NewEvents[Event](state.DefaultEventCapacity, log),
	}
}

func (b *Base[S]) State() *state.Flow[S]             { return b.state }
func (b *Base[S]) Loading() *state.Flow[bool]        { return b.loading }
func (b *Base[S]) ErrorMessage() *state.Flow[string] { return b.errMsg }
func (b *Base[S]) Events() *state.Events[Event]      { return b.events }

// Update replaces the state with fn(current).
func (b *Base[S]) Update(fn func(S) S) S {
	return b.state.Update(fn)
}

func (b *Base[S]) Emit(ev Event) { b.events.Emit(ev) }

// Execute runs block in the background. Before it starts, loading is set
// (unless Quiet) and the error is cleared; loading is reset when it ends,
// whatever the outcome. The returned channel closes when block is done.
func (b *Base[S]) Execute(opts ExecOptions, block func(ctx context.Context) error) <-chan struct{} {
	done := make(chan struct{})

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer close(done)

		if !opts.Quiet {
			b.loading.Set(true)
			defer b.loading.Set(false)
		}
		b.errMsg.Set("")

		err := b.run(block)
		if err != nil {
			b.fail(err, opts.OnError)
		}
	}()

	return done
}

// run calls block and turns a panic into an error.
func (b *Base[S]) run(block func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error(b.ctx, "presenter operation panicked", "panic", r)
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()
	return block(b.ctx)
}

func (b *Base[S]) fail(err error, onError func(error)) {
	// the screen is gone; nobody will read the result
	if errors.Is(err, context.Canceled) && b.ctx.Err() != nil {
		return
	}

	re := result.FromError(err)
	b.errMsg.Set(re.Message)
	if re.MustReauthenticate {
		b.events.Emit(Event{Kind: EventForceLogout, Message: re.Message})
	}
	if onError != nil {
		onError(err)
	}
}

// Close cancels in-flight work and waits for it to finish.
func (b *Base[S]) Close() {
	b.cancel()
	b.wg.Wait()
}

// Deferred is the pending outcome of ExecuteWithResult.
type Deferred[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Await blocks until the work finishes or ctx ends.
func (d *Deferred[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-d.done:
		return d.value, d.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (d *Deferred[T]) Done() <-chan struct{} { return d.done }

// ExecuteWithResult is Execute for callers that chain on the value. The
// error field and loading flag are maintained the same way.
func ExecuteWithResult[S, T any](b *Base[S], block func(ctx context.Context) (T, error)) *Deferred[T] {
	d := &Deferred[T]{done: make(chan struct{})}

	b.Execute(ExecOptions{}, func(ctx context.Context) (err error) {
		defer close(d.done)
		defer func() {
			if r := recover(); r != nil {
				b.log.Error(ctx, "presenter operation panicked", "panic", r)
				err = fmt.Errorf("unexpected error: %v", r)
				d.err = err
			}
		}()
		d.value, d.err = block(ctx)
		return d.err
	})

	return d
}

// LoadCacheFirst shows cached data immediately (no loading indicator), then
// fetches. Fresh data is shown and saved. A failed fetch is reported only if
// nothing was shown from the cache.
func LoadCacheFirst[S, T any](
	b *Base[S],
	loadFromCache func(ctx context.Context) (T, bool),
	fetchFromAPI func(ctx context.Context) (T, error),
	saveToCache func(ctx context.Context, v T),
	onData func(v T, fromCache bool),
	onError func(err error),
) <-chan struct{} {
	done := make(chan struct{})

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer close(done)

		var hadCache bool
		err := b.run(func(ctx context.Context) error {
			cached, ok := loadFromCache(ctx)
			if ok {
				hadCache = true
				onData(cached, true)
			} else {
				b.loading.Set(true)
				defer b.loading.Set(false)
			}

			fresh, err := fetchFromAPI(ctx)
			if err != nil {
				return err
			}
			onData(fresh, false)
			if saveToCache != nil {
				saveToCache(ctx, fresh)
			}
			return nil
		})

		if err == nil {
			return
		}
		if hadCache {
			b.log.Warn(b.ctx, "refresh failed, keeping cached data", "error", err)
			return
		}
		b.fail(err, onError)
	}()

	return done
}
