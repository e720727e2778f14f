// Package cache is the cache-aside core shared by the domain repositories.
//
// A Store keeps the last successful unfiltered list in memory together with
// the time it was fetched. Reads inside the validity window are served from
// memory; reads after it go to the network. When the network fails and an
// earlier list exists, that list is returned flagged IsStale instead of an
// error.
package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/result"
	"github.com/dmitrijs2005/weelo-captain/internal/client/state"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

var SystemClock Clock = ClockFunc(time.Now)

// Collection is a cached list. IsStale is set when the list is being served
// after a failed refresh or after Invalidate; it is never fresh in that case.
type Collection[T any] struct {
	Items       []T
	LastUpdated time.Time
	IsStale     bool
}

func (c Collection[T]) Fresh(now time.Time, ttl time.Duration) bool {
	return !c.IsStale && !c.LastUpdated.IsZero() && now.Sub(c.LastUpdated) < ttl
}

func (c Collection[T]) clone() Collection[T] {
	c.Items = slices.Clone(c.Items)
	return c
}

// Filter narrows a list. A nil or empty filter selects everything.
type Filter[T any] interface {
	Empty() bool
	Match(T) bool
}

type FetchFunc[T any] func(ctx context.Context) ([]T, error)

type Store[T any] struct {
	name  string
	ttl   time.Duration
	clock Clock
	log   logging.Logger

	// fetching serializes check, fetch and update so concurrent readers of
	// an expired store issue one network call between them. Waiting for it
	// ends with the caller's context.
	fetching chan struct{}

	// mu guards cached and generation only; it is never held across I/O.
	mu         sync.Mutex
	cached     *Collection[T]
	generation uint64
	updates    *state.Flow[Collection[T]]
}

func NewStore[T any](name string, ttl time.Duration, clock Clock, log logging.Logger) *Store[T] {
	if clock == nil {
		clock = SystemClock
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Store[T]{
		name:     name,
		ttl:      ttl,
		clock:    clock,
		log:      log.With("cache", name),
		fetching: make(chan struct{}, 1),
		updates:  state.NewFlow(Collection[T]{}),
	}
}

// Fetch returns the cached list when it is fresh and neither force nor a
// narrowing filter is given; otherwise it calls fetch.
//
// Filtered results are returned as-is and never replace the cached list. On
// failure the last list (filtered locally) is returned with IsStale set; only
// when nothing was ever cached does Fetch return an Error result. A list the
// response cache answered while offline is stale too, dated when it was
// stored. A list fetched across Invalidate or Clear is returned but not kept.
func (s *Store[T]) Fetch(ctx context.Context, force bool, filter Filter[T], fetch FetchFunc[T]) result.Result[Collection[T]] {
	select {
	case s.fetching <- struct{}{}:
		defer func() { <-s.fetching }()
	case <-ctx.Done():
		return result.FromErrorT[Collection[T]](ctx.Err())
	}

	filtered := filter != nil && !filter.Empty()

	s.mu.Lock()
	if !force && !filtered && s.cached != nil && s.cached.Fresh(s.clock.Now(), s.ttl) {
		hit := s.cached.clone()
		s.mu.Unlock()
		s.log.Debug(ctx, "served from cache", "items", len(hit.Items))
		return result.Success(hit)
	}
	gen := s.generation
	s.mu.Unlock()

	fctx, trace := api.TraceOffline(api.Revalidate(ctx))
	items, err := fetch(fctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	keep := !filtered && gen == s.generation

	if err == nil {
		if storedAt, offline := trace.ServedOffline(); offline {
			return s.offlineLocked(ctx, keep, Collection[T]{Items: items, LastUpdated: storedAt, IsStale: true})
		}
		fresh := Collection[T]{Items: items, LastUpdated: s.clock.Now()}
		if keep {
			s.cached = &fresh
			s.updates.Set(fresh.clone())
		}
		return result.Success(fresh.clone())
	}

	if s.cached == nil {
		s.log.Warn(ctx, "fetch failed, nothing cached", "error", err)
		return result.FromErrorT[Collection[T]](err)
	}

	s.log.Warn(ctx, "fetch failed, serving stale", "error", err, "age", s.clock.Now().Sub(s.cached.LastUpdated))
	s.cached.IsStale = true
	s.updates.Set(s.cached.clone())

	stale := s.cached.clone()
	if filtered {
		stale.Items = slices.DeleteFunc(stale.Items, func(v T) bool { return !filter.Match(v) })
	}
	return result.Success(stale)
}

// offlineLocked serves a stored response. It replaces the cached list only
// when it is newer than what memory holds.
func (s *Store[T]) offlineLocked(ctx context.Context, keep bool, stored Collection[T]) result.Result[Collection[T]] {
	s.log.Info(ctx, "offline, serving stored response", "stored_at", stored.LastUpdated)
	if !keep {
		return result.Success(stored)
	}
	if s.cached == nil || s.cached.LastUpdated.Before(stored.LastUpdated) {
		s.cached = &stored
	} else {
		s.cached.IsStale = true
	}
	s.updates.Set(s.cached.clone())
	return result.Success(s.cached.clone())
}

// Invalidate keeps the list but forces the next Fetch to the network. It
// does not wait for a fetch in flight; that fetch's result is not kept.
func (s *Store[T]) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if s.cached == nil {
		return
	}
	s.cached.IsStale = true
	s.cached.LastUpdated = time.Time{}
	s.updates.Set(s.cached.clone())
}

// Clear drops the list entirely (logout).
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.cached = nil
	s.updates.Set(Collection[T]{})
}

// Snapshot returns the cached list without touching the network.
func (s *Store[T]) Snapshot() (Collection[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached == nil {
		return Collection[T]{}, false
	}
	return s.cached.clone(), true
}

// Updates publishes every change to the cached list.
func (s *Store[T]) Updates() *state.Flow[Collection[T]] {
	return s.updates
}

func (s *Store[T]) Name() string { return s.name }
