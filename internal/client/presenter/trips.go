package presenter

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

type TripsState struct {
	Trips     []models.Trip
	FromCache bool
}

// TripsViewModel has no repository behind it; it keeps the last list itself
// and loads cache-first.
type TripsViewModel struct {
	*Base[TripsState]
	src TripSource

	mu         sync.Mutex
	last       map[models.TripStatus][]models.Trip
	generation uint64
}

func NewTripsViewModel(ctx context.Context, src TripSource, log logging.Logger) *TripsViewModel {
	return &TripsViewModel{
		Base: NewBase(ctx, TripsState{}, log),
		src:  src,
		last: make(map[models.TripStatus][]models.Trip),
	}
}

func (vm *TripsViewModel) Load(status models.TripStatus) <-chan struct{} {
	vm.mu.Lock()
	gen := vm.generation
	vm.mu.Unlock()

	return LoadCacheFirst(vm.Base,
		func(context.Context) ([]models.Trip, bool) {
			vm.mu.Lock()
			defer vm.mu.Unlock()
			t, ok := vm.last[status]
			return t, ok
		},
		func(ctx context.Context) ([]models.Trip, error) {
			return vm.src.List(ctx, status)
		},
		func(_ context.Context, t []models.Trip) {
			vm.mu.Lock()
			defer vm.mu.Unlock()
			if vm.generation == gen {
				vm.last[status] = t
			}
		},
		func(t []models.Trip, fromCache bool) {
			if vm.cleared(gen) {
				return
			}
			vm.Update(func(TripsState) TripsState { return TripsState{Trips: t, FromCache: fromCache} })
		},
		nil,
	)
}

// Clear forgets every list and empties the screen. Loads already running
// when Clear is called neither store nor show their result.
func (vm *TripsViewModel) Clear() {
	vm.mu.Lock()
	vm.generation++
	vm.last = make(map[models.TripStatus][]models.Trip)
	vm.mu.Unlock()

	vm.Update(func(TripsState) TripsState { return TripsState{} })
	vm.ErrorMessage().Set("")
}

func (vm *TripsViewModel) cleared(gen uint64) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.generation != gen
}
