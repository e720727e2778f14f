// Package assignments caches truck assignments: which vehicle and driver
// serve each accepted broadcast truck. Transporters create and cancel them;
// drivers accept or decline.
package assignments

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/cache"
	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
	"github.com/dmitrijs2005/weelo-captain/internal/client/result"
	"github.com/dmitrijs2005/weelo-captain/internal/client/state"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

var (
	ErrIncompletePair   = errors.New("each truck needs both a vehicle and a driver")
	ErrDuplicateVehicle = errors.New("a vehicle can only be assigned once per broadcast")
)

type API interface {
	List(ctx context.Context, f api.AssignmentFilter) ([]models.Assignment, error)
	Create(ctx context.Context, in models.AssignmentInput) (models.Assignment, error)
	Respond(ctx context.Context, id string, accept bool) (models.Assignment, error)
	Cancel(ctx context.Context, id string) error
}

type Repository struct {
	api   API
	store *cache.Store[models.Assignment]
	log   logging.Logger
}

func NewRepository(a API, ttl time.Duration, clock cache.Clock, log logging.Logger) *Repository {
	if log == nil {
		log = logging.Nop()
	}
	return &Repository{
		api:   a,
		store: cache.NewStore[models.Assignment]("assignments", ttl, clock, log),
		log:   log,
	}
}

func (r *Repository) FetchAssignments(ctx context.Context, force bool, f api.AssignmentFilter) result.Result[cache.Collection[models.Assignment]] {
	return r.store.Fetch(ctx, force, f, func(ctx context.Context) ([]models.Assignment, error) {
		return r.api.List(ctx, f)
	})
}

// CreateAssignments submits one assignment per truck. Pairs are checked
// locally first; the whole request is rejected if any pair is incomplete or
// a vehicle repeats.
func (r *Repository) CreateAssignments(ctx context.Context, in []models.AssignmentInput) result.Result[cache.BatchResult[models.AssignmentInput, models.Assignment]] {
	if err := validatePairs(in); err != nil {
		return result.FromErrorT[cache.BatchResult[models.AssignmentInput, models.Assignment]](err)
	}

	res := cache.Batch(ctx, in, cache.DefaultBatchLimit, r.api.Create)
	if res.IsSuccess() {
		r.store.Invalidate()
	}
	return res
}

// RespondToAssignment records a driver's accept or decline.
func (r *Repository) RespondToAssignment(ctx context.Context, id string, accept bool) result.Result[models.Assignment] {
	a, err := r.api.Respond(ctx, id, accept)
	if err != nil {
		return result.FromErrorT[models.Assignment](err)
	}
	r.store.Invalidate()
	return result.Success(a)
}

func (r *Repository) CancelAssignment(ctx context.Context, id string) result.Result[struct{}] {
	if err := r.api.Cancel(ctx, id); err != nil {
		return result.FromErrorT[struct{}](err)
	}
	r.store.Invalidate()
	return result.Success(struct{}{})
}

func (r *Repository) Invalidate() { r.store.Invalidate() }
func (r *Repository) Clear()      { r.store.Clear() }

func (r *Repository) Updates() *state.Flow[cache.Collection[models.Assignment]] {
	return r.store.Updates()
}

func validatePairs(in []models.AssignmentInput) error {
	seen := make(map[string]struct{}, len(in))
	for _, a := range in {
		if a.VehicleID == "" || a.DriverID == "" {
			return ErrIncompletePair
		}
		key := a.BroadcastID + "/" + a.VehicleID
		if _, dup := seen[key]; dup {
			return ErrDuplicateVehicle
		}
		seen[key] = struct{}{}
	}
	return nil
}
