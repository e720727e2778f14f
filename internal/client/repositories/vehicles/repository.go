package vehicles

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/cache"
	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
	"github.com/dmitrijs2005/weelo-captain/internal/client/result"
	"github.com/dmitrijs2005/weelo-captain/internal/client/state"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

var ErrVehicleNumberRequired = errors.New("vehicle number is required")

type Repository struct {
	api   API
	store *cache.Store[models.Vehicle]
	log   logging.Logger
}

func NewRepository(a API, ttl time.Duration, clock cache.Clock, log logging.Logger) *Repository {
	if log == nil {
		log = logging.Nop()
	}
	return &Repository{
		api:   a,
		store: cache.NewStore[models.Vehicle]("vehicles", ttl, clock, log),
		log:   log,
	}
}

func (r *Repository) FetchVehicles(ctx context.Context, force bool, f api.VehicleFilter) result.Result[cache.Collection[models.Vehicle]] {
	return r.store.Fetch(ctx, force, f, func(ctx context.Context) ([]models.Vehicle, error) {
		return r.api.List(ctx, f)
	})
}

// RegisterVehicles submits each vehicle separately; see cache.Batch for the
// partial-failure contract.
func (r *Repository) RegisterVehicles(ctx context.Context, in []models.VehicleInput) result.Result[cache.BatchResult[models.VehicleInput, models.Vehicle]] {
	res := cache.Batch(ctx, in, cache.DefaultBatchLimit, func(ctx context.Context, v models.VehicleInput) (models.Vehicle, error) {
		if err := validate(v); err != nil {
			return models.Vehicle{}, err
		}
		return r.api.Register(ctx, v)
	})
	if res.IsSuccess() {
		r.store.Invalidate()
	}
	return res
}

func (r *Repository) UpdateVehicle(ctx context.Context, id string, in models.VehicleInput) result.Result[models.Vehicle] {
	if err := validate(in); err != nil {
		return result.FromErrorT[models.Vehicle](err)
	}
	return r.mutate(ctx, func(ctx context.Context) (models.Vehicle, error) {
		return r.api.Update(ctx, id, in)
	})
}

func (r *Repository) UpdateVehicleStatus(ctx context.Context, id string, status models.VehicleStatus) result.Result[models.Vehicle] {
	return r.mutate(ctx, func(ctx context.Context) (models.Vehicle, error) {
		return r.api.UpdateStatus(ctx, id, status)
	})
}

func (r *Repository) DeleteVehicle(ctx context.Context, id string) result.Result[struct{}] {
	return r.mutateNoData(ctx, func(ctx context.Context) error {
		return r.api.Delete(ctx, id)
	})
}

func (r *Repository) mutate(ctx context.Context, fn func(context.Context) (models.Vehicle, error)) result.Result[models.Vehicle] {
	v, err := fn(ctx)
	if err != nil {
		r.log.Warn(ctx, "vehicle mutation failed", "error", err)
		return result.FromErrorT[models.Vehicle](err)
	}
	r.store.Invalidate()
	return result.Success(v)
}

func (r *Repository) mutateNoData(ctx context.Context, fn func(context.Context) error) result.Result[struct{}] {
	if err := fn(ctx); err != nil {
		r.log.Warn(ctx, "vehicle mutation failed", "error", err)
		return result.FromErrorT[struct{}](err)
	}
	r.store.Invalidate()
	return result.Success(struct{}{})
}

func (r *Repository) Invalidate() { r.store.Invalidate() }
func (r *Repository) Clear()      { r.store.Clear() }

func (r *Repository) Updates() *state.Flow[cache.Collection[models.Vehicle]] {
	return r.store.Updates()
}

func validate(in models.VehicleInput) error {
	if strings.TrimSpace(in.VehicleNumber) == "" {
		return ErrVehicleNumberRequired
	}
	return nil
}
