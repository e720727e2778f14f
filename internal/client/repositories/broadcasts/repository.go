// Package broadcasts caches the active broadcast board. Broadcasts fill up
// quickly, so the validity window is short (30s by default).
package broadcasts

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

var ErrInvalidTruckCount = errors.New("number of trucks must be at least 1")

type API interface {
	ListActive(ctx context.Context, f api.BroadcastFilter) ([]models.BroadcastTrip, error)
	Accept(ctx context.Context, id string, trucks int) (api.AcceptResult, error)
	Decline(ctx context.Context, id string) error
}

type Invalidator interface {
	Invalidate()
}

type Repository struct {
	api   API
	store *cache.Store[models.BroadcastTrip]
	log   logging.Logger

	// dependents are invalidated after an accept changes what they hold.
	dependents []Invalidator
}

func NewRepository(a API, ttl time.Duration, clock cache.Clock, log logging.Logger, dependents ...Invalidator) *Repository {
	if log == nil {
		log = logging.Nop()
	}
	return &Repository{
		api:        a,
		store:      cache.NewStore[models.BroadcastTrip]("broadcasts", ttl, clock, log),
		log:        log,
		dependents: dependents,
	}
}

func (r *Repository) FetchActiveBroadcasts(ctx context.Context, force bool, f api.BroadcastFilter) result.Result[cache.Collection[models.BroadcastTrip]] {
	return r.store.Fetch(ctx, force, f, func(ctx context.Context) ([]models.BroadcastTrip, error) {
		return r.api.ListActive(ctx, f)
	})
}

// AcceptBroadcast reserves trucks on broadcast id for this transporter.
func (r *Repository) AcceptBroadcast(ctx context.Context, id string, trucks int) result.Result[api.AcceptResult] {
	if trucks < 1 {
		return result.FromErrorT[api.AcceptResult](ErrInvalidTruckCount)
	}

	res, err := r.api.Accept(ctx, id, trucks)
	if err != nil {
		r.log.Warn(ctx, "accept broadcast failed", "broadcast", id, "trucks", trucks, "error", err)
		return result.FromErrorT[api.AcceptResult](err)
	}

	r.log.Info(ctx, "broadcast accepted", "broadcast", id, "trucks", res.TrucksAccepted)
	r.store.Invalidate()
	for _, d := range r.dependents {
		d.Invalidate()
	}
	return result.Success(res)
}

func (r *Repository) DeclineBroadcast(ctx context.Context, id string) result.Result[struct{}] {
	if err := r.api.Decline(ctx, id); err != nil {
		return result.FromErrorT[struct{}](err)
	}
	r.store.Invalidate()
	return result.Success(struct{}{})
}

func (r *Repository) Invalidate() { r.store.Invalidate() }
func (r *Repository) Clear()      { r.store.Clear() }

func (r *Repository) Updates() *state.Flow[cache.Collection[models.BroadcastTrip]] {
	return r.store.Updates()
}
