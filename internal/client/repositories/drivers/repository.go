// Package drivers caches the transporter's driver roster.
package drivers

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/cache"
	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
	"github.com/dmitrijs2005/weelo-captain/internal/client/result"
	"github.com/dmitrijs2005/weelo-captain/internal/client/state"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

var (
	ErrNameRequired = errors.New("driver name is required")
	ErrInvalidPhone = errors.New("phone must be 10 digits, optionally prefixed with +91")
)

var phonePattern = regexp.MustCompile(`^(\+91)?[6-9][0-9]{9}$`)

type API interface {
	List(ctx context.Context, f api.DriverFilter) ([]models.Driver, error)
	Register(ctx context.Context, in models.DriverInput) (models.Driver, error)
	Update(ctx context.Context, id string, in models.DriverInput) (models.Driver, error)
	Delete(ctx context.Context, id string) error
	AssignVehicle(ctx context.Context, driverID, vehicleID string) (models.Driver, error)
}

type Repository struct {
	api   API
	store *cache.Store[models.Driver]
	log   logging.Logger

	// vehicles is invalidated when a driver is bound to a truck.
	vehicles interface{ Invalidate() }
}

func NewRepository(a API, ttl time.Duration, clock cache.Clock, log logging.Logger) *Repository {
	if log == nil {
		log = logging.Nop()
	}
	return &Repository{
		api:   a,
		store: cache.NewStore[models.Driver]("drivers", ttl, clock, log),
		log:   log,
	}
}

// InvalidatesVehicles makes AssignVehicle also invalidate v.
func (r *Repository) InvalidatesVehicles(v interface{ Invalidate() }) {
	r.vehicles = v
}

func (r *Repository) FetchDrivers(ctx context.Context, force bool, f api.DriverFilter) result.Result[cache.Collection[models.Driver]] {
	return r.store.Fetch(ctx, force, f, func(ctx context.Context) ([]models.Driver, error) {
		return r.api.List(ctx, f)
	})
}

func (r *Repository) RegisterDrivers(ctx context.Context, in []models.DriverInput) result.Result[cache.BatchResult[models.DriverInput, models.Driver]] {
	res := cache.Batch(ctx, in, cache.DefaultBatchLimit, func(ctx context.Context, d models.DriverInput) (models.Driver, error) {
		if err := Validate(d); err != nil {
			return models.Driver{}, err
		}
		return r.api.Register(ctx, d)
	})
	if res.IsSuccess() {
		r.store.Invalidate()
	}
	return res
}

func (r *Repository) UpdateDriver(ctx context.Context, id string, in models.DriverInput) result.Result[models.Driver] {
	if err := Validate(in); err != nil {
		return result.FromErrorT[models.Driver](err)
	}
	d, err := r.api.Update(ctx, id, in)
	return mutated(ctx, r, d, err)
}

func (r *Repository) DeleteDriver(ctx context.Context, id string) result.Result[struct{}] {
	err := r.api.Delete(ctx, id)
	return mutated(ctx, r, struct{}{}, err)
}

func (r *Repository) AssignVehicle(ctx context.Context, driverID, vehicleID string) result.Result[models.Driver] {
	d, err := r.api.AssignVehicle(ctx, driverID, vehicleID)
	if err == nil && r.vehicles != nil {
		r.vehicles.Invalidate()
	}
	return mutated(ctx, r, d, err)
}

// mutated invalidates the roster after a successful write.
func mutated[T any](ctx context.Context, r *Repository, v T, err error) result.Result[T] {
	if err != nil {
		r.log.Warn(ctx, "driver mutation failed", "error", err)
		return result.FromErrorT[T](err)
	}
	r.store.Invalidate()
	return result.Success(v)
}

func (r *Repository) Invalidate() { r.store.Invalidate() }
func (r *Repository) Clear()      { r.store.Clear() }

func (r *Repository) Updates() *state.Flow[cache.Collection[models.Driver]] {
	return r.store.Updates()
}

// Validate checks what can be checked without the server.
func Validate(in models.DriverInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	if !phonePattern.MatchString(strings.ReplaceAll(in.Phone, " ", "")) {
		return ErrInvalidPhone
	}
	return nil
}
