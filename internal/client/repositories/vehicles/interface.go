package vehicles

import (
	"context"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
)

// API is the subset of api.VehiclesClient the repository needs.
type API interface {
	List(ctx context.Context, f api.VehicleFilter) ([]models.Vehicle, error)
	Register(ctx context.Context, in models.VehicleInput) (models.Vehicle, error)
	Update(ctx context.Context, id string, in models.VehicleInput) (models.Vehicle, error)
	UpdateStatus(ctx context.Context, id string, status models.VehicleStatus) (models.Vehicle, error)
	Delete(ctx context.Context, id string) error
}
