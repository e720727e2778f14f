package presenter

import (
	"context"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/cache"
	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
	"github.com/dmitrijs2005/weelo-captain/internal/client/result"
)

type VehicleRepository interface {
	FetchVehicles(ctx context.Context, force bool, f api.VehicleFilter) result.Result[cache.Collection[models.Vehicle]]
	RegisterVehicles(ctx context.Context, in []models.VehicleInput) result.Result[cache.BatchResult[models.VehicleInput, models.Vehicle]]
	UpdateVehicleStatus(ctx context.Context, id string, status models.VehicleStatus) result.Result[models.Vehicle]
	DeleteVehicle(ctx context.Context, id string) result.Result[struct{}]
}

type DriverRepository interface {
	FetchDrivers(ctx context.Context, force bool, f api.DriverFilter) result.Result[cache.Collection[models.Driver]]
	RegisterDrivers(ctx context.Context, in []models.DriverInput) result.Result[cache.BatchResult[models.DriverInput, models.Driver]]
	AssignVehicle(ctx context.Context, driverID, vehicleID string) result.Result[models.Driver]
	DeleteDriver(ctx context.Context, id string) result.Result[struct{}]
}

type BroadcastRepository interface {
	FetchActiveBroadcasts(ctx context.Context, force bool, f api.BroadcastFilter) result.Result[cache.Collection[models.BroadcastTrip]]
	AcceptBroadcast(ctx context.Context, id string, trucks int) result.Result[api.AcceptResult]
	DeclineBroadcast(ctx context.Context, id string) result.Result[struct{}]
}

type AssignmentRepository interface {
	FetchAssignments(ctx context.Context, force bool, f api.AssignmentFilter) result.Result[cache.Collection[models.Assignment]]
	CreateAssignments(ctx context.Context, in []models.AssignmentInput) result.Result[cache.BatchResult[models.AssignmentInput, models.Assignment]]
	RespondToAssignment(ctx context.Context, id string, accept bool) result.Result[models.Assignment]
	CancelAssignment(ctx context.Context, id string) result.Result[struct{}]
}

type Authenticator interface {
	SendOTP(ctx context.Context, phone string, role models.Role) error
	VerifyOTP(ctx context.Context, phone, otp string, role models.Role) (models.Session, error)
}

type TripSource interface {
	List(ctx context.Context, status models.TripStatus) ([]models.Trip, error)
}
