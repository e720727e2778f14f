package presenter

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/cache"
	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
	"github.com/dmitrijs2005/weelo-captain/internal/client/result"
)

type fakeVehicles struct {
	mu      sync.Mutex
	filters []api.VehicleFilter
	items   []models.Vehicle
}

func (f *fakeVehicles) FetchVehicles(ctx context.Context, force bool, flt api.VehicleFilter) result.Result[cache.Collection[models.Vehicle]] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, flt)
	return result.Success(cache.Collection[models.Vehicle]{Items: f.items, LastUpdated: time.Unix(100, 0)})
}

func (f *fakeVehicles) RegisterVehicles(ctx context.Context, in []models.VehicleInput) result.Result[cache.BatchResult[models.VehicleInput, models.Vehicle]] {
	return result.Success(cache.BatchResult[models.VehicleInput, models.Vehicle]{
		Succeeded: []models.Vehicle{{ID: "v1", VehicleNumber: in[0].VehicleNumber}},
		Failed: []cache.ItemFailure[models.VehicleInput]{
			{Index: 1, Input: in[1], Err: &result.Error{Message: "already registered", StatusCode: http.StatusConflict}},
		},
	})
}

func (f *fakeVehicles) UpdateVehicleStatus(ctx context.Context, id string, status models.VehicleStatus) result.Result[models.Vehicle] {
	return result.Success(models.Vehicle{ID: id, Status: status})
}

func (f *fakeVehicles) DeleteVehicle(ctx context.Context, id string) result.Result[struct{}] {
	return result.Failure[struct{}](&result.Error{Message: result.MsgNotFound, StatusCode: http.StatusNotFound})
}

func TestFleet_LoadAndFilter(t *testing.T) {
	repo := &fakeVehicles{items: []models.Vehicle{{ID: "v1"}}}
	vm := NewFleetViewModel(context.Background(), repo, nil)
	defer vm.Close()

	await(t, vm.Load(false))
	s := vm.State().Value()
	assert.True(t, s.Loaded)
	assert.Len(t, s.Items, 1)
	assert.Equal(t, time.Unix(100, 0), s.LastUpdated)

	await(t, vm.SetFilter(api.VehicleFilter{Status: models.VehicleAvailable}))
	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, models.VehicleAvailable, repo.filters[len(repo.filters)-1].Status)
}

func TestFleet_RegisterReportsEachFailure(t *testing.T) {
	vm := NewFleetViewModel(context.Background(), &fakeVehicles{}, nil)
	defer vm.Close()

	br, err := vm.Register([]models.VehicleInput{{VehicleNumber: "MH12AB1234"}, {VehicleNumber: "MH12AB9999"}}).Await(context.Background())
	require.NoError(t, err)
	assert.Len(t, br.Succeeded, 1)
	require.Len(t, br.Failed, 1)

	assert.Equal(t, "MH12AB9999: already registered", nextEvent(t, vm.Events()).Message)
	assert.Equal(t, "1 vehicle added, 1 vehicle failed", nextEvent(t, vm.Events()).Message)
}

func TestFleet_DeleteFailureSetsError(t *testing.T) {
	vm := NewFleetViewModel(context.Background(), &fakeVehicles{}, nil)
	defer vm.Close()

	await(t, vm.Delete("nope"))
	assert.Equal(t, result.MsgNotFound, vm.ErrorMessage().Value())
}

type fakeBroadcasts struct{}

func (fakeBroadcasts) FetchActiveBroadcasts(ctx context.Context, force bool, f api.BroadcastFilter) result.Result[cache.Collection[models.BroadcastTrip]] {
	return result.Success(cache.Collection[models.BroadcastTrip]{IsStale: true})
}

func (fakeBroadcasts) AcceptBroadcast(ctx context.Context, id string, trucks int) result.Result[api.AcceptResult] {
	return result.Success(api.AcceptResult{TrucksAccepted: trucks})
}

func (fakeBroadcasts) DeclineBroadcast(ctx context.Context, id string) result.Result[struct{}] {
	return result.Success(struct{}{})
}

func TestBroadcasts_AcceptNavigates(t *testing.T) {
	vm := NewBroadcastsViewModel(context.Background(), fakeBroadcasts{}, nil)
	defer vm.Close()

	res, err := vm.Accept("b1", 2).Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.TrucksAccepted)

	ev := nextEvent(t, vm.Events())
	assert.Equal(t, EventNavigate, ev.Kind)
	assert.Equal(t, RouteAssignTrucks+"/b1", ev.Route)
	assert.True(t, vm.State().Value().Stale)
}

type fakeAuth struct {
	sentTo string
}

func (f *fakeAuth) SendOTP(ctx context.Context, phone string, role models.Role) error {
	f.sentTo = phone
	return nil
}

func (f *fakeAuth) VerifyOTP(ctx context.Context, phone, otp string, role models.Role) (models.Session, error) {
	if otp != "123456" {
		return models.Session{}, &api.Error{StatusCode: http.StatusBadRequest, Message: "wrong code"}
	}
	return models.Session{AccessToken: "a", Role: role}, nil
}

func TestLogin_Flow(t *testing.T) {
	auth := &fakeAuth{}
	vm := NewLoginViewModel(context.Background(), auth, nil)
	defer vm.Close()

	await(t, vm.SendOTP("12345", models.RoleDriver))
	assert.Equal(t, ErrInvalidPhone.Error(), vm.ErrorMessage().Value())
	assert.Empty(t, auth.sentTo)

	await(t, vm.SendOTP("98765 43210", models.RoleDriver))
	assert.Equal(t, "9876543210", auth.sentTo)
	assert.Equal(t, StepOTP, vm.State().Value().Step)
	assert.Equal(t, EventToast, nextEvent(t, vm.Events()).Kind)

	await(t, vm.VerifyOTP("000000"))
	assert.Equal(t, "wrong code", vm.ErrorMessage().Value())

	await(t, vm.VerifyOTP("123456"))
	assert.Equal(t, StepDone, vm.State().Value().Step)
	assert.Equal(t, RouteHome, nextEvent(t, vm.Events()).Route)
}

type fakeTrips struct {
	err   error
	owner string
}

func (f fakeTrips) List(ctx context.Context, status models.TripStatus) ([]models.Trip, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.Trip{{ID: "t1" + f.owner, Status: status}}, nil
}

func TestTrips_SecondLoadStartsFromSnapshot(t *testing.T) {
	vm := NewTripsViewModel(context.Background(), fakeTrips{}, nil)
	defer vm.Close()

	await(t, vm.Load(models.TripScheduled))
	assert.False(t, vm.State().Value().FromCache)

	vm.src = fakeTrips{err: api.ErrNetwork}
	await(t, vm.Load(models.TripScheduled))
	s := vm.State().Value()
	assert.True(t, s.FromCache)
	assert.Len(t, s.Trips, 1)
	assert.Empty(t, vm.ErrorMessage().Value())
}

func TestTrips_ClearForgetsPreviousUser(t *testing.T) {
	vm := NewTripsViewModel(context.Background(), fakeTrips{owner: "-a"}, nil)
	defer vm.Close()

	await(t, vm.Load(models.TripScheduled))
	require.Len(t, vm.State().Value().Trips, 1)

	vm.Clear()
	assert.Empty(t, vm.State().Value().Trips)

	vm.src = fakeTrips{err: api.ErrNetwork}
	await(t, vm.Load(models.TripScheduled))
	s := vm.State().Value()
	assert.Empty(t, s.Trips)
	assert.False(t, s.FromCache)
	assert.NotEmpty(t, vm.ErrorMessage().Value())
}
