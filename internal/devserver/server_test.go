package devserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
)

type bearer struct {
	token string
	next  http.RoundTripper
}

func (b *bearer) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	if b.token != "" {
		r.Header.Set("Authorization", "Bearer "+b.token)
	}
	return b.next.RoundTrip(r)
}

func setup(t *testing.T) (*Server, *api.Client, *bearer) {
	t.Helper()
	cfg := &Config{}
	cfg.LoadDefaults()
	srv := New(cfg, nil)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	auth := &bearer{next: http.DefaultTransport}
	c, err := api.New(ts.URL+cfg.Prefix, &http.Client{Transport: auth})
	require.NoError(t, err)
	return srv, c, auth
}

func login(t *testing.T, c *api.Client, auth *bearer, phone string, role models.Role) models.Session {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.Auth.SendOTP(ctx, phone, role))
	s, err := c.Auth.VerifyOTP(ctx, phone, "123456", role)
	require.NoError(t, err)
	auth.token = s.AccessToken
	return s
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	return apiErr.StatusCode
}

func TestAuth_OTPAndRefresh(t *testing.T) {
	_, c, auth := setup(t)
	ctx := context.Background()

	_, err := c.Auth.VerifyOTP(ctx, "9876543210", "000000", models.RoleTransporter)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	s := login(t, c, auth, "9876543210", models.RoleTransporter)
	assert.NotEmpty(t, s.UserID)
	assert.Equal(t, models.RoleTransporter, s.Role)

	pair, err := c.Auth.Refresh(ctx, s.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, s.RefreshToken, pair.RefreshToken)

	// rotated: the old one is gone
	_, err = c.Auth.Refresh(ctx, s.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestAuth_ExpiredAccessToken(t *testing.T) {
	srv, c, auth := setup(t)
	login(t, c, auth, "9876543210", models.RoleTransporter)

	srv.ExpireAccessTokens()
	_, err := c.Vehicles.List(context.Background(), api.VehicleFilter{})
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestVehicles_CRUD(t *testing.T) {
	_, c, auth := setup(t)
	ctx := context.Background()
	login(t, c, auth, "9876543210", models.RoleTransporter)

	v, err := c.Vehicles.Register(ctx, models.VehicleInput{VehicleNumber: "mh12ab1234", VehicleType: "open"})
	require.NoError(t, err)
	assert.Equal(t, "MH12AB1234", v.VehicleNumber)

	_, err = c.Vehicles.Register(ctx, models.VehicleInput{VehicleNumber: "MH12AB1234"})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	_, err = c.Vehicles.UpdateStatus(ctx, v.ID, models.VehicleMaintenance)
	require.NoError(t, err)

	list, err := c.Vehicles.List(ctx, api.VehicleFilter{Status: models.VehicleMaintenance})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = c.Vehicles.List(ctx, api.VehicleFilter{Status: models.VehicleAvailable})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, c.Vehicles.Delete(ctx, v.ID))
	err = c.Vehicles.Delete(ctx, v.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestVehicles_OtherTransporter(t *testing.T) {
	_, c, auth := setup(t)
	ctx := context.Background()

	login(t, c, auth, "9876543210", models.RoleTransporter)
	_, err := c.Vehicles.Register(ctx, models.VehicleInput{VehicleNumber: "KA01XY0001"})
	require.NoError(t, err)

	login(t, c, auth, "9123456789", models.RoleTransporter)
	_, err = c.Vehicles.Register(ctx, models.VehicleInput{VehicleNumber: "KA01XY0001"})
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "vehicle owned by another transporter", apiErr.Message)

	list, err := c.Vehicles.List(ctx, api.VehicleFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDriversRoleCheck(t *testing.T) {
	_, c, auth := setup(t)
	login(t, c, auth, "9000000001", models.RoleDriver)

	_, err := c.Drivers.List(context.Background(), api.DriverFilter{})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
}

func TestBroadcastToTrip(t *testing.T) {
	_, c, auth := setup(t)
	ctx := context.Background()
	login(t, c, auth, "9876543210", models.RoleTransporter)

	bs, err := c.Broadcasts.ListActive(ctx, api.BroadcastFilter{VehicleType: "open"})
	require.NoError(t, err)
	require.Len(t, bs, 1)
	b := bs[0]

	_, err = c.Broadcasts.Accept(ctx, b.ID, b.TrucksNeeded+1)
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	res, err := c.Broadcasts.Accept(ctx, b.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TrucksAccepted)
	assert.Equal(t, models.BroadcastPartiallyFilled, res.Broadcast.Status)

	v, err := c.Vehicles.Register(ctx, models.VehicleInput{VehicleNumber: "MH12AB1234"})
	require.NoError(t, err)
	d, err := c.Drivers.Register(ctx, models.DriverInput{Name: "Ravi", Phone: "9000000001"})
	require.NoError(t, err)

	a, err := c.Assignments.Create(ctx, models.AssignmentInput{BroadcastID: b.ID, VehicleID: v.ID, DriverID: d.ID})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentPending, a.Status)

	_, err = c.Assignments.Create(ctx, models.AssignmentInput{BroadcastID: b.ID, VehicleID: v.ID, DriverID: d.ID})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	// the driver answers from their own session
	login(t, c, auth, "9000000001", models.RoleDriver)
	mine, err := c.Assignments.List(ctx, api.AssignmentFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	a, err = c.Assignments.Respond(ctx, a.ID, true)
	require.NoError(t, err)
	require.NotEmpty(t, a.TripID)

	trip, err := c.Trips.UpdateStatus(ctx, a.TripID, models.TripStarted)
	require.NoError(t, err)
	assert.NotNil(t, trip.StartedAt)

	require.NoError(t, c.Tracking.UpdateLocation(ctx, trip.ID, models.Location{Latitude: 18.5, Longitude: 73.8}))
	loc, err := c.Tracking.GetTripLocation(ctx, trip.ID)
	require.NoError(t, err)
	assert.InDelta(t, 18.5, loc.Latitude, 1e-9)
}

func TestFailNext(t *testing.T) {
	srv, c, auth := setup(t)
	ctx := context.Background()
	login(t, c, auth, "9876543210", models.RoleTransporter)

	srv.FailNext("/vehicles", http.StatusServiceUnavailable, 1)
	_, err := c.Vehicles.List(ctx, api.VehicleFilter{})
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))

	_, err = c.Vehicles.List(ctx, api.VehicleFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Hits("/vehicles"))

	// the stdlib transport may retry a GET once on a fresh connection
	srv.FailNext("/vehicles", 0, 3)
	_, err = c.Vehicles.List(ctx, api.VehicleFilter{})
	assert.ErrorIs(t, err, api.ErrNetwork)
}

func TestIdempotencyKeyReplays(t *testing.T) {
	srv, c, auth := setup(t)
	login(t, c, auth, "9876543210", models.RoleTransporter)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	post := func() *http.Response {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/vehicles", strings.NewReader(`{"vehicleNumber":"DL01AA0001"}`))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+auth.token)
		req.Header.Set(api.HeaderIdempotencyKey, "k-1")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	first := post()
	second := post()
	assert.Equal(t, http.StatusCreated, first.StatusCode)
	assert.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("Idempotent-Replayed"))
}
