package services

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
	"github.com/dmitrijs2005/weelo-captain/internal/client/storage"
	"github.com/dmitrijs2005/weelo-captain/internal/client/tokenstore"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

type fakeAuthAPI struct {
	session    models.Session
	verifyErr  error
	logoutErr  error
	logoutHits int
}

func (f *fakeAuthAPI) SendOTP(ctx context.Context, phone string, role models.Role) error {
	return nil
}

func (f *fakeAuthAPI) VerifyOTP(ctx context.Context, phone, otp string, role models.Role) (models.Session, error) {
	return f.session, f.verifyErr
}

func (f *fakeAuthAPI) Logout(ctx context.Context) error {
	f.logoutHits++
	return f.logoutErr
}

type fakeCache struct{ cleared int }

func (f *fakeCache) Clear() { f.cleared++ }

type fakeResponses struct{ cleared int }

func (f *fakeResponses) ClearCache(context.Context) error {
	f.cleared++
	return nil
}

func newTokenStore(t *testing.T) *tokenstore.Store {
	t.Helper()
	db, err := storage.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := tokenstore.New(db, "secret", logging.Nop())
	require.NoError(t, s.Load(context.Background()))
	return s
}

func signed(t *testing.T, sub, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte("k"))
	require.NoError(t, err)
	return s
}

func TestAuthService_VerifyStoresSession(t *testing.T) {
	ctx := context.Background()
	tokens := newTokenStore(t)
	access := signed(t, "u-1", "transporter")
	a := &fakeAuthAPI{session: models.Session{AccessToken: access, RefreshToken: "r", UserID: "u-1", Role: models.RoleTransporter}}
	svc := NewAuthService(a, tokens, nil, nil)

	_, err := svc.VerifyOTP(ctx, "9876543210", "123456", models.RoleTransporter)
	require.NoError(t, err)
	assert.True(t, tokens.IsAuthenticated())
	assert.Equal(t, "u-1", svc.CurrentSession().UserID)

	claims, err := svc.SessionInfo()
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "transporter", claims.Role)
}

func TestAuthService_VerifyFailureKeepsLoggedOut(t *testing.T) {
	tokens := newTokenStore(t)
	a := &fakeAuthAPI{verifyErr: &api.Error{StatusCode: http.StatusBadRequest, Message: "invalid otp"}}
	svc := NewAuthService(a, tokens, nil, nil)

	_, err := svc.VerifyOTP(context.Background(), "9876543210", "000000", models.RoleDriver)
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.False(t, tokens.IsAuthenticated())

	_, err = svc.SessionInfo()
	assert.ErrorIs(t, err, tokenstore.ErrNotAuthenticated)
}

func TestAuthService_LogoutTearsDownEvenIfServerFails(t *testing.T) {
	ctx := context.Background()
	tokens := newTokenStore(t)
	require.NoError(t, tokens.SaveSession(ctx, models.Session{AccessToken: "a", RefreshToken: "r", UserID: "u", Role: models.RoleDriver}))

	a := &fakeAuthAPI{logoutErr: api.ErrNetwork}
	vehicles, drivers := &fakeCache{}, &fakeCache{}
	responses := &fakeResponses{}
	svc := NewAuthService(a, tokens, responses, nil, vehicles, drivers)

	require.NoError(t, svc.Logout(ctx))
	assert.Equal(t, 1, a.logoutHits)
	assert.False(t, tokens.IsAuthenticated())
	assert.Equal(t, 1, vehicles.cleared)
	assert.Equal(t, 1, drivers.cleared)
	assert.Equal(t, 1, responses.cleared)
}

func TestAuthService_LogoutWhenLoggedOutSkipsServer(t *testing.T) {
	a := &fakeAuthAPI{}
	svc := NewAuthService(a, newTokenStore(t), nil, nil)

	require.NoError(t, svc.Logout(context.Background()))
	assert.Zero(t, a.logoutHits)
}

func TestAuthService_LogoutClearsLateRegistrations(t *testing.T) {
	vehicles, screen := &fakeCache{}, &fakeCache{}
	svc := NewAuthService(&fakeAuthAPI{}, newTokenStore(t), nil, nil, vehicles)
	svc.ClearOnLogout(screen)

	require.NoError(t, svc.Logout(context.Background()))
	assert.Equal(t, 1, vehicles.cleared)
	assert.Equal(t, 1, screen.cleared)
}
