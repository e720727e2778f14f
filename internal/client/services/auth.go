// Package services contains the application services of the captain client.
// This file defines the authentication service: OTP login, session
// inspection and the teardown performed on logout.
package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
	"github.com/dmitrijs2005/weelo-captain/internal/client/tokenstore"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

// logoutTimeout bounds the server call made on logout; the local teardown
// happens whatever the server says.
const logoutTimeout = 5 * time.Second

// AuthAPI is the subset of the auth endpoints the service needs.
type AuthAPI interface {
	SendOTP(ctx context.Context, phone string, role models.Role) error
	VerifyOTP(ctx context.Context, phone, otp string, role models.Role) (models.Session, error)
	Logout(ctx context.Context) error
}

// SessionStore persists the token record.
type SessionStore interface {
	SaveSession(ctx context.Context, s models.Session) error
	Clear(ctx context.Context) error
	Session() models.Session
	IsAuthenticated() bool
}

// Clearer is anything holding per-user data that must go on logout.
type Clearer interface {
	Clear()
}

// ResponseCache is the on-disk HTTP cache.
type ResponseCache interface {
	ClearCache(ctx context.Context) error
}

type AuthService struct {
	api       AuthAPI
	tokens    SessionStore
	responses ResponseCache
	log       logging.Logger

	mu     sync.Mutex
	caches []Clearer
}

// NewAuthService binds the service to the auth API and the token store.
// Every cache passed is cleared on logout.
func NewAuthService(api AuthAPI, tokens SessionStore, responses ResponseCache, log logging.Logger, caches ...Clearer) *AuthService {
	if log == nil {
		log = logging.Nop()
	}
	return &AuthService{api: api, tokens: tokens, responses: responses, caches: caches, log: log}
}

// ClearOnLogout adds state built on top of the service, such as a screen's
// last list, to what Logout wipes.
func (a *AuthService) ClearOnLogout(caches ...Clearer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.caches = append(a.caches, caches...)
}

func (a *AuthService) SendOTP(ctx context.Context, phone string, role models.Role) error {
	if err := a.api.SendOTP(ctx, phone, role); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}

// VerifyOTP exchanges the code for a session and stores it. A session the
// store could not persist is reported as a failed login.
func (a *AuthService) VerifyOTP(ctx context.Context, phone, otp string, role models.Role) (models.Session, error) {
	s, err := a.api.VerifyOTP(ctx, phone, otp, role)
	if err != nil {
		return models.Session{}, fmt.Errorf("verify otp: %w", err)
	}
	if err := a.tokens.SaveSession(ctx, s); err != nil {
		return models.Session{}, err
	}
	a.log.Info(ctx, "logged in", "user", s.UserID, "role", s.Role)
	return s, nil
}

// Logout tells the server (best effort) and then wipes every piece of local
// user state: tokens, cached collections and cached responses.
func (a *AuthService) Logout(ctx context.Context) error {
	if a.tokens.IsAuthenticated() {
		sctx, cancel := context.WithTimeout(ctx, logoutTimeout)
		if err := a.api.Logout(sctx); err != nil {
			a.log.Warn(ctx, "server logout failed, clearing local session anyway", "error", err)
		}
		cancel()
	}

	var errs []error
	if err := a.tokens.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	a.mu.Lock()
	caches := slices.Clone(a.caches)
	a.mu.Unlock()
	for _, c := range caches {
		c.Clear()
	}
	if a.responses != nil {
		if err := a.responses.ClearCache(ctx); err != nil {
			errs = append(errs, fmt.Errorf("clear response cache: %w", err))
		}
	}

	a.log.Info(ctx, "logged out")
	return errors.Join(errs...)
}

func (a *AuthService) CurrentSession() models.Session {
	return a.tokens.Session()
}

// SessionInfo decodes the current access token.
func (a *AuthService) SessionInfo() (tokenstore.Claims, error) {
	s := a.tokens.Session()
	if !s.Authenticated() {
		return tokenstore.Claims{}, tokenstore.ErrNotAuthenticated
	}
	return tokenstore.ParseClaims(s.AccessToken)
}
