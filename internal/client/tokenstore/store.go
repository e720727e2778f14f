// Package tokenstore keeps the authenticated session: access and refresh
// tokens plus the user's id and role.
//
// Values live in the secure_kv table encrypted with AES-GCM under a key
// derived from a device secret and a per-database salt. Reads are served from
// memory; writes go to disk synchronously. A failed write leaves the store
// unauthenticated rather than half-written.
package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/weelo-captain/internal/client/models"
	"github.com/dmitrijs2005/weelo-captain/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/weelo-captain/internal/cryptox"
	"github.com/dmitrijs2005/weelo-captain/internal/dbx"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyUserID       = "user_id"
	keyUserRole     = "user_role"

	keySalt = "store_salt"
)

var sessionKeys = []string{keyAccessToken, keyRefreshToken, keyUserID, keyUserRole}

var ErrNotAuthenticated = errors.New("not authenticated")

type Store struct {
	db     *sql.DB
	secret []byte
	log    logging.Logger

	mu      sync.RWMutex
	key     []byte
	session models.Session
}

func New(db *sql.DB, deviceSecret string, log logging.Logger) *Store {
	return &Store{db: db, secret: []byte(deviceSecret), log: log}
}

// Load reads the persisted session into memory. Entries that cannot be
// decrypted (e.g. the device secret changed) are wiped and the store starts
// unauthenticated.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureKeyLocked(ctx); err != nil {
		return err
	}

	repo := metadata.NewSQLiteStore(s.db)
	sealed, err := repo.GetMany(ctx, sessionKeys...)
	if err != nil {
		return err
	}
	values := make(map[string]string, len(sealed))
	for k, v := range sealed {
		plain, err := cryptox.Open(v, s.key)
		if err != nil {
			s.log.Warn(ctx, "stored session unreadable, clearing", "key", k, "error", err)
			s.session = models.Session{}
			return repo.Delete(ctx, sessionKeys...)
		}
		values[k] = string(plain)
	}

	s.session = models.Session{
		AccessToken:  values[keyAccessToken],
		RefreshToken: values[keyRefreshToken],
		UserID:       values[keyUserID],
		Role:         models.Role(values[keyUserRole]),
	}
	return nil
}

// ensureKeyLocked derives the encryption key, creating the salt on first use.
func (s *Store) ensureKeyLocked(ctx context.Context) error {
	if s.key != nil {
		return nil
	}

	repo := metadata.NewSQLiteStore(s.db)
	salt, err := repo.Get(ctx, keySalt)
	if err != nil {
		return err
	}
	if salt == nil {
		if salt, err = cryptox.RandomBytes(cryptox.SaltSize); err != nil {
			return err
		}
		if err := repo.Set(ctx, keySalt, salt); err != nil {
			return err
		}
	}

	s.key = cryptox.DeriveKey(s.secret, salt)
	return nil
}

// SaveSession persists a complete session (login).
func (s *Store) SaveSession(ctx context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(ctx, session)
}

// UpdateTokens replaces the token pair and keeps the user identity (refresh).
func (s *Store) UpdateTokens(ctx context.Context, accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.session
	next.AccessToken = accessToken
	next.RefreshToken = refreshToken
	return s.writeLocked(ctx, next)
}

func (s *Store) writeLocked(ctx context.Context, session models.Session) error {
	err := s.persistLocked(ctx, session)
	if err != nil {
		s.log.Error(ctx, "session write failed, signing out locally", "error", err)
		s.session = models.Session{}
		return fmt.Errorf("save session: %w", err)
	}
	s.session = session
	return nil
}

func (s *Store) persistLocked(ctx context.Context, session models.Session) error {
	if err := s.ensureKeyLocked(ctx); err != nil {
		return err
	}

	values := map[string]string{
		keyAccessToken:  session.AccessToken,
		keyRefreshToken: session.RefreshToken,
		keyUserID:       session.UserID,
		keyUserRole:     string(session.Role),
	}

	sealed := make(map[string][]byte, len(values))
	for _, k := range sessionKeys {
		if values[k] == "" {
			sealed[k] = nil
			continue
		}
		v, err := cryptox.Seal([]byte(values[k]), s.key)
		if err != nil {
			return err
		}
		sealed[k] = v
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteStore(tx).Replace(ctx, sealed)
	})
}

// Clear forgets the session in memory and on disk (logout). Memory is cleared
// even when the disk delete fails.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = models.Session{}
	if err := metadata.NewSQLiteStore(s.db).Delete(ctx, sessionKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) Session() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Store) AccessToken() string  { return s.Session().AccessToken }
func (s *Store) RefreshToken() string { return s.Session().RefreshToken }
func (s *Store) UserID() string       { return s.Session().UserID }
func (s *Store) Role() models.Role    { return s.Session().Role }

// IsAuthenticated is false exactly when no access token is held.
func (s *Store) IsAuthenticated() bool {
	return s.Session().Authenticated()
}
