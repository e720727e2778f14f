package devserver

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
)

type ctxKey struct{}

// principal is the authenticated caller.
type principal struct {
	UserID string
	Role   string
	Phone  string
}

func caller(r *http.Request) principal {
	p, _ := r.Context().Value(ctxKey{}).(principal)
	return p
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			return
		}

		claims, err := ParseToken(token, []byte(s.cfg.SecretKey))
		if err != nil {
			code := "INVALID_TOKEN"
			if errors.Is(err, ErrTokenExpired) {
				code = "TOKEN_EXPIRED"
			}
			writeError(w, http.StatusUnauthorized, code, err.Error())
			return
		}

		s.mu.Lock()
		gen := s.generation
		s.mu.Unlock()
		if claims.Generation < gen {
			writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", ErrTokenExpired.Error())
			return
		}

		p := principal{UserID: claims.Subject, Role: claims.Role, Phone: claims.Phone}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, p)))
	})
}

func (s *Server) requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if caller(r).Role != role {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "only a "+role+" can do this")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type recorded struct {
	status int
	body   []byte
}

// idempotent replays the stored response of a mutation whose
// Idempotency-Key was already seen.
func (s *Server) idempotent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(api.HeaderIdempotencyKey)
		if key == "" || r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		s.mu.Lock()
		prev, seen := s.idem[key]
		s.mu.Unlock()
		if seen {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(prev.status)
			_, _ = w.Write(prev.body)
			return
		}

		var buf bytes.Buffer
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Tee(&buf)
		next.ServeHTTP(ww, r)

		if ww.Status() < http.StatusInternalServerError {
			s.mu.Lock()
			s.idem[key] = recorded{status: ww.Status(), body: buf.Bytes()}
			s.mu.Unlock()
		}
	})
}
