// Package devserver is an in-memory implementation of the Weelo backend REST
// surface for local development and end-to-end tests. It speaks the same
// {success, data|error, message} envelope, issues HS256 tokens and accepts a
// fixed OTP. Nothing is persisted.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

const shutdownTimeout = 5 * time.Second

type fault struct {
	status    int
	remaining int
}

type Server struct {
	cfg *Config
	log logging.Logger

	mu         sync.Mutex
	data       *data
	last       time.Time
	generation int
	faults     map[string]*fault
	idem       map[string]recorded
	hits       map[string]int
}

func New(cfg *Config, log logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	s := &Server{
		cfg:    cfg,
		log:    log,
		data:   newData(),
		faults: make(map[string]*fault),
		idem:   make(map[string]recorded),
		hits:   make(map[string]int),
	}
	if cfg.Seed {
		s.data.seed(s.now())
	}
	return s
}

// now returns strictly increasing timestamps so creation order is stable.
// Callers hold s.mu.
func (s *Server) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// FailNext makes the next n requests to path (relative to the API prefix)
// fail with status. Status 0 drops the connection without a response.
func (s *Server) FailNext(path string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[path] = &fault{status: status, remaining: n}
}

// ExpireAccessTokens invalidates every access token issued so far. Refresh
// tokens keep working.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// Hits reports how many requests reached path, faults included.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	health := func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"status": "ok"})
	}
	r.Get("/health", health)

	r.Route(s.cfg.Prefix, func(r chi.Router) {
		r.Use(s.injectFaults)
		r.Use(s.idempotent)
		r.Get("/health", health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/send-otp", s.sendOTP)
			r.Post("/verify-otp", s.verifyOTP)
			r.Post("/refresh", s.refresh)
			r.With(s.requireAuth).Post("/logout", s.logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/vehicles", func(r chi.Router) {
				r.Use(s.requireRole("transporter"))
				r.Get("/", s.listVehicles)
				r.Post("/", s.createVehicle)
				r.Get("/{id}", s.getVehicle)
				r.Put("/{id}", s.updateVehicle)
				r.Patch("/{id}/status", s.updateVehicleStatus)
				r.Delete("/{id}", s.deleteVehicle)
			})

			r.Route("/drivers", func(r chi.Router) {
				r.Use(s.requireRole("transporter"))
				r.Get("/", s.listDrivers)
				r.Post("/", s.createDriver)
				r.Put("/{id}", s.updateDriver)
				r.Delete("/{id}", s.deleteDriver)
				r.Post("/{id}/assign-vehicle", s.assignVehicle)
			})

			r.Route("/broadcasts", func(r chi.Router) {
				r.Get("/active", s.listBroadcasts)
				r.Get("/{id}", s.getBroadcast)
				r.With(s.requireRole("transporter")).Post("/{id}/accept", s.acceptBroadcast)
				r.Post("/{id}/decline", s.declineBroadcast)
			})

			r.Route("/assignments", func(r chi.Router) {
				r.Get("/", s.listAssignments)
				r.With(s.requireRole("transporter")).Post("/", s.createAssignment)
				r.Post("/{id}/respond", s.respondAssignment)
				r.Post("/{id}/cancel", s.cancelAssignment)
			})

			r.Route("/trips", func(r chi.Router) {
				r.Get("/", s.listTrips)
				r.Get("/{id}", s.getTrip)
				r.Patch("/{id}/status", s.updateTripStatus)
			})

			r.Post("/tracking/location", s.updateLocation)
			r.Get("/tracking/trips/{id}/location", s.getLocation)
			r.Post("/devices/push-token", s.registerDevice)
		})
	})

	return r
}

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "dev backend listening", "addr", s.cfg.Addr, "prefix", s.cfg.Prefix)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, s.cfg.Prefix)

		s.mu.Lock()
		s.hits[path]++
		f := s.faults[path]
		var status int
		fire := f != nil && f.remaining > 0
		if fire {
			f.remaining--
			status = f.status
		}
		s.mu.Unlock()

		if !fire {
			next.ServeHTTP(w, r)
			return
		}
		if status == 0 {
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					_ = conn.Close()
					return
				}
			}
			status = http.StatusBadGateway
		}
		writeError(w, status, "INJECTED_FAULT", http.StatusText(status))
	})
}

func writeData(w http.ResponseWriter, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	writeEnvelope(w, status, api.Envelope{Success: true, Data: raw})
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeEnvelope(w, status, api.Envelope{
		Success: false,
		Error:   &api.ErrorBody{Code: code, Message: msg, StatusCode: status},
		Message: msg,
	})
}

func writeEnvelope(w http.ResponseWriter, status int, env api.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return false
	}
	return true
}
