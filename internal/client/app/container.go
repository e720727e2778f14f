// Package app is the composition root of the captain client. Everything the
// screens use is built here once, in dependency order, and torn down by
// Close; nothing in the client is a package-level singleton.
package app

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/weelo-captain/internal/client/api"
	"github.com/dmitrijs2005/weelo-captain/internal/client/cache"
	"github.com/dmitrijs2005/weelo-captain/internal/client/config"
	"github.com/dmitrijs2005/weelo-captain/internal/client/connectivity"
	"github.com/dmitrijs2005/weelo-captain/internal/client/notifications"
	"github.com/dmitrijs2005/weelo-captain/internal/client/repositories/assignments"
	"github.com/dmitrijs2005/weelo-captain/internal/client/repositories/broadcasts"
	"github.com/dmitrijs2005/weelo-captain/internal/client/repositories/drivers"
	"github.com/dmitrijs2005/weelo-captain/internal/client/repositories/httpcache"
	"github.com/dmitrijs2005/weelo-captain/internal/client/repositories/vehicles"
	"github.com/dmitrijs2005/weelo-captain/internal/client/services"
	"github.com/dmitrijs2005/weelo-captain/internal/client/storage"
	"github.com/dmitrijs2005/weelo-captain/internal/client/tokenstore"
	"github.com/dmitrijs2005/weelo-captain/internal/client/transport"
	"github.com/dmitrijs2005/weelo-captain/internal/cryptox"
	"github.com/dmitrijs2005/weelo-captain/internal/filex"
	"github.com/dmitrijs2005/weelo-captain/internal/logging"
)

const (
	refreshTimeout = 15 * time.Second
	probeTimeout   = 3 * time.Second

	// responses older than this are useless even offline
	responseRetention = 7 * 24 * time.Hour
)

type Container struct {
	Config *config.Config
	Log    logging.Logger

	DB        *sql.DB
	Tokens    *tokenstore.Store
	Monitor   *connectivity.Monitor
	Pipeline  *transport.Pipeline
	Responses *httpcache.SQLiteCache
	API       *api.Client

	Vehicles    *vehicles.Repository
	Drivers     *drivers.Repository
	Broadcasts  *broadcasts.Repository
	Assignments *assignments.Repository

	Auth          *services.AuthService
	Tracking      *services.TrackingService
	Notifications *notifications.Router

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// deviceSecret keys the token encryption: the configured secret, else one
// generated on first run and kept beside the database, else (in-memory
// databases) a fresh one per process.
func deviceSecret(cfg *config.Config) (string, error) {
	if cfg.DeviceSecret != "" {
		return cfg.DeviceSecret, nil
	}
	if path := cfg.SecretFile(); path != "" {
		return filex.ReadOrCreateSecret(path)
	}
	raw, err := cryptox.RandomBytes(32)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// NewContainer opens the local database and wires the client together.
// presenter receives notifications that arrive while no screen listens; it
// may be nil. The connectivity monitor runs until Close.
func NewContainer(ctx context.Context, cfg *config.Config, log logging.Logger, presenter notifications.Presenter) (*Container, error) {
	if log == nil {
		log = logging.Nop()
	}
	c := &Container{Config: cfg, Log: log}

	db, err := storage.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	c.DB = db

	if err := c.build(ctx, presenter); err != nil {
		_ = db.Close()
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Monitor.Run(runCtx, cfg.OnlineCheckInterval)
	}()

	return c, nil
}

func (c *Container) build(ctx context.Context, presenter notifications.Presenter) error {
	cfg, log := c.Config, c.Log

	secret, err := deviceSecret(cfg)
	if err != nil {
		return fmt.Errorf("device secret: %w", err)
	}
	c.Tokens = tokenstore.New(c.DB, secret, log.With("component", "tokens"))
	if err := c.Tokens.Load(ctx); err != nil {
		return fmt.Errorf("load tokens: %w", err)
	}

	c.Responses = httpcache.NewSQLiteCache(c.DB, log.With("component", "http-cache"))
	if n, err := c.Responses.Prune(ctx, time.Now().Add(-responseRetention)); err != nil {
		log.Warn(ctx, "pruning response cache failed", "error", err)
	} else if n > 0 {
		log.Debug(ctx, "pruned response cache", "entries", n)
	}

	// the refresher and the monitor need the pipeline's pooled transport,
	// the pipeline needs both; they are bound once it exists
	var refreshAPI *api.AuthClient
	refresher := transport.RefreshFunc(func(ctx context.Context, rt string) (string, string, error) {
		p, err := refreshAPI.Refresh(ctx, rt)
		return p.AccessToken, p.RefreshToken, err
	})
	var monitor *connectivity.Monitor
	online := connectivity.CheckerFunc(func() bool { return monitor.Online() })

	pipeline, err := transport.NewPipeline(transport.Options{
		BaseURL:      cfg.BaseURL,
		Tokens:       c.Tokens,
		Refresher:    refresher,
		Connectivity: online,
		Cache:        c.Responses,
		Retry:        transport.RetryPolicy{MaxAttempts: cfg.Retry.MaxAttempts, BaseDelay: cfg.Retry.BaseDelay},
		CacheMaxAge:  cfg.HTTPCacheMaxAge,
		Timeout:      cfg.RequestTimeout,
		LogBodies:    !cfg.IsProduction(),
		PinnedKeys:   cfg.PinnedKeys,
		Pinning:      cfg.CertificatePinning,
		Logger:       log,
	})
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	c.Pipeline = pipeline

	bare, err := api.New(cfg.BaseURL, pipeline.BareClient(refreshTimeout))
	if err != nil {
		return err
	}
	refreshAPI = bare.Auth
	monitor = connectivity.NewMonitor(cfg.BaseURL, pipeline.BareClient(probeTimeout), log.With("component", "connectivity"))
	c.Monitor = monitor

	if c.API, err = api.New(cfg.BaseURL, pipeline.Client); err != nil {
		return err
	}

	c.buildRepositories()

	c.Auth = services.NewAuthService(c.API.Auth, c.Tokens, pipeline, log.With("component", "auth"),
		c.Vehicles, c.Drivers, c.Broadcasts, c.Assignments)
	c.Tracking = services.NewTrackingService(c.API.Tracking, cfg.LocationUpdateInterval, log.With("component", "tracking"))

	c.Notifications = notifications.NewRouter(presenter, log.With("component", "notifications"))
	c.Notifications.Invalidates(notifications.TypeNewBroadcast, c.Broadcasts)
	c.Notifications.Invalidates(notifications.TypeAssignmentUpdate, c.Assignments)
	c.Notifications.Invalidates(notifications.TypeTripUpdate, c.Assignments)
	return nil
}

func (c *Container) buildRepositories() {
	cfg, log := c.Config, c.Log

	c.Vehicles = vehicles.NewRepository(c.API.Vehicles, cfg.Cache.Vehicles, cache.SystemClock, log.With("repo", "vehicles"))
	c.Drivers = drivers.NewRepository(c.API.Drivers, cfg.Cache.Drivers, cache.SystemClock, log.With("repo", "drivers"))
	// assigning a driver changes the vehicle's assigned driver
	c.Drivers.InvalidatesVehicles(c.Vehicles)
	c.Assignments = assignments.NewRepository(c.API.Assignments, cfg.Cache.Assignments, cache.SystemClock, log.With("repo", "assignments"))
	c.Broadcasts = broadcasts.NewRepository(c.API.Broadcasts, cfg.Cache.Broadcasts, cache.SystemClock, log.With("repo", "broadcasts"), c.Assignments)
}

// Close stops background work and closes the database.
func (c *Container) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	var errs []error
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
