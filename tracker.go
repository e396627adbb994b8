// Package tracker assembles the data-completion and synchronization core
// of the at-risk student tracker: session guard, sync controller, record
// store, ingestion pipeline, destructive-operation guard, notification
// bus, and the read-side projections, all wired against the external
// risk collaborator API.
package tracker

import (
	"context"
	"fmt"

	"github.com/edurisk/atrisk-tracker/config"
	"github.com/edurisk/atrisk-tracker/internal/application/alerts"
	"github.com/edurisk/atrisk-tracker/internal/application/destructive"
	"github.com/edurisk/atrisk-tracker/internal/application/ingest"
	"github.com/edurisk/atrisk-tracker/internal/application/notify"
	"github.com/edurisk/atrisk-tracker/internal/application/query"
	"github.com/edurisk/atrisk-tracker/internal/application/session"
	"github.com/edurisk/atrisk-tracker/internal/application/syncer"
	"github.com/edurisk/atrisk-tracker/internal/infrastructure/external/trackerapi"
	"github.com/edurisk/atrisk-tracker/internal/infrastructure/messaging"
	"github.com/edurisk/atrisk-tracker/internal/infrastructure/persistence/redis"
	"github.com/edurisk/atrisk-tracker/internal/infrastructure/store"
	"github.com/edurisk/atrisk-tracker/pkg/logger"
)

// App is the assembled core. Construct it once per process with New and
// tear it down with Close.
type App struct {
	Config *config.Config
	Logger *logger.Logger

	Events        *messaging.EventBus
	Session       *session.Guard
	Store         *store.RecordStore
	Client        *trackerapi.Client
	Syncer        *syncer.Controller
	Notifications *notify.Bus
	Ingest        *ingest.Pipeline
	Destructive   *destructive.Guard
	Alerts        *alerts.Dispatcher
	Views         *query.Views

	cache *redis.Cache
}

// New wires the application graph from a validated config. The snapshot
// cache is optional: a missing or unreachable Redis degrades to cold
// starts, never to a construction failure.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("tracker: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tracker: invalid config: %w", err)
	}

	log := logger.New(logger.Options{
		Level:     logger.ParseLevel(cfg.Log.Level),
		AddCaller: cfg.App.Debug,
	})

	events := messaging.NewEventBus(log)
	sess := session.NewGuard(events, log)
	records := store.New(events, log)
	notifications := notify.NewBus(cfg.Notify.DefaultTTL, log)

	client := trackerapi.NewClient(trackerapi.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Tokens:  sess,
		Logger:  log,
		Debug:   cfg.App.Debug,
	})

	app := &App{
		Config:        cfg,
		Logger:        log,
		Events:        events,
		Session:       sess,
		Store:         records,
		Client:        client,
		Notifications: notifications,
	}

	var snapshots syncer.SnapshotCache
	if cfg.Redis.Enabled() {
		cache, err := redis.NewCache(redis.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.API.Timeout,
			ReadTimeout:  cfg.API.Timeout,
			WriteTimeout: cfg.API.Timeout,
		})
		if err != nil {
			log.Warn("snapshot cache unavailable, continuing without warm starts", logger.Err(err))
		} else {
			app.cache = cache
			snapshots = redis.NewSnapshotStore(cache, cfg.Redis.SnapshotTTL)
		}
	}

	gate := syncer.NewRouteGate(cfg.Sync.AllowedRoutes)
	app.Syncer = syncer.NewController(client, records, sess, gate, notifications, snapshots, syncer.Config{
		DebounceWindow: cfg.Sync.DebounceWindow,
		FetchTimeout:   cfg.API.Timeout,
	}, log)

	app.Ingest = ingest.NewPipeline(client, records, app.Syncer, notifications, events, log)
	app.Destructive = destructive.NewGuard(client, records, app.Syncer, notifications, events, log)
	app.Alerts = alerts.NewDispatcher(client, notifications, events, log)
	app.Views = query.NewViews(records)

	// Session teardown wipes local state; nothing survives a logout.
	sess.OnTeardown(func() {
		records.Clear("logout")
	})

	return app, nil
}

// Load builds the app from environment configuration.
func Load() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// Login installs the session token, hydrates from the last snapshot, and
// kicks off the first refresh.
func (a *App) Login(ctx context.Context, token string) error {
	if err := a.Session.SetSession(token); err != nil {
		return err
	}
	a.Syncer.Hydrate(ctx)
	a.Syncer.RefreshData()
	return nil
}

// Logout ends the session; registered teardown clears the local store.
func (a *App) Logout() {
	a.Session.Clear()
}

// Close stops background work and releases connections.
func (a *App) Close() error {
	a.Syncer.Stop()
	a.Notifications.Close()
	a.Events.Close()
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}
