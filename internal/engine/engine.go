package engine

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/eventsphere/eventsphere/internal/cache"
	"github.com/eventsphere/eventsphere/internal/config"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/gravatar"
	"github.com/eventsphere/eventsphere/internal/notify/ntfy"
	"github.com/eventsphere/eventsphere/internal/notify/webpush"
	"github.com/eventsphere/eventsphere/internal/scheduler"
)

// Broadcaster fans realtime messages out to connected clients.
type Broadcaster interface {
	Broadcast(msg any, excludeID string) error
}

// Engine holds the business logic of EventSphere: RSVPs, moderation, announcements,
// accounts and the maintenance jobs.
type Engine struct {
	cfg       *config.Config
	db        database.DB
	hub       Broadcaster
	cache     *cache.AppCache
	ntfy      *ntfy.Client
	webpush   *webpush.Client
	scheduler *scheduler.Scheduler
}

// New creates a new Engine instance.
func New(cfg *config.Config, db database.DB, hub Broadcaster, appCache *cache.AppCache) (*Engine, error) {
	sched, err := scheduler.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	if err := gravatar.ValidateConfig(cfg.Gravatar); err != nil {
		return nil, err
	}

	var ntfyClient *ntfy.Client
	if cfg.Ntfy != nil && cfg.Ntfy.Enabled {
		ntfyClient = ntfy.NewClient(cfg.Ntfy)
	}

	var webpushClient *webpush.Client
	if cfg.WebPush != nil && cfg.WebPush.Enabled {
		webpushClient = webpush.NewClient(cfg.WebPush)
		if err := webpushClient.ValidateConfig(); err != nil {
			return nil, fmt.Errorf("invalid webpush configuration: %w", err)
		}
	}

	engine := &Engine{
		cfg:       cfg,
		db:        db,
		hub:       hub,
		cache:     appCache,
		ntfy:      ntfyClient,
		webpush:   webpushClient,
		scheduler: sched,
	}

	if err := engine.setupJobs(); err != nil {
		return nil, fmt.Errorf("failed to setup jobs: %w", err)
	}

	return engine, nil
}

// Init seeds the default settings and the bootstrap administrator.
func (e *Engine) Init(ctx context.Context) error {
	if err := e.db.EnsureSettings(ctx, database.DefaultSettings); err != nil {
		return fmt.Errorf("failed to seed default settings: %w", err)
	}
	if err := e.ensureAdmin(ctx); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}
	return nil
}

// GetScheduler returns the scheduler instance for API access.
func (e *Engine) GetScheduler() *scheduler.Scheduler {
	return e.scheduler
}

// WebPush returns the webpush client, or nil when Web Push is disabled.
func (e *Engine) WebPush() *webpush.Client {
	return e.webpush
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.scheduler.Start()
	<-ctx.Done()
	return nil
}

// Close stops the engine and cleans up resources.
func (e *Engine) Close() error {
	return e.scheduler.Stop()
}

func (e *Engine) broadcast(msg any) {
	if e.hub == nil {
		return
	}
	if err := e.hub.Broadcast(msg, ""); err != nil {
		log.Error("failed to broadcast realtime message", "error", err)
	}
}
