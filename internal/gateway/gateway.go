package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"evsched/internal/api"
	"evsched/internal/calendar"
	"evsched/internal/config"
	"evsched/internal/hooks"
	"evsched/internal/schedule"
	"evsched/internal/store"
	"evsched/internal/suggest"
)

// LoadConfig reads .env, then the config file, then EVSCHED_* overrides.
func LoadConfig(path string) (config.Config, error) {
	// Load environment variables from .env if present
	_ = godotenv.Load()

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// App holds the wired services for one process.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Events    *schedule.EventService
	Tasks     *schedule.TaskService
	Dashboard *schedule.Dashboard
	Feed      *calendar.Feed
	Suggester suggest.Provider
	Hooks     *hooks.Chain

	closers []io.Closer
}

type Option func(*options)

type options struct {
	suggester suggest.Provider
}

// WithSuggester replaces the provider built from the config.
func WithSuggester(p suggest.Provider) Option {
	return func(o *options) { o.suggester = p }
}

// New opens storage and wires the services described by cfg.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	app := &App{Config: cfg, Logger: logger}

	var (
		events store.EventStore
		tasks  store.TaskStore
	)
	if cfg.Database == config.MemoryDatabase {
		events, tasks = store.NewMemoryEvents(), store.NewMemoryTasks()
		logger.Info("using in-memory store")
	} else {
		path, err := config.ExpandHome(cfg.Database)
		if err != nil {
			return nil, err
		}
		db, err := store.OpenSQL(path, logger)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, db)
		events, tasks = db.Events(), db.Tasks()
		logger.Info("using sqlite store", "path", path)
	}

	app.Hooks = hooks.NewChain(hooks.NewLogHook(logger))
	if cfg.AuditLog != "" {
		f, err := openAuditLog(cfg.AuditLog)
		if err != nil {
			// Audit is best effort; the service still runs without it.
			logger.Warn("audit log disabled", "path", cfg.AuditLog, "err", err)
		} else {
			app.closers = append(app.closers, f)
			app.Hooks.SetAuditWriter(f)
		}
	}

	app.Suggester = o.suggester
	if app.Suggester == nil {
		app.Suggester = suggest.New(cfg.SuggestConfig(), logger)
	}

	app.Events = schedule.NewEventService(events,
		schedule.WithSuggester(app.Suggester),
		schedule.WithSuggestTimeout(cfg.SuggestConfig().Timeout),
		schedule.WithHooks(app.Hooks),
		schedule.WithTaskStore(tasks),
		schedule.WithLogger(logger),
	)
	app.Tasks = schedule.NewTaskService(tasks, events, schedule.WithTaskLogger(logger))
	app.Dashboard = schedule.NewDashboard(app.Events, app.Tasks)
	app.Feed = calendar.NewFeed(app.Events, calendar.DefaultTTL, logger)
	app.Hooks.Use(hooks.NewInvalidateHook("calendar-feed", app.Feed.Invalidate))
	return app, nil
}

func openAuditLog(path string) (*os.File, error) {
	path, err := config.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// Server builds the HTTP API over the app's services.
func (a *App) Server() *api.Server {
	return api.NewServer(a.Config.Listen, api.Services{
		Events:    a.Events,
		Tasks:     a.Tasks,
		Dashboard: a.Dashboard,
		Feed:      a.Feed,
	}, api.WithLogger(a.Logger), api.WithCORSOrigins(a.Config.CORSOrigins...))
}

// Serve runs the HTTP API until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	return a.Server().Start(ctx)
}

// Close releases storage and the audit log in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
