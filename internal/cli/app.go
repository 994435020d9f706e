package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/forge"
	"github.com/aretw0/forge/internal/config"
	"github.com/aretw0/forge/internal/logging"
	"github.com/aretw0/forge/pkg/adapters/file"
	httpAdapter "github.com/aretw0/forge/pkg/adapters/http"
	loamAdapter "github.com/aretw0/forge/pkg/adapters/loam"
	"github.com/aretw0/forge/pkg/adapters/memory"
	"github.com/aretw0/forge/pkg/adapters/redis"
	"github.com/aretw0/forge/pkg/domain"
	"github.com/aretw0/forge/pkg/persistence/middleware"
	"github.com/aretw0/forge/pkg/ports"
	"github.com/aretw0/forge/pkg/session"
)

// App holds the components every command builds from configuration.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Engine      *forge.Engine
	Store       ports.ProjectStore
	Sessions    *session.Manager
	Streams     *httpAdapter.StreamManager
	Metrics     *httpAdapter.Metrics
	Hooks       domain.LifecycleHooks
	Transcripts ports.TranscriptStore

	closers []func() error
}

// NewApp wires the engine, store chain, locker and transcript archive.
// Debug forces debug logging and per-event hook logs.
// Callers must Close the returned App.
func NewApp(cfg *config.Config, debug bool) (*App, error) {
	app := &App{Config: cfg}

	logger, err := app.createLogger(debug)
	if err != nil {
		return nil, err
	}
	app.Logger = logger

	app.Metrics = httpAdapter.NewMetrics()
	app.Streams = httpAdapter.NewStreamManager(logger)
	app.Hooks = app.Metrics.Hooks()
	if debug {
		app.Hooks = chainHooks(app.Hooks, createDebugHooks(logger))
	}
	app.Engine = createEngine(cfg, logger, app.Hooks)

	store, locker, err := app.createStore()
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	sessionOpts := []session.Option{
		session.WithEngine(app.Engine),
		session.WithLogger(logger),
		session.WithObserver(app.Streams.Observe),
	}
	if locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(locker))
	}

	if dir := cfg.Transcripts.Dir; dir != "" {
		transcripts, err := loamAdapter.Open(dir)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Transcripts = transcripts
		sessionOpts = append(sessionOpts, session.WithTranscripts(transcripts))
	}

	app.Sessions = session.NewManager(store, sessionOpts...)
	return app, nil
}

// Close releases files and connections opened by NewApp, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// createLogger configures the application logger.
// It writes to Stderr (to separate from Stdout command output) and, when
// log.file is set, appends JSON records to that file.
func (a *App) createLogger(debug bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(a.Config.Log.Level)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}

	path := a.Config.Log.File
	if path == "" {
		return logging.New(level), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	a.closers = append(a.closers, f.Close)
	return logging.NewWithFile(level, f), nil
}

// createEngine initializes a Forge engine with standard CLI conventions.
func createEngine(cfg *config.Config, logger *slog.Logger, hooks domain.LifecycleHooks) *forge.Engine {
	return forge.New(
		forge.WithLogger(logger),
		forge.WithLifecycleHooks(hooks),
		forge.WithCompletionPolicy(cfg.Policy()),
	)
}

// createStore builds the configured backend and wraps it with redaction and
// encryption when configured. Redis also provides the distributed locker.
func (a *App) createStore() (ports.ProjectStore, ports.DistributedLocker, error) {
	cfg := a.Config
	var store ports.ProjectStore
	var locker ports.DistributedLocker

	switch cfg.Store.Kind {
	case config.StoreMemory:
		store = memory.NewStore()
	case config.StoreFile:
		store = file.New(cfg.Store.Dir)
	case config.StoreRedis:
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		a.closers = append(a.closers, rs.Close)
		store = rs
		locker = redis.NewLocker(rs.Client(), cfg.Redis.Prefix)
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}

	var mws []middleware.Middleware
	if len(cfg.Store.Redact) > 0 {
		mws = append(mws, middleware.NewRedactionMiddleware(cfg.Store.Redact))
	}
	if cfg.Store.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.Store.EncryptionKey)
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}

	return middleware.Chain(store, mws...), locker, nil
}
