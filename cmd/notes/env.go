package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"notes/internal/adapter/api"
	"notes/internal/adapter/file"
	"notes/internal/adapter/memory"
	"notes/internal/adapter/postgres"
	"notes/internal/adapter/redis"
	"notes/internal/app"
	"notes/internal/config"
	"notes/internal/domain"
	"notes/internal/logging"
)

var errLoginRequired = errors.New("not logged in: run `notes login`")

// env is the wired client for one command invocation.
type env struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *prometheus.Registry
	store    domain.StateStore
	client   *api.Client
	session  *app.SessionStore
	notes    *app.NotesService
	users    *app.UserService
	themes   *app.ThemeService

	closers []io.Closer
}

// newEnv loads configuration and wires store, request client, session and
// services.
func newEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
	if e.store, err = e.openStore(ctx); err != nil {
		e.Close()
		return nil, err
	}

	nav := api.NewPathNavigator("/", func(path string) {
		if path == api.LoginPath {
			warn("Session expired. Run `notes login` to sign in again.")
		}
	})
	e.client, err = api.New(cfg.APIURL, e.store,
		api.WithTimeout(cfg.RequestTimeout()),
		api.WithLogger(log.Named("api")),
		api.WithRegisterer(e.registry),
		api.WithNavigator(nav),
	)
	if err != nil {
		e.Close()
		return nil, err
	}

	e.session = app.NewSessionStore(e.client, e.client, e.store, log.Named("session"))
	e.client.SetListener(e.session)

	e.notes = app.NewNotesService(e.client)
	e.users = app.NewUserService(e.client, e.session)
	e.themes = app.NewThemeService(e.store, app.Theme(cfg.DefaultTheme))
	return e, nil
}

func (e *env) openStore(ctx context.Context) (domain.StateStore, error) {
	switch e.cfg.Store {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StorePostgres:
		db, err := postgres.Open(ctx, e.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		e.closers = append(e.closers, db)
		return db, nil
	case config.StoreRedis:
		s, err := redis.Open(ctx, e.cfg.RedisURL, e.log.Named("redis"))
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		e.closers = append(e.closers, s)
		return s, nil
	default:
		path := e.cfg.StateFile
		if path == "" {
			p, err := file.DefaultPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		return file.New(path, e.cfg.StatePassphrase), nil
	}
}

// requireSession restores the persisted session and fails when there is none.
func (e *env) requireSession(ctx context.Context) error {
	if e.session.Initialize(ctx) {
		return nil
	}
	if msg := e.session.Err(); msg != "" {
		return fmt.Errorf("%s: run `notes login`", msg)
	}
	return errLoginRequired
}

// Close releases stores and flushes the logger.
func (e *env) Close() {
	for _, c := range e.closers {
		_ = c.Close()
	}
	_ = e.log.Sync()
}

// withSession runs fn with a wired env whose session has been restored.
func withSession(ctx context.Context, fn func(e *env) error) error {
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.requireSession(ctx); err != nil {
		return err
	}
	return fn(e)
}

// withEnv runs fn with a wired env without touching the session.
func withEnv(ctx context.Context, fn func(e *env) error) error {
	e, err := newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(e)
}
