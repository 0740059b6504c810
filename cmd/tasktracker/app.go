package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"task-tracker/internal/calendar"
	"task-tracker/internal/config"
	appErrors "task-tracker/internal/errors"
	"task-tracker/internal/logging"
	"task-tracker/internal/remote"
	"task-tracker/internal/repository"
	"task-tracker/internal/service"
)

// app is the wiring shared by every command.
type app struct {
	cfg        config.Config
	log        *logrus.Logger
	db         *gorm.DB
	tokens     *repository.TokenRepository
	remote     *remote.Client
	ix         *calendar.Indexer
	sessions   *service.SessionStore
	tasks      *service.TaskSyncCoordinator
	categories *service.CategoryService
}

func newApp(ctx context.Context, stderr io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logging.NewWithOutput(cfg.LogLevel, stderr)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	a := &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		tokens: repository.NewTokenRepository(db),
		remote: remote.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, log),
		ix:     calendar.NewIndexer(loc),
	}

	opts := service.CoordinatorOptions{
		ConfirmationTTL: cfg.ConfirmationTTL,
		Notifier: service.NotifierFunc(func(title, message string) {
			fmt.Fprintf(stderr, "%s: %s\n", title, message)
		}),
	}
	a.sessions = service.NewSessionStore(a.remote, a.tokens, cfg.SessionKey, log)
	a.tasks = service.NewTaskSyncCoordinator(a.remote, a.sessions, a.ix, log, opts)
	a.categories = service.NewCategoryService(a.remote, a.sessions, log, opts)

	if _, err := a.sessions.Restore(ctx); err != nil && !appErrors.IsAuth(err) {
		log.WithError(err).Warn("could not restore session")
	}
	return a, nil
}

// requireSession fails unless a validated session was restored.
func (a *app) requireSession() error {
	if !a.sessions.Current().Active() {
		return errors.New("not logged in, run: tasktracker login <email>")
	}
	return nil
}

func (a *app) Close() {
	if err := repository.Close(a.db); err != nil {
		a.log.WithError(err).Warn("close db")
	}
}

// withApp builds the app for one command run and closes it afterwards.
func withApp(ctx context.Context, stderr io.Writer, fn func(a *app) error) error {
	a, err := newApp(ctx, stderr)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
