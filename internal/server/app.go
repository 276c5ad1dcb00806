// Package server initializes and runs the secretbin server: it opens the
// database, applies migrations, wires the services, and serves the HTTP API
// until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mdemidovs/secretbin/internal/logging"
	"github.com/mdemidovs/secretbin/internal/server/config"
	"github.com/mdemidovs/secretbin/internal/server/httpapi"
	"github.com/mdemidovs/secretbin/internal/server/repositories/repomanager"
	"github.com/mdemidovs/secretbin/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	users   *services.UserService
	secrets *services.SecretService
	shares  *services.ShareService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	keys := services.NewKeyManager(db, rm, cfg, logger)

	return &App{
		config:  cfg,
		logger:  logger,
		db:      db,
		users:   services.NewUserService(db, rm, cfg),
		secrets: services.NewSecretService(db, rm, keys, logger),
		shares:  services.NewShareService(db, rm, keys, cfg, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	handler := httpapi.NewHandler(app.users, app.secrets, app.shares, app.config, app.logger)
	router := httpapi.NewRouter(handler, []byte(app.config.SecretKey), app.logger)
	srv := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, router, app.logger)

	if err := srv.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
