// Package server initializes and runs the gophauth server.
// It opens the credential store and token ledger, seeds the bootstrap
// administrator, starts the HTTP API and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/httpserver"
	"github.com/dmitrijs2005/gophauth/internal/server/ledger"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/tracing"
	"github.com/redis/go-redis/v9"
)

const serviceName = "gophauth"

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	rdb     *redis.Client
	server  *httpserver.HTTPServer
	tracing func(context.Context) error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.NewLogger(c.LogLevel, c.LogFormat, os.Stdout)
	app := &App{config: c, logger: logger}

	shutdownTracing, err := tracing.Setup(ctx, serviceName, c.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("tracing init error: %w", err)
	}
	app.tracing = shutdownTracing

	db, repos, err := repomanager.Open(ctx, c.DatabaseDriver, c.DatabaseDSN, dbx.PoolOptions{})
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	if err := repos.RunMigrations(ctx, db); err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	l, err := app.newLedger(ctx, db, repos)
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("ledger init error: %w", err)
	}

	codec, err := auth.NewCodec(auth.CodecConfig{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
		AccessTTL:     c.AccessTokenValidityDuration,
		RefreshTTL:    c.RefreshTokenValidityDuration,
	})
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("token codec error: %w", err)
	}

	hasher := auth.NewBcryptHasher(c.BcryptCost)

	as := services.NewAuthService(db, repos, l, codec, hasher, logger, services.AuthOptions{
		SingleActiveSession: c.SingleActiveSession,
	})
	guard := services.NewAccessGuard(db, repos, l, codec)
	us := services.NewUserService(db, repos, hasher, logger)

	if err := us.SeedAdmin(ctx, services.SeedConfig{
		Enabled:  c.SeedAdmin,
		Username: c.AdminUsername,
		Password: c.AdminPassword,
		Email:    c.AdminEmail,
	}); err != nil {
		app.Close(ctx)
		return nil, err
	}

	app.server = httpserver.NewHTTPServer(httpserver.Options{
		Address:              c.HTTPAddr,
		AdminOnlyUserListing: c.AdminOnlyUserListing,
		ShutdownTimeout:      c.ShutdownTimeout,
	}, logger, as, guard, us, db)

	return app, nil
}

func (app *App) newLedger(ctx context.Context, db *sql.DB, repos repomanager.RepositoryManager) (ledger.Ledger, error) {
	if app.config.LedgerBackend != config.LedgerRedis {
		return ledger.NewSQLLedger(db, repos), nil
	}

	opts, err := redis.ParseURL(app.config.RedisURL)
	if err != nil {
		return nil, err
	}

	app.rdb = redis.NewClient(opts)
	if err := app.rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return ledger.NewRedisLedger(app.rdb, ledger.RedisOptions{
		Retention: app.config.RefreshTokenValidityDuration,
	}), nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases every resource opened by NewApp.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(ctx, "Stopping app...")
	return errors.Join(runErr, app.Close(context.WithoutCancel(ctx)))
}

// Close releases the store, the Redis client and the tracer provider.
func (app *App) Close(ctx context.Context) error {
	var errs []error

	if app.rdb != nil {
		errs = append(errs, app.rdb.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if app.tracing != nil {
		errs = append(errs, app.tracing(ctx))
	}

	return errors.Join(errs...)
}
