// Package server wires the remote store: PostgreSQL rows, S3 presigning
// and the gRPC endpoint, with graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/estimatekeeper/internal/logging"
	"github.com/dmitrijs2005/estimatekeeper/internal/server/config"
	"github.com/dmitrijs2005/estimatekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/estimatekeeper/internal/server/services"

	gs "github.com/dmitrijs2005/estimatekeeper/internal/server/grpc"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	logCloser io.Closer
	db        *sql.DB
	store     *services.StoreService
	media     *services.MediaService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, closer := logging.Setup(logging.Options{Level: c.LogLevel, JSON: true})

	rm := repomanager.NewPostgresRepositoryManager()
	db, err := repomanager.Open(ctx, c.DatabaseDSN, rm)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	media, err := services.NewMediaService(ctx, c)
	if err != nil {
		_ = db.Close()
		_ = closer.Close()
		return nil, fmt.Errorf("media init error: %w", err)
	}

	return &App{
		config:    c,
		logger:    logger,
		logCloser: closer,
		db:        db,
		store:     services.NewStoreService(db, rm, logger),
		media:     media,
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
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

// Run serves until ctx is cancelled or a shutdown signal arrives, then
// releases the database and the log file.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	defer app.logCloser.Close()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(ctx, cancelFunc)

	s := gs.NewGRPCServer(app.config.ListenAddr, app.logger, app.store, app.media, gs.RateLimit{
		PerSecond: app.config.RateLimit,
		Burst:     app.config.RateBurst,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		return err
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}
