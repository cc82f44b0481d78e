package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/estimatekeeper/internal/client/autosync"
	"github.com/dmitrijs2005/estimatekeeper/internal/client/client"
	"github.com/dmitrijs2005/estimatekeeper/internal/client/config"
	"github.com/dmitrijs2005/estimatekeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/estimatekeeper/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/estimatekeeper/internal/client/services"
	"github.com/dmitrijs2005/estimatekeeper/internal/client/store"
	"github.com/dmitrijs2005/estimatekeeper/internal/logging"
	"github.com/google/uuid"
)

// App wires the client components for one command invocation.
type App struct {
	cfg    *config.Config
	logger logging.Logger
	closer io.Closer

	store  *store.Store
	remote client.Client

	Customers *services.CustomerService
	Estimates *services.EstimateService
	Photos    *services.PhotoService
	Catalog   *services.CatalogService
	Sync      *services.SyncService
	Bootstrap *services.BootstrapService
	Media     *services.MediaService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, closer := logging.Setup(logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
	})

	st := store.New(cfg.DBPath, logger)
	db, err := st.OpenAndInit(ctx)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	deviceID, err := ensureDeviceID(ctx, repomanager.Manager{}.Metadata(db))
	if err != nil {
		_ = st.Close()
		_ = closer.Close()
		return nil, err
	}

	remote, err := client.NewGRPCClient(cfg.ServerAddr, deviceID, cfg.UserID)
	if err != nil {
		_ = st.Close()
		_ = closer.Close()
		return nil, err
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		closer:    closer,
		store:     st,
		remote:    remote,
		Customers: services.NewCustomerService(st),
		Estimates: services.NewEstimateService(st),
		Photos:    services.NewPhotoService(st, cfg.MediaDir),
		Catalog:   services.NewCatalogService(st),
		Sync:      services.NewSyncService(st, remote, logger),
		Bootstrap: services.NewBootstrapService(st, remote, logger),
		Media:     services.NewMediaService(st, remote, nil, cfg.MediaDir, logger),
	}, nil
}

// Runner returns the background sync runner for the run command.
func (a *App) Runner() *autosync.Runner {
	return autosync.New(autosync.Options{
		UserID:              a.cfg.UserID,
		SyncInterval:        a.cfg.SyncInterval,
		OnlineCheckInterval: a.cfg.OnlineCheckInterval,
		BootstrapAttempts:   a.cfg.BootstrapAttempts,
	}, a.Sync, a.Bootstrap, a.Media, a.remote, a.logger)
}

func (a *App) UserID() (string, error) {
	if a.cfg.UserID == "" {
		return "", fmt.Errorf("no user id configured, pass --user or set user_id in the config file")
	}
	return a.cfg.UserID, nil
}

func (a *App) Close() error {
	_ = a.remote.Close()
	err := a.store.Close()
	_ = a.closer.Close()
	return err
}

func ensureDeviceID(ctx context.Context, meta metadata.Repository) (string, error) {
	id, ok, err := meta.Get(ctx, metadata.KeyDeviceID)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := meta.Put(ctx, map[metadata.Key]string{metadata.KeyDeviceID: id}); err != nil {
		return "", err
	}
	return id, nil
}
