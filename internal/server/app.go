// Package server initializes and runs the sync backend: storage backends,
// HTTP API and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/trueheartapps/versesync/internal/logging"
	"github.com/trueheartapps/versesync/internal/server/config"
	"github.com/trueheartapps/versesync/internal/server/httpapi"
	"github.com/trueheartapps/versesync/internal/server/shared/db"
	"github.com/trueheartapps/versesync/internal/server/syncdata"
	"github.com/trueheartapps/versesync/internal/server/users"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	userService *users.Service
	syncService *syncdata.Service
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout)

	manager, err := newRepositoryManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := manager.RunMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	us := users.NewService(manager.Users(), manager.Sessions(), cfg)
	ss := syncdata.NewService(manager.Snapshots(), manager.Events())

	return &App{config: cfg, logger: logger, userService: us, syncService: ss}, nil
}

// newRepositoryManager picks storage per SnapshotBackend: postgres keeps
// everything in the database, s3 keeps snapshot blobs in object storage
// next to a postgres event log, memory runs without external services.
func newRepositoryManager(cfg *config.Config) (db.RepositoryManager, error) {
	switch cfg.SnapshotBackend {
	case "postgres":
		return db.NewPostgresRepositoryManager(cfg.DatabaseDSN, nil)
	case "s3":
		snapshots, err := syncdata.NewS3SnapshotStore(cfg)
		if err != nil {
			return nil, err
		}
		return db.NewPostgresRepositoryManager(cfg.DatabaseDSN, snapshots)
	case "memory":
		return db.NewInMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown snapshot backend: %s", cfg.SnapshotBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.New(app.config.EndpointAddr, app.logger, app.userService, app.syncService)

	if err := s.Run(ctx); err != nil {
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
}
