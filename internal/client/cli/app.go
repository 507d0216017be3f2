package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/trueheartapps/versesync/internal/client/autosync"
	"github.com/trueheartapps/versesync/internal/client/config"
	"github.com/trueheartapps/versesync/internal/client/reconcile"
	"github.com/trueheartapps/versesync/internal/client/remote"
	"github.com/trueheartapps/versesync/internal/client/services"
	"github.com/trueheartapps/versesync/internal/client/storage"
	"github.com/trueheartapps/versesync/internal/common"
	"github.com/trueheartapps/versesync/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config      *config.Config
	repos       *storage.Repositories
	authService services.AuthService
	annotations services.AnnotationService
	syncService *services.SyncService
	orch        *autosync.Orchestrator
	logger      logging.Logger
	reader      *bufio.Reader
	loggedIn    bool
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	logger := logging.NewJSON(os.Stderr)

	repos, err := storage.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient := remote.NewHTTPClient(c.ServerEndpointURL, c.AppID)

	engine := reconcile.NewEngine()
	engine.Retention = c.TombstoneRetention

	syncService := services.NewSyncService(repos, apiClient, engine, logger)
	orch := autosync.New(syncService, logger, c.PollInterval, c.SyncDebounce)

	app := &App{
		config:      c,
		repos:       repos,
		authService: services.NewAuthService(apiClient, repos),
		annotations: services.NewAnnotationService(repos, func() { orch.ScheduleSync("edit") }),
		syncService: syncService,
		orch:        orch,
		logger:      logger,
		reader:      bufio.NewReader(os.Stdin),
	}
	return app, nil
}

// Run restores a persisted session if one exists, starts the background
// sync loop, and hands control to the REPL. Quitting flushes one last
// round so nothing edited in this session stays local-only.
func (a *App) Run(ctx context.Context) {
	if _, err := a.authService.Restore(ctx); err == nil {
		a.loggedIn = true
	} else if !errors.Is(err, common.ErrorUnauthorized) {
		a.logger.Warn(ctx, "could not restore session", "error", err)
	}

	a.orch.Start(ctx)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)

	if a.loggedIn {
		if _, err := a.orch.ImmediateSync(ctx, "exit"); err != nil {
			a.logger.Warn(ctx, "final sync failed, changes remain local", "error", err)
		}
	}
	a.orch.Stop()
	_ = a.repos.Close()
}

func (a *App) isLoggedIn() bool {
	return a.loggedIn
}

func (a *App) status() string {
	if !a.loggedIn {
		return "offline"
	}
	return string(a.orch.State())
}
