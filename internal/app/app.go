package app

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	msql "toggl-mirror/internal/adapter/mysql"
	tg "toggl-mirror/internal/adapter/toggl"
	"toggl-mirror/internal/config"
	"toggl-mirror/internal/migrate"
	"toggl-mirror/internal/usecase"
)

// ErrSyncRunning is returned when a sync is requested while another is active.
var ErrSyncRunning = errors.New("sync already running")

// App wires adapters and use cases.
type App struct {
	log     *slog.Logger
	uc      *usecase.SyncUseCase
	store   *msql.Store
	running atomic.Bool
}

func New(ctx context.Context, log *slog.Logger, cfg config.Config) (*App, error) {
	togglClient := tg.NewClient(cfg.Toggl.BaseURL, cfg.Toggl.APIToken, log)
	// Run migrations before opening the store for use
	if err := migrate.Run(ctx, cfg.MySQL.DSN, log); err != nil {
		return nil, err
	}
	store, err := msql.NewStore(ctx, cfg.MySQL.DSN, log)
	if err != nil {
		return nil, err
	}

	uc := &usecase.SyncUseCase{
		Log:   log,
		Toggl: togglClient,
		Store: store,
	}

	return &App{log: log, uc: uc, store: store}, nil
}

// RunOnce performs one mirror pass. Overlapping runs are rejected with
// ErrSyncRunning so a slow pass is never doubled by the ticker or HTTP trigger.
func (a *App) RunOnce(ctx context.Context, from, to time.Time) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrSyncRunning
	}
	defer a.running.Store(false)
	return a.uc.Run(ctx, from, to)
}

// Close releases the store connection.
func (a *App) Close() error { return a.store.Close() }
