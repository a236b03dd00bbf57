// Package bot wires the application together: configuration, logging,
// storage backend selection, services, and the Telegram update loop, with
// graceful shutdown on OS signals.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/fsubgate/internal/bot/config"
	"github.com/dmitrijs2005/fsubgate/internal/bot/services"
	"github.com/dmitrijs2005/fsubgate/internal/bot/storage"
	"github.com/dmitrijs2005/fsubgate/internal/bot/telegram"
	"github.com/dmitrijs2005/fsubgate/internal/logging"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   storage.Storage
	handler *telegram.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	store, err := storage.New(ctx, storage.Options{
		Backend:    cfg.StorageBackend,
		SQLitePath: cfg.SQLitePath,
		MongoURI:   cfg.MongoURI,
		MongoDB:    cfg.MongoDB,
	})
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	transport, err := telegram.NewTransport(cfg.BotToken, cfg.RequestTimeout, log)
	if err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("transport init error: %w", err)
	}

	gate := services.NewMembershipService(transport, cfg.ForceSubTargets, log)
	access := services.NewAccessService(store, gate, transport, cfg, log)
	handler := telegram.NewHandler(cfg, transport, access, log)

	return &App{config: cfg, logger: log, store: store, handler: handler}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run processes updates until the context is cancelled or a signal
// arrives, then closes the storage backend.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app",
		"backend", app.config.StorageBackend,
		"targets", len(app.config.ForceSubTargets))

	app.initSignalHandler(cancelFunc)

	err := app.handler.Run(ctx)

	if closeErr := app.store.Close(context.Background()); closeErr != nil {
		app.logger.Error(ctx, "storage close error", "error", closeErr.Error())
	}

	return err
}
