// Package di wires the service together. wire.go declares the injector;
// wire_gen.go is its generated implementation.
package di

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/th3rrry/minees/internal/broadcast"
	"github.com/th3rrry/minees/internal/config"
	"github.com/th3rrry/minees/internal/notifier"
	"github.com/th3rrry/minees/internal/scheduler"
	"github.com/th3rrry/minees/internal/server"
)

// App owns the long-running components.
type App struct {
	Config    *config.Config
	Log       zerolog.Logger
	Hub       *broadcast.Hub
	Scheduler *scheduler.Scheduler
	Server    *server.Server
	Telegram  *notifier.Telegram
	Commands  *notifier.Commands
}

func ProvideApp(cfg *config.Config, log zerolog.Logger, hub *broadcast.Hub, sched *scheduler.Scheduler, srv *server.Server, tg *notifier.Telegram, cmds *notifier.Commands) *App {
	return &App{Config: cfg, Log: log, Hub: hub, Scheduler: sched, Server: srv, Telegram: tg, Commands: cmds}
}

// Run starts every component and blocks until ctx is cancelled, then shuts
// them down in reverse order.
func (a *App) Run(ctx context.Context) error {
	hubDone := make(chan error, 1)
	go func() { hubDone <- a.Hub.Run(ctx) }()

	a.Server.Start()
	a.Scheduler.Start()

	if a.Telegram != nil && a.Config.Telegram.Polling {
		go a.Telegram.StartPolling(ctx, a.Commands.Handle)
		a.Log.Info().Msg("telegram polling started")
	}

	if a.Config.App.RunOnStart {
		a.Log.Info().Msg("running initial cycle for all groups")
		go a.Scheduler.RunAllNow()
	}

	a.Log.Info().Msg("minees is running")
	<-ctx.Done()

	a.Log.Info().Msg("shutdown signal received, stopping")
	a.Scheduler.Stop()
	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := a.Server.Stop(stopCtx)
	if hubErr := <-hubDone; hubErr != nil && err == nil {
		err = hubErr
	}
	return err
}
