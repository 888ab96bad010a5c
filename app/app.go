package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quilldesk/quilldesk/config"
	"github.com/quilldesk/quilldesk/database"
	"github.com/quilldesk/quilldesk/handlers"
	"github.com/quilldesk/quilldesk/server"
	"github.com/quilldesk/quilldesk/services/auth"
	"github.com/quilldesk/quilldesk/services/cache"
	"github.com/quilldesk/quilldesk/services/device"
	"github.com/quilldesk/quilldesk/services/github"
	"github.com/quilldesk/quilldesk/services/logging"
	"github.com/quilldesk/quilldesk/services/mail"
	"github.com/quilldesk/quilldesk/services/password"
	"github.com/quilldesk/quilldesk/services/token"
	"github.com/quilldesk/quilldesk/services/user"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

type App struct {
	fx *fx.App
}

func New() *App {
	return &App{
		fx: fx.New(
			fx.Supply(database.WithModels(&user.User{}, &device.Session{})),
			fx.WithLogger(func(logger *logging.Service) fxevent.Logger {
				return &fxevent.ZapLogger{Logger: logger.Logger()}
			}),
			config.Module,
			logging.Module,
			database.Module,
			cache.Module,
			password.Module,
			token.Module,
			user.Module,
			device.Module,
			github.Module,
			mail.Module,
			auth.Module,
			server.Module,
			handlers.Module,
		),
	}
}

func (a *App) Run() {
	if err := a.fx.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.fx.Stop(ctx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
	}
}
