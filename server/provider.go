package server

import (
	"context"

	"github.com/quilldesk/quilldesk/config"
	"github.com/quilldesk/quilldesk/services/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func ProvideServer(cfg *config.Config) *Server {
	return New(cfg)
}

func StartServer(lc fx.Lifecycle, srv *Server, cfg *config.Config, logger *logging.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if logger != nil {
					logger.Info("starting server",
						zap.String("host", cfg.Server.Host),
						zap.String("port", cfg.Server.Port))
				}
				if err := srv.Start(); err != nil {
					if logger != nil {
						logger.Error("server stopped unexpectedly", zap.Error(err))
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(ProvideServer),
	fx.Invoke(StartServer),
)
