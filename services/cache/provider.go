package cache

import (
	"context"
	"time"

	"github.com/quilldesk/quilldesk/services/logging"
	"go.uber.org/fx"
)

func ProvideStore(logger *logging.Service) Store {
	return NewMemoryStore(logger)
}

func StartCleanupWorker(lc fx.Lifecycle, store Store) {
	memStore, ok := store.(*MemoryStore)
	if !ok {
		return
	}

	stop := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			memStore.StartCleanupWorker(time.Minute, stop)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(stop)
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(ProvideStore),
	fx.Invoke(StartCleanupWorker),
)
