package password

import (
	"github.com/quilldesk/quilldesk/config"
	"go.uber.org/fx"
)

func ProvidePasswordService(cfg *config.Config) *Service {
	return NewService(&cfg.Auth)
}

var Module = fx.Options(
	fx.Provide(ProvidePasswordService),
)
