package auth

import (
	"github.com/quilldesk/quilldesk/config"
	"github.com/quilldesk/quilldesk/services/cache"
	"github.com/quilldesk/quilldesk/services/device"
	"github.com/quilldesk/quilldesk/services/github"
	"github.com/quilldesk/quilldesk/services/logging"
	"github.com/quilldesk/quilldesk/services/mail"
	"github.com/quilldesk/quilldesk/services/token"
	"github.com/quilldesk/quilldesk/services/user"
	"go.uber.org/fx"
)

func ProvideAuthService(cfg *config.Config, users *user.Service, devices *device.Service, tokens *token.Service, store cache.Store, logger *logging.Service) *Service {
	return NewService(cfg, users, devices, tokens, store, logger)
}

type OptionalCollaborators struct {
	fx.In
	Exchanger *github.Service `optional:"true"`
	Mail      *mail.Service   `optional:"true"`
}

func WireCollaborators(svc *Service, opt OptionalCollaborators) {
	if opt.Exchanger != nil {
		svc.SetIdentityExchanger(opt.Exchanger)
	}
	if opt.Mail != nil {
		svc.SetMailSender(opt.Mail)
	}
}

var Module = fx.Options(
	fx.Provide(ProvideAuthService),
	fx.Invoke(WireCollaborators),
)
