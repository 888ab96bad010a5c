package github

import (
	"github.com/quilldesk/quilldesk/config"
	"github.com/quilldesk/quilldesk/services/logging"
	"github.com/quilldesk/quilldesk/services/user"
	"go.uber.org/fx"
)

func ProvideGithubService(cfg *config.Config, users *user.Service, logger *logging.Service) *Service {
	return NewService(&cfg.GitHub, users, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideGithubService),
)
