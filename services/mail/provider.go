package mail

import (
	"github.com/quilldesk/quilldesk/config"
	"github.com/quilldesk/quilldesk/services/logging"
	"go.uber.org/fx"
)

func ProvideMailService(cfg *config.Config, logger *logging.Service) (*Service, error) {
	if cfg.Mail.FromAddress == "" {
		if logger != nil {
			logger.Warn("mail service disabled: QD_MAIL_FROM_ADDRESS not set")
		}
		return nil, nil
	}
	return NewService(&cfg.Mail, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideMailService),
)
