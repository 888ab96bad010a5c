package user

import (
	"github.com/quilldesk/quilldesk/services/logging"
	"github.com/quilldesk/quilldesk/services/password"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideUserService(db *gorm.DB, passwords *password.Service, logger *logging.Service) *Service {
	return NewService(db, passwords, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideUserService),
)
