package device

import (
	"github.com/quilldesk/quilldesk/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideDeviceService(db *gorm.DB, logger *logging.Service) *Service {
	return NewService(db, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideDeviceService),
)
