package device

import (
	"errors"
	"fmt"
	"time"

	"github.com/quilldesk/quilldesk/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("device session not found")

type Service struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewService(db *gorm.DB, logger *logging.Service) *Service {
	return &Service{
		db:     db,
		logger: logger,
	}
}

type UpsertParams struct {
	UserID           string
	DeviceID         string
	DeviceType       string
	ClientIP         string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Upsert records a login from one device. First login creates the row;
// subsequent logins update it in place, rotating the stored refresh
// token. The conflict target is the (user_id, device_id) unique index,
// so two racing logins resolve to last-writer-wins on a single row.
func (s *Service) Upsert(params UpsertParams) (*Session, error) {
	session := Session{
		UserID:           params.UserID,
		DeviceID:         params.DeviceID,
		DeviceType:       params.DeviceType,
		ClientIP:         params.ClientIP,
		LastLoginAt:      time.Now(),
		RefreshToken:     params.RefreshToken,
		RefreshExpiresAt: params.RefreshExpiresAt,
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "device_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"device_type", "client_ip", "last_login_at",
			"refresh_token", "refresh_expires_at", "updated_at",
		}),
	}).Create(&session).Error
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to upsert device session",
				zap.Error(err),
				zap.String("user_id", params.UserID),
				zap.String("device_id", params.DeviceID))
		}
		return nil, fmt.Errorf("failed to upsert device session: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("device session upserted",
			zap.String("user_id", params.UserID),
			zap.String("device_id", params.DeviceID),
			zap.String("device_type", params.DeviceType))
	}

	return &session, nil
}

// Get returns the session for (userID, deviceID). Absence is reported
// with ErrNotFound; the caller decides whether that means first login or
// an invalid refresh attempt.
func (s *Service) Get(userID, deviceID string) (*Session, error) {
	var session Session
	err := s.db.Where("user_id = ? AND device_id = ?", userID, deviceID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load device session: %w", err)
	}
	return &session, nil
}

// Touch bumps LastLoginAt without rotating the stored refresh token,
// used on the refresh path.
func (s *Service) Touch(userID, deviceID string) error {
	result := s.db.Model(&Session{}).
		Where("user_id = ? AND device_id = ?", userID, deviceID).
		Update("last_login_at", time.Now())
	if result.Error != nil {
		return fmt.Errorf("failed to touch device session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns all sessions for one user, most recent login first.
func (s *Service) ListByUser(userID string) ([]Session, error) {
	var sessions []Session
	err := s.db.Where("user_id = ?", userID).
		Order("last_login_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list device sessions: %w", err)
	}
	return sessions, nil
}
