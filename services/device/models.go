package device

import (
	"time"
)

// Session is the durable record binding a user and a device to the
// refresh token currently on record. The composite unique index makes
// the one-row-per-(user, device) invariant a database constraint rather
// than application-level check-then-write.
type Session struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	UserID           string    `json:"user_id" gorm:"size:36;not null;uniqueIndex:idx_user_device"`
	DeviceID         string    `json:"device_id" gorm:"size:255;not null;uniqueIndex:idx_user_device"`
	DeviceType       string    `json:"device_type" gorm:"size:64"`
	ClientIP         string    `json:"client_ip" gorm:"size:64"`
	LastLoginAt      time.Time `json:"last_login_at"`
	RefreshToken     string    `json:"-" gorm:"size:1024;not null"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at" gorm:"not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Session) TableName() string {
	return "device_sessions"
}
