package auth

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
	ErrMailNotConfigured    = errors.New("mail service is not configured")
)
