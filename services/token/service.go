package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/quilldesk/quilldesk/config"
	"github.com/quilldesk/quilldesk/services/logging"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Claims is the payload embedded in both signed tokens. Access tokens
// carry DeviceID; refresh tokens carry it too so the device session can
// be resolved from the token alone on refresh.
type Claims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username"`
	DeviceID string `json:"device_id,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the subset of the user record that goes into token claims.
type Identity struct {
	UserID   string
	Email    string
	Username string
}

type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type Service struct {
	config *config.Config
	logger *logging.Service
}

func NewService(cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		logger: logger,
	}
}

func (s *Service) AccessExpiry() time.Duration {
	return s.config.JWT.AccessExpiry
}

func (s *Service) RefreshExpiry() time.Duration {
	return s.config.JWT.RefreshExpiry
}

// IssuePair mints a signed access/refresh token pair for one device.
// Issuance has no side effects; callers persist the session afterwards.
func (s *Service) IssuePair(identity Identity, deviceID string) (*Pair, error) {
	now := time.Now()
	accessExpiresAt := now.Add(s.config.JWT.AccessExpiry)
	refreshExpiresAt := now.Add(s.config.JWT.RefreshExpiry)

	accessToken, err := s.sign(identity, deviceID, now, accessExpiresAt)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to sign access token", zap.Error(err))
		}
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.sign(identity, deviceID, now, refreshExpiresAt)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to sign refresh token", zap.Error(err))
		}
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &Pair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// IssueAccess mints a new access token only, used on the refresh path
// where the refresh token stays on record unchanged.
func (s *Service) IssueAccess(identity Identity, deviceID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.JWT.AccessExpiry)

	accessToken, err := s.sign(identity, deviceID, now, expiresAt)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to sign access token", zap.Error(err))
		}
		return "", time.Time{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	return accessToken, expiresAt, nil
}

func (s *Service) sign(identity Identity, deviceID string, now, expiresAt time.Time) (string, error) {
	jti := uuid.New().String()
	claims := Claims{
		UserID:   identity.UserID,
		Email:    identity.Email,
		Username: identity.Username,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.config.JWT.Issuer,
			Subject:   identity.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWT.Secret))
}

// Verify checks signature and expiry and returns the decoded claims.
// Signature validity alone does not prove a token is still current; the
// caller compares against the device session and the token cache.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() == "none" {
			return nil, errors.New("'none' algorithm is not allowed")
		}

		if token.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected algorithm: expected HS256, got %s", token.Method.Alg())
		}

		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid algorithm family: %v", token.Header["alg"])
		}

		return []byte(s.config.JWT.Secret), nil
	})

	if err != nil {
		if s.logger != nil {
			s.logger.Warn("token validation failed", zap.Error(err))
		}

		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
