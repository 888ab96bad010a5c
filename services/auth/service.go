package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/quilldesk/quilldesk/config"
	"github.com/quilldesk/quilldesk/services/cache"
	"github.com/quilldesk/quilldesk/services/device"
	"github.com/quilldesk/quilldesk/services/github"
	"github.com/quilldesk/quilldesk/services/logging"
	"github.com/quilldesk/quilldesk/services/token"
	"github.com/quilldesk/quilldesk/services/user"
	"go.uber.org/zap"
)

// IdentityExchanger performs the external provider handshake and maps
// the returned identity onto a local user.
type IdentityExchanger interface {
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchProfile(ctx context.Context, providerToken string) (*github.Profile, error)
	ResolveUser(profile *github.Profile) (*user.User, error)
}

type MailSender interface {
	SendPlain(to []string, subject, body string) error
}

type Service struct {
	config    *config.Config
	users     *user.Service
	devices   *device.Service
	tokens    *token.Service
	cache     cache.Store
	exchanger IdentityExchanger
	mail      MailSender
	logger    *logging.Service
}

func NewService(cfg *config.Config, users *user.Service, devices *device.Service, tokens *token.Service, store cache.Store, logger *logging.Service) *Service {
	return &Service{
		config:  cfg,
		users:   users,
		devices: devices,
		tokens:  tokens,
		cache:   store,
		logger:  logger,
	}
}

func (s *Service) SetIdentityExchanger(exchanger IdentityExchanger) {
	s.exchanger = exchanger
}

func (s *Service) SetMailSender(mail MailSender) {
	s.mail = mail
}

// DeviceInfo identifies the calling device on sign-in.
type DeviceInfo struct {
	DeviceID   string
	DeviceType string
	ClientIP   string
}

type SignInResult struct {
	User         *user.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

// SignInWithPassword verifies an email/password credential and opens a
// session for the calling device.
func (s *Service) SignInWithPassword(email, candidate string, dev DeviceInfo) (*SignInResult, error) {
	u, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !s.users.VerifyPassword(u, candidate) {
		if s.logger != nil {
			s.logger.Warn("password sign-in rejected",
				zap.String("user_id", u.ID),
				zap.String("device_id", dev.DeviceID))
		}
		return nil, ErrInvalidCredentials
	}

	return s.openSession(u, dev)
}

// SignInWithCode verifies a previously issued one-time code. The code is
// single use: it is deleted the moment it matches.
func (s *Service) SignInWithCode(email, candidate string, dev DeviceInfo) (*SignInResult, error) {
	u, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := s.consumeCode(email, candidate); err != nil {
		return nil, err
	}

	return s.openSession(u, dev)
}

func (s *Service) consumeCode(email, candidate string) error {
	stored, found, err := s.cache.Get(CodeCacheKey(email))
	if err != nil {
		return fmt.Errorf("failed to look up one-time code: %w", err)
	}
	if !found || candidate == "" || candidate != stored {
		if s.logger != nil {
			s.logger.Warn("one-time code rejected", zap.String("email", email))
		}
		return ErrInvalidOrExpiredCode
	}

	return s.cache.Delete(CodeCacheKey(email))
}

type SignUpParams struct {
	Username string
	Email    string
	Password string
}

// SignUp creates a local account. A one-time code must have been issued
// for the email beforehand; it is consumed on success.
func (s *Service) SignUp(params SignUpParams) (*user.User, error) {
	if _, err := s.users.FindByEmail(params.Email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	_, found, err := s.cache.Get(CodeCacheKey(params.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up one-time code: %w", err)
	}
	if !found {
		return nil, ErrInvalidOrExpiredCode
	}

	email := params.Email
	u, err := s.users.Create(user.CreateParams{
		Username: params.Username,
		Email:    &email,
		Password: params.Password,
	})
	if err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	if err := s.cache.Delete(CodeCacheKey(params.Email)); err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to delete consumed signup code",
				zap.Error(err),
				zap.String("email", params.Email))
		}
	}

	return u, nil
}

// RequestCode issues a fresh one-time code for email and delivers it.
// Reissuing overwrites any outstanding code.
func (s *Service) RequestCode(email string) error {
	if s.mail == nil {
		return ErrMailNotConfigured
	}

	code, err := s.generateCode()
	if err != nil {
		return err
	}

	if err := s.cache.Set(CodeCacheKey(email), code, s.config.Auth.CodeExpiry); err != nil {
		return fmt.Errorf("failed to store one-time code: %w", err)
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %s.",
		code, s.config.Auth.CodeExpiry)
	if err := s.mail.SendPlain([]string{email}, "Your verification code", body); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("one-time code issued", zap.String("email", email))
	}

	return nil
}

func (s *Service) generateCode() (string, error) {
	var sb strings.Builder
	for i := 0; i < s.config.Auth.CodeLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate one-time code: %w", err)
		}
		sb.WriteString(n.String())
	}
	return sb.String(), nil
}

// SignInWithGithub runs the external handshake: code exchange, profile
// fetch, local account resolution, then the same session-creation path
// as the local flows. Nothing is persisted before the handshake
// completes, so a partial failure leaves no session state behind.
func (s *Service) SignInWithGithub(ctx context.Context, code string, dev DeviceInfo) (*SignInResult, error) {
	if s.exchanger == nil {
		return nil, errors.New("identity exchanger is not configured")
	}

	providerToken, err := s.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	profile, err := s.exchanger.FetchProfile(ctx, providerToken)
	if err != nil {
		return nil, err
	}

	u, err := s.exchanger.ResolveUser(profile)
	if err != nil {
		return nil, err
	}

	return s.openSession(u, dev)
}

// openSession is the single session-creation path every sign-in flow
// converges on: issue pair, upsert the device session, publish the
// access token. Issuance is side-effect-free and ordered first so a
// failure commits nothing.
func (s *Service) openSession(u *user.User, dev DeviceInfo) (*SignInResult, error) {
	identity := token.Identity{
		UserID:   u.ID,
		Username: u.Username,
	}
	if u.Email != nil {
		identity.Email = *u.Email
	}

	pair, err := s.tokens.IssuePair(identity, dev.DeviceID)
	if err != nil {
		return nil, err
	}

	_, err = s.devices.Upsert(device.UpsertParams{
		UserID:           u.ID,
		DeviceID:         dev.DeviceID,
		DeviceType:       dev.DeviceType,
		ClientIP:         dev.ClientIP,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(TokenCacheKey(u.ID, dev.DeviceID), pair.AccessToken, s.tokens.AccessExpiry()); err != nil {
		return nil, fmt.Errorf("failed to publish access token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("session opened",
			zap.String("user_id", u.ID),
			zap.String("device_id", dev.DeviceID),
			zap.String("device_type", dev.DeviceType))
	}

	return &SignInResult{
		User:         u,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Refresh mints a new access token from a refresh token. The token must
// verify cryptographically and match the one stored for its device
// session exactly; rotation on a later login invalidates earlier ones.
// The refresh token itself is left unchanged.
func (s *Service) Refresh(refreshToken string) (string, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("refresh rejected: token verification failed", zap.Error(err))
		}
		return "", ErrInvalidRefreshToken
	}
	if claims.DeviceID == "" {
		return "", ErrInvalidRefreshToken
	}

	session, err := s.devices.Get(claims.UserID, claims.DeviceID)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			return "", ErrInvalidRefreshToken
		}
		return "", err
	}

	if session.RefreshToken != refreshToken || time.Now().After(session.RefreshExpiresAt) {
		if s.logger != nil {
			s.logger.Warn("refresh rejected: token not current for device",
				zap.String("user_id", claims.UserID),
				zap.String("device_id", claims.DeviceID))
		}
		return "", ErrInvalidRefreshToken
	}

	u, err := s.users.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrInvalidRefreshToken
		}
		return "", err
	}

	identity := token.Identity{
		UserID:   u.ID,
		Username: u.Username,
	}
	if u.Email != nil {
		identity.Email = *u.Email
	}

	accessToken, _, err := s.tokens.IssueAccess(identity, claims.DeviceID)
	if err != nil {
		return "", err
	}

	if err := s.cache.Set(TokenCacheKey(u.ID, claims.DeviceID), accessToken, s.tokens.AccessExpiry()); err != nil {
		return "", fmt.Errorf("failed to publish access token: %w", err)
	}

	if err := s.devices.Touch(u.ID, claims.DeviceID); err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to touch device session on refresh",
				zap.Error(err),
				zap.String("user_id", u.ID),
				zap.String("device_id", claims.DeviceID))
		}
	}

	return accessToken, nil
}

// Logout kicks a device out by overwriting its cached access token with
// the sentinel for the access-token validity window. Idempotent; a
// device that never logged in just gains a sentinel that expires.
func (s *Service) Logout(userID, deviceID string) error {
	err := s.cache.Set(TokenCacheKey(userID, deviceID), KickedOutSentinel, s.tokens.AccessExpiry())
	if err != nil {
		return fmt.Errorf("failed to revoke access token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("device kicked out",
			zap.String("user_id", userID),
			zap.String("device_id", deviceID))
	}

	return nil
}

// Devices lists the device sessions of one user, most recent first.
func (s *Service) Devices(userID string) ([]device.Session, error) {
	return s.devices.ListByUser(userID)
}
