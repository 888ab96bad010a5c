package user

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/quilldesk/quilldesk/services/logging"
	"github.com/quilldesk/quilldesk/services/password"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
)

type Service struct {
	db        *gorm.DB
	passwords *password.Service
	logger    *logging.Service
}

func NewService(db *gorm.DB, passwords *password.Service, logger *logging.Service) *Service {
	return &Service{
		db:        db,
		passwords: passwords,
		logger:    logger,
	}
}

type CreateParams struct {
	Username    string
	Email       *string
	Password    string
	AccountType string
	GithubID    *int64
	GithubLogin string
	GithubName  string
}

// Create inserts a new user record. Plaintext passwords are hashed here
// so no caller ever stores one.
func (s *Service) Create(params CreateParams) (*User, error) {
	accountType := params.AccountType
	if accountType == "" {
		accountType = AccountTypeLocal
	}

	u := &User{
		ID:          uuid.New().String(),
		Email:       params.Email,
		Username:    params.Username,
		AccountType: accountType,
		GithubID:    params.GithubID,
		GithubLogin: params.GithubLogin,
		GithubName:  params.GithubName,
	}

	if params.Password != "" {
		hash, err := s.passwords.Hash(params.Password)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("failed to hash password", zap.Error(err))
			}
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		u.Password = &hash
	}

	if err := s.db.Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyExists
		}
		if s.logger != nil {
			s.logger.Error("failed to create user", zap.Error(err), zap.String("username", params.Username))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user created",
			zap.String("user_id", u.ID),
			zap.String("username", u.Username),
			zap.String("account_type", u.AccountType))
	}

	return u, nil
}

func (s *Service) FindByEmail(email string) (*User, error) {
	var u User
	if err := s.db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}
	return &u, nil
}

func (s *Service) FindByUsername(username string) (*User, error) {
	var u User
	if err := s.db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user by username: %w", err)
	}
	return &u, nil
}

func (s *Service) FindByGithubID(githubID int64) (*User, error) {
	var u User
	if err := s.db.Where("github_id = ?", githubID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user by github id: %w", err)
	}
	return &u, nil
}

func (s *Service) FindByID(id string) (*User, error) {
	var u User
	if err := s.db.Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user by id: %w", err)
	}
	return &u, nil
}

// VerifyPassword compares candidate against the stored hash. Users
// created through an external provider have no password and never match.
func (s *Service) VerifyPassword(u *User, candidate string) bool {
	if u.Password == nil {
		return false
	}

	ok, err := s.passwords.Verify(*u.Password, candidate)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("password verification failed",
				zap.Error(err),
				zap.String("user_id", u.ID))
		}
		return false
	}
	return ok
}
