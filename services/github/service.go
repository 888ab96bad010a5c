package github

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/quilldesk/quilldesk/config"
	"github.com/quilldesk/quilldesk/services/logging"
	"github.com/quilldesk/quilldesk/services/user"
	"go.uber.org/zap"
)

var (
	ErrExchangeFailed     = errors.New("github code exchange failed")
	ErrProfileFetchFailed = errors.New("github profile fetch failed")
)

// Profile is the external identity returned by the provider.
type Profile struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
}

type Service struct {
	config *config.GitHubConfig
	client *http.Client
	users  *user.Service
	logger *logging.Service
}

func NewService(cfg *config.GitHubConfig, users *user.Service, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		users:  users,
		logger: logger,
	}
}

// ExchangeCode trades an authorization code for a provider access token.
// Single attempt, bounded by the configured client timeout; any
// non-success outcome collapses to ErrExchangeFailed with the cause kept
// for logging only.
func (s *Service) ExchangeCode(ctx context.Context, code string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"client_id":     s.config.ClientID,
		"client_secret": s.config.ClientSecret,
		"code":          code,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	url := s.config.OAuthBaseURL + "/login/oauth/access_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("github code exchange request failed", zap.Error(err))
		}
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if s.logger != nil {
			s.logger.Warn("github code exchange returned non-success status",
				zap.Int("status", resp.StatusCode))
		}
		return "", fmt.Errorf("%w: status %d", ErrExchangeFailed, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	if payload.AccessToken == "" {
		if s.logger != nil {
			s.logger.Warn("github code exchange rejected",
				zap.String("provider_error", payload.Error))
		}
		return "", fmt.Errorf("%w: no access token in response", ErrExchangeFailed)
	}

	return payload.AccessToken, nil
}

// FetchProfile loads the external profile using the provider token.
func (s *Service) FetchProfile(ctx context.Context, providerToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	req.Header.Set("Authorization", "token "+providerToken)

	resp, err := s.client.Do(req)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("github profile fetch request failed", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if s.logger != nil {
			s.logger.Warn("github profile fetch returned non-success status",
				zap.Int("status", resp.StatusCode))
		}
		return nil, fmt.Errorf("%w: status %d", ErrProfileFetchFailed, resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	if profile.ID == 0 || profile.Login == "" {
		return nil, fmt.Errorf("%w: incomplete profile", ErrProfileFetchFailed)
	}

	return &profile, nil
}

// ResolveUser maps a provider identity onto a local user, creating one on
// first sign-in. Idempotent per provider id: a retry after a concurrent
// create lands on the existing record via the github_id unique index.
func (s *Service) ResolveUser(profile *Profile) (*user.User, error) {
	existing, err := s.users.FindByGithubID(profile.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	username := profile.Login
	if _, err := s.users.FindByUsername(username); err == nil {
		username = profile.Login + usernameSuffix(profile.Login)
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	githubID := profile.ID
	created, err := s.users.Create(user.CreateParams{
		Username:    username,
		AccountType: user.AccountTypeGithub,
		GithubID:    &githubID,
		GithubLogin: profile.Login,
		GithubName:  profile.Name,
	})
	if err != nil {
		// a concurrent sign-in may have created the record first
		if existing, lookupErr := s.users.FindByGithubID(profile.ID); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("created user from github identity",
			zap.String("user_id", created.ID),
			zap.String("username", created.Username),
			zap.Int64("github_id", profile.ID))
	}

	return created, nil
}

func usernameSuffix(login string) string {
	sum := sha256.Sum256([]byte(login))
	return fmt.Sprintf("%x", sum)[:5]
}
