package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quilldesk/quilldesk/services/password"
	"github.com/quilldesk/quilldesk/services/user"
	"github.com/quilldesk/quilldesk/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T, providerURL string) (*Service, *user.Service) {
	db := testutils.SetupTestDB(t, &user.User{})
	passwords := password.NewService(&testutils.GetTestConfig().Auth)
	users := user.NewService(db, passwords, nil)

	cfg := testutils.GetTestConfig().GitHub
	cfg.OAuthBaseURL = providerURL
	cfg.APIBaseURL = providerURL

	return NewService(&cfg, users, nil), users
}

func fakeProvider(t *testing.T, accessToken string, profile *Profile) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/login/oauth/access_token"):
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["code"] != "good-code" {
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad_verification_code"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": accessToken})
		case strings.HasSuffix(r.URL.Path, "/user"):
			if r.Header.Get("Authorization") != "token "+accessToken {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(profile)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestService_ExchangeCode(t *testing.T) {
	provider := fakeProvider(t, "gh-token", &Profile{ID: 42, Login: "octo", Name: "Octo Cat"})
	defer provider.Close()

	svc, _ := setupService(t, provider.URL)

	t.Run("valid code", func(t *testing.T) {
		token, err := svc.ExchangeCode(context.Background(), "good-code")
		require.NoError(t, err)
		assert.Equal(t, "gh-token", token)
	})

	t.Run("rejected code", func(t *testing.T) {
		_, err := svc.ExchangeCode(context.Background(), "bad-code")
		assert.ErrorIs(t, err, ErrExchangeFailed)
	})

	t.Run("unreachable provider", func(t *testing.T) {
		dead, _ := setupService(t, "http://127.0.0.1:1")
		_, err := dead.ExchangeCode(context.Background(), "good-code")
		assert.ErrorIs(t, err, ErrExchangeFailed)
	})
}

func TestService_FetchProfile(t *testing.T) {
	provider := fakeProvider(t, "gh-token", &Profile{ID: 42, Login: "octo", Name: "Octo Cat"})
	defer provider.Close()

	svc, _ := setupService(t, provider.URL)

	t.Run("valid token", func(t *testing.T) {
		profile, err := svc.FetchProfile(context.Background(), "gh-token")
		require.NoError(t, err)
		assert.Equal(t, int64(42), profile.ID)
		assert.Equal(t, "octo", profile.Login)
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := svc.FetchProfile(context.Background(), "wrong")
		assert.ErrorIs(t, err, ErrProfileFetchFailed)
	})
}

func TestService_ResolveUser(t *testing.T) {
	svc, users := setupService(t, "http://unused")
	profile := &Profile{ID: 42, Login: "octo", Name: "Octo Cat"}

	first, err := svc.ResolveUser(profile)
	require.NoError(t, err)
	assert.Equal(t, "octo", first.Username)
	assert.Equal(t, user.AccountTypeGithub, first.AccountType)

	t.Run("idempotent per provider id", func(t *testing.T) {
		second, err := svc.ResolveUser(profile)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("username collision gets hash suffix", func(t *testing.T) {
		_, err := users.Create(user.CreateParams{Username: "taken", Password: "p"})
		require.NoError(t, err)

		resolved, err := svc.ResolveUser(&Profile{ID: 77, Login: "taken", Name: "Other"})
		require.NoError(t, err)
		assert.NotEqual(t, "taken", resolved.Username)
		assert.True(t, strings.HasPrefix(resolved.Username, "taken"))
		assert.Len(t, resolved.Username, len("taken")+5)
	})
}
