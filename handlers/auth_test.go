package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	authmw "github.com/quilldesk/quilldesk/middleware/auth"
	"github.com/quilldesk/quilldesk/services/auth"
	"github.com/quilldesk/quilldesk/services/cache"
	"github.com/quilldesk/quilldesk/services/device"
	"github.com/quilldesk/quilldesk/services/github"
	"github.com/quilldesk/quilldesk/services/password"
	"github.com/quilldesk/quilldesk/services/token"
	"github.com/quilldesk/quilldesk/services/user"
	"github.com/quilldesk/quilldesk/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	e       *echo.Echo
	handler *AuthHandler
	authSvc *auth.Service
	users   *user.Service
	tokens  *token.Service
	store   cache.Store
}

type stubExchanger struct {
	profile *github.Profile
	fail    error
	real    *github.Service
}

func (s *stubExchanger) ExchangeCode(ctx context.Context, code string) (string, error) {
	if s.fail != nil {
		return "", s.fail
	}
	return "provider-token", nil
}

func (s *stubExchanger) FetchProfile(ctx context.Context, providerToken string) (*github.Profile, error) {
	return s.profile, nil
}

func (s *stubExchanger) ResolveUser(profile *github.Profile) (*user.User, error) {
	return s.real.ResolveUser(profile)
}

func setupEnv(t *testing.T) *testEnv {
	cfg := testutils.GetTestConfig()
	db := testutils.SetupTestDB(t, &user.User{}, &device.Session{})

	passwords := password.NewService(&cfg.Auth)
	users := user.NewService(db, passwords, nil)
	devices := device.NewService(db, nil)
	tokens := token.NewService(cfg, nil)
	store := cache.NewMemoryStore(nil)

	authSvc := auth.NewService(cfg, users, devices, tokens, store, nil)
	authSvc.SetIdentityExchanger(&stubExchanger{
		profile: &github.Profile{ID: 42, Login: "octo", Name: "Octo Cat"},
		real:    github.NewService(&cfg.GitHub, users, nil),
	})

	e := echo.New()
	handler := NewAuthHandler(authSvc, nil)

	g := e.Group("/auth")
	g.POST("/signin/password", handler.SignInPassword)
	g.POST("/signin/code", handler.SignInCode)
	g.POST("/signup", handler.SignUp)
	g.POST("/refresh", handler.Refresh)
	g.POST("/github", handler.GithubSignIn)
	g.POST("/logout", handler.Logout, authmw.RequireAuth(tokens, store))

	return &testEnv{
		e:       e,
		handler: handler,
		authSvc: authSvc,
		users:   users,
		tokens:  tokens,
		store:   store,
	}
}

func (env *testEnv) post(t *testing.T, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) createUser(t *testing.T, username, email, pass string) *user.User {
	t.Helper()
	u, err := env.users.Create(user.CreateParams{
		Username: username,
		Email:    &email,
		Password: pass,
	})
	require.NoError(t, err)
	return u
}

func TestSignInPasswordEndpoint(t *testing.T) {
	env := setupEnv(t)
	env.createUser(t, "alice", "a@x.com", "p")

	t.Run("success", func(t *testing.T) {
		rec := env.post(t, "/auth/signin/password",
			`{"email":"a@x.com","password":"p","device_id":"d1","device_type":"web"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			User         *user.User `json:"user"`
			AccessToken  string     `json:"accessToken"`
			RefreshToken string     `json:"refreshToken"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "alice", body.User.Username)
		assert.NotEmpty(t, body.AccessToken)
		assert.NotEmpty(t, body.RefreshToken)

		claims, err := env.tokens.Verify(body.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "d1", claims.DeviceID)
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := env.post(t, "/auth/signin/password",
			`{"email":"nobody@x.com","password":"p","device_id":"d1"}`, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := env.post(t, "/auth/signin/password",
			`{"email":"a@x.com","password":"wrong","device_id":"d1"}`, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := env.post(t, "/auth/signin/password", `{"email":"a@x.com"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSignUpEndpoint(t *testing.T) {
	env := setupEnv(t)

	t.Run("with issued code", func(t *testing.T) {
		require.NoError(t, env.store.Set(auth.CodeCacheKey("a@x.com"), "123456", time.Minute))

		rec := env.post(t, "/auth/signup",
			`{"username":"a","email":"a@x.com","password":"p"}`, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var created user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, "a", created.Username)

		_, found, err := env.store.Get(auth.CodeCacheKey("a@x.com"))
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("without code", func(t *testing.T) {
		rec := env.post(t, "/auth/signup",
			`{"username":"b","email":"b@x.com","password":"p"}`, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestSignInCodeEndpoint(t *testing.T) {
	env := setupEnv(t)
	env.createUser(t, "alice", "a@x.com", "p")
	require.NoError(t, env.store.Set(auth.CodeCacheKey("a@x.com"), "123456", time.Minute))

	rec := env.post(t, "/auth/signin/code",
		`{"email":"a@x.com","code":"123456","device_id":"d1","device_type":"web"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	t.Run("code is single use", func(t *testing.T) {
		rec := env.post(t, "/auth/signin/code",
			`{"email":"a@x.com","code":"123456","device_id":"d1","device_type":"web"}`, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	env := setupEnv(t)
	env.createUser(t, "alice", "a@x.com", "p")

	signIn := env.post(t, "/auth/signin/password",
		`{"email":"a@x.com","password":"p","device_id":"d1","device_type":"web"}`, nil)
	require.Equal(t, http.StatusOK, signIn.Code)

	var session struct {
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(signIn.Body.Bytes(), &session))

	t.Run("valid refresh", func(t *testing.T) {
		rec := env.post(t, "/auth/refresh",
			`{"refreshToken":"`+session.RefreshToken+`"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body["accessToken"])
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := env.post(t, "/auth/refresh", `{"refreshToken":"junk"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGithubEndpoint(t *testing.T) {
	env := setupEnv(t)

	rec := env.post(t, "/auth/github",
		`{"code":"gh-code","device_id":"d1","device_type":"web"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		User        *user.User `json:"user"`
		AccessToken string     `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "octo", body.User.Username)
	assert.NotEmpty(t, body.AccessToken)
	assert.NotContains(t, rec.Body.String(), "refreshToken")

	t.Run("exchange failure is generic", func(t *testing.T) {
		failing := setupEnv(t)
		failing.authSvc.SetIdentityExchanger(&stubExchanger{fail: github.ErrExchangeFailed})

		rec := failing.post(t, "/auth/github",
			`{"code":"bad","device_id":"d1"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "GitHub authorization failed")
	})
}

func TestLogoutEndpoint(t *testing.T) {
	env := setupEnv(t)
	env.createUser(t, "alice", "a@x.com", "p")

	signIn := env.post(t, "/auth/signin/password",
		`{"email":"a@x.com","password":"p","device_id":"d1","device_type":"web"}`, nil)
	require.Equal(t, http.StatusOK, signIn.Code)

	var session struct {
		User        *user.User `json:"user"`
		AccessToken string     `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(signIn.Body.Bytes(), &session))
	bearer := map[string]string{"Authorization": "Bearer " + session.AccessToken}

	t.Run("requires authentication", func(t *testing.T) {
		rec := env.post(t, "/auth/logout", `{"device_id":"d1"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revokes the cached token", func(t *testing.T) {
		rec := env.post(t, "/auth/logout", `{"device_id":"d1"}`, bearer)
		require.Equal(t, http.StatusNoContent, rec.Code)

		value, found, err := env.store.Get(auth.TokenCacheKey(session.User.ID, "d1"))
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, auth.KickedOutSentinel, value)
	})

	t.Run("kicked-out token is rejected afterwards", func(t *testing.T) {
		rec := env.post(t, "/auth/logout", `{"device_id":"d1"}`, bearer)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
