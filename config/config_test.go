package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		JWT: JWTConfig{
			Secret:        "test-secret-key-that-is-long-enough!",
			Issuer:        "quilldesk",
			AccessExpiry:  24 * time.Hour,
			RefreshExpiry: 4320 * time.Hour,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("missing secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.Secret = ""
		assert.ErrorContains(t, cfg.Validate(), "QD_JWT_SECRET is required")
	})

	t.Run("short secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.Secret = "short"
		assert.ErrorContains(t, cfg.Validate(), "at least 32 characters")
	})

	t.Run("non-positive expiry", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.AccessExpiry = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("refresh must exceed access", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.RefreshExpiry = cfg.JWT.AccessExpiry
		assert.ErrorContains(t, cfg.Validate(), "refresh expiry must exceed access expiry")
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("QD_JWT_SECRET", "test-secret-key-that-is-long-enough!")

	cfg := &Config{}
	require.NoError(t, LoadConfig(cfg))

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.AccessExpiry)
	assert.Equal(t, 4320*time.Hour, cfg.JWT.RefreshExpiry)
	assert.Equal(t, 6, cfg.Auth.CodeLength)
	assert.Equal(t, 10*time.Minute, cfg.Auth.CodeExpiry)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.GitHub.Timeout)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("QD_JWT_SECRET", "test-secret-key-that-is-long-enough!")
	t.Setenv("QD_JWT_ACCESS_EXPIRY", "15m")
	t.Setenv("QD_GITHUB_OAUTH_BASE_URL", "https://proxy.example.com/github.com")

	cfg := &Config{}
	require.NoError(t, LoadConfig(cfg))

	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, "https://proxy.example.com/github.com", cfg.GitHub.OAuthBaseURL)
}
