package testutils

import (
	"time"

	"github.com/quilldesk/quilldesk/config"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port: "8080",
			Host: "localhost",
		},
		Log: config.LogConfig{
			Level:  "error",
			Format: "json",
		},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
		Auth: config.AuthConfig{
			Argon2Memory:      8 * 1024,
			Argon2Iterations:  1,
			Argon2Parallelism: 1,
			Argon2SaltLength:  16,
			Argon2KeyLength:   32,
			CodeLength:        6,
			CodeExpiry:        10 * time.Minute,
		},
		JWT: config.JWTConfig{
			Secret:        "test-secret-key-that-is-long-enough!",
			Issuer:        "quilldesk-test",
			AccessExpiry:  24 * time.Hour,
			RefreshExpiry: 4320 * time.Hour,
		},
		GitHub: config.GitHubConfig{
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
			OAuthBaseURL: "https://github.com",
			APIBaseURL:   "https://api.github.com",
			Timeout:      5 * time.Second,
		},
	}
}
