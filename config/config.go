package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig   `envPrefix:"QD_SERVER_"`
	Log      LogConfig      `envPrefix:"QD_LOG_"`
	Database DatabaseConfig `envPrefix:"QD_DATABASE_"`
	Auth     AuthConfig     `envPrefix:"QD_AUTH_"`
	JWT      JWTConfig      `envPrefix:"QD_JWT_"`
	GitHub   GitHubConfig   `envPrefix:"QD_GITHUB_"`
	Mail     MailConfig     `envPrefix:"QD_MAIL_"`
}

type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Host string `env:"HOST" envDefault:"localhost"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"quilldesk.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type AuthConfig struct {
	Argon2Memory      uint32        `env:"ARGON2_MEMORY" envDefault:"65536"`
	Argon2Iterations  uint32        `env:"ARGON2_ITERATIONS" envDefault:"3"`
	Argon2Parallelism uint8         `env:"ARGON2_PARALLELISM" envDefault:"2"`
	Argon2SaltLength  uint32        `env:"ARGON2_SALT_LENGTH" envDefault:"16"`
	Argon2KeyLength   uint32        `env:"ARGON2_KEY_LENGTH" envDefault:"32"`
	CodeLength        int           `env:"CODE_LENGTH" envDefault:"6"`
	CodeExpiry        time.Duration `env:"CODE_EXPIRY" envDefault:"10m"`
}

type JWTConfig struct {
	Secret        string        `env:"SECRET"`
	Issuer        string        `env:"ISSUER" envDefault:"quilldesk"`
	AccessExpiry  time.Duration `env:"ACCESS_EXPIRY" envDefault:"24h"`
	RefreshExpiry time.Duration `env:"REFRESH_EXPIRY" envDefault:"4320h"`
}

type GitHubConfig struct {
	ClientID     string        `env:"CLIENT_ID"`
	ClientSecret string        `env:"CLIENT_SECRET"`
	OAuthBaseURL string        `env:"OAUTH_BASE_URL" envDefault:"https://github.com"`
	APIBaseURL   string        `env:"API_BASE_URL" envDefault:"https://api.github.com"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

type MailConfig struct {
	Host        string `env:"HOST" envDefault:"localhost"`
	Port        int    `env:"PORT" envDefault:"587"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	Encryption  string `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress string `env:"FROM_ADDRESS"`
	FromName    string `env:"FROM_NAME" envDefault:"Quilldesk"`
}

func LoadConfig(cfg *Config) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return err
	}

	return cfg.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("QD_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("QD_JWT_SECRET must be at least 32 characters")
	}
	if c.JWT.AccessExpiry <= 0 || c.JWT.RefreshExpiry <= 0 {
		return fmt.Errorf("JWT expiries must be positive")
	}
	if c.JWT.RefreshExpiry <= c.JWT.AccessExpiry {
		return fmt.Errorf("refresh expiry must exceed access expiry")
	}
	return nil
}
