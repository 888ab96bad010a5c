package user

import (
	"time"
)

const (
	AccountTypeLocal  = "local"
	AccountTypeGithub = "github"
)

type User struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Email       *string   `json:"email" gorm:"uniqueIndex;size:255"`
	Username    string    `json:"username" gorm:"uniqueIndex;size:255;not null"`
	Password    *string   `json:"-" gorm:"size:255"`
	AccountType string    `json:"account_type" gorm:"size:32;not null;default:local"`
	GithubID    *int64    `json:"github_id,omitempty" gorm:"uniqueIndex"`
	GithubLogin string    `json:"github_login,omitempty" gorm:"size:255"`
	GithubName  string    `json:"github_name,omitempty" gorm:"size:255"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
