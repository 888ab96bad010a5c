package user

import (
	"testing"

	"github.com/quilldesk/quilldesk/services/password"
	"github.com/quilldesk/quilldesk/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) *Service {
	db := testutils.SetupTestDB(t, &User{})
	passwords := password.NewService(&testutils.GetTestConfig().Auth)
	return NewService(db, passwords, nil)
}

func strPtr(s string) *string { return &s }

func TestService_CreateLocalUser(t *testing.T) {
	svc := setupService(t)

	u, err := svc.Create(CreateParams{
		Username: "alice",
		Email:    strPtr("a@x.com"),
		Password: "p",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, AccountTypeLocal, u.AccountType)
	require.NotNil(t, u.Password)
	assert.NotEqual(t, "p", *u.Password)

	t.Run("password verifies", func(t *testing.T) {
		assert.True(t, svc.VerifyPassword(u, "p"))
		assert.False(t, svc.VerifyPassword(u, "wrong"))
	})
}

func TestService_CreateGithubUser(t *testing.T) {
	svc := setupService(t)

	githubID := int64(12345)
	u, err := svc.Create(CreateParams{
		Username:    "octo",
		AccountType: AccountTypeGithub,
		GithubID:    &githubID,
		GithubLogin: "octo",
		GithubName:  "Octo Cat",
	})
	require.NoError(t, err)
	assert.Nil(t, u.Password)
	assert.Equal(t, AccountTypeGithub, u.AccountType)

	t.Run("no password never verifies", func(t *testing.T) {
		assert.False(t, svc.VerifyPassword(u, ""))
	})

	t.Run("find by github id", func(t *testing.T) {
		found, err := svc.FindByGithubID(githubID)
		require.NoError(t, err)
		assert.Equal(t, u.ID, found.ID)
	})
}

func TestService_Lookups(t *testing.T) {
	svc := setupService(t)

	created, err := svc.Create(CreateParams{
		Username: "alice",
		Email:    strPtr("a@x.com"),
		Password: "p",
	})
	require.NoError(t, err)

	t.Run("by email", func(t *testing.T) {
		u, err := svc.FindByEmail("a@x.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, u.ID)
	})

	t.Run("by username", func(t *testing.T) {
		u, err := svc.FindByUsername("alice")
		require.NoError(t, err)
		assert.Equal(t, created.ID, u.ID)
	})

	t.Run("by id", func(t *testing.T) {
		u, err := svc.FindByID(created.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
	})

	t.Run("absent user", func(t *testing.T) {
		_, err := svc.FindByEmail("nobody@x.com")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = svc.FindByUsername("nobody")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = svc.FindByGithubID(999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_DuplicateUsername(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Create(CreateParams{Username: "alice", Email: strPtr("a@x.com"), Password: "p"})
	require.NoError(t, err)

	_, err = svc.Create(CreateParams{Username: "alice", Email: strPtr("b@x.com"), Password: "p"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}
