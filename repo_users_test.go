package auth_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersRegisterDefaults(t *testing.T) {
	ctx := context.Background()
	repo := setupRepoManager(t)

	user, err := repo.Users().Register(ctx, &auth.User{
		Email:        "newcomer@example.com",
		PasswordHash: "x",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, auth.RoleMember, user.Role)
	assert.Equal(t, "newcomer", user.Username)
	assert.False(t, user.Verified)
	assert.False(t, user.Blocked)
}

func TestUsersRegisterKeepsExplicitFields(t *testing.T) {
	ctx := context.Background()
	repo := setupRepoManager(t)

	user, err := repo.Users().Register(ctx, &auth.User{
		Email:        "admin@example.com",
		Username:     "the-admin",
		Role:         auth.RoleAdmin,
		PasswordHash: "x",
	})
	require.NoError(t, err)

	assert.Equal(t, auth.RoleAdmin, user.Role)
	assert.Equal(t, "the-admin", user.Username)
}

func TestUsersRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := setupRepoManager(t)

	_, err := repo.Users().Register(ctx, &auth.User{Email: "dupe@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	_, err = repo.Users().Register(ctx, &auth.User{Email: "dupe@example.com", PasswordHash: "x"})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, auth.TextCodeDuplicateEmail, richErr.TextCode)
}

func TestUsersRegisterRejectsBadEmail(t *testing.T) {
	ctx := context.Background()
	repo := setupRepoManager(t)

	_, err := repo.Users().Register(ctx, &auth.User{Email: "not-an-email", PasswordHash: "x"})
	require.Error(t, err)
}

func TestUsersGetByEmail(t *testing.T) {
	ctx := context.Background()
	repo := setupRepoManager(t)

	created := createTestUser(t, repo, "findme@example.com", "password12345")

	found, err := repo.Users().GetByEmail(ctx, "findme@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	// leading/trailing whitespace does not defeat the lookup
	found, err = repo.Users().GetByEmail(ctx, "  findme@example.com ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.Users().GetByEmail(ctx, "ghost@example.com")
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestUsersSetPassword(t *testing.T) {
	ctx := context.Background()
	repo := setupRepoManager(t)

	user := createTestUser(t, repo, "rotate@example.com", "password12345")

	hash, err := auth.HashPassword("another-password")
	require.NoError(t, err)

	require.NoError(t, repo.Users().SetPassword(ctx, user.ID, hash))

	updated, err := repo.Users().GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.NoError(t, auth.ComparePasswordAndHash("another-password", updated.PasswordHash))

	err = repo.Users().SetPassword(ctx, uuid.New(), hash)
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestUsersMarkVerified(t *testing.T) {
	ctx := context.Background()
	repo := setupRepoManager(t)

	user := createTestUser(t, repo, "verifyme@example.com", "password12345")
	require.False(t, user.Verified)

	require.NoError(t, repo.Users().MarkVerified(ctx, user.ID))

	updated, err := repo.Users().GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.True(t, updated.Verified)

	err = repo.Users().MarkVerified(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestUsersSetBlockedRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := setupRepoManager(t)

	user := createTestUser(t, repo, "blockme@example.com", "password12345")

	blocked, err := repo.Users().SetBlocked(ctx, user.ID, true)
	require.NoError(t, err)
	assert.True(t, blocked.Blocked)

	// unblocking writes the zero value back
	unblocked, err := repo.Users().SetBlocked(ctx, user.ID, false)
	require.NoError(t, err)
	assert.False(t, unblocked.Blocked)

	_, err = repo.Users().SetBlocked(ctx, uuid.New(), true)
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestUsersRemoveCascades(t *testing.T) {
	ctx := context.Background()
	repo := setupRepoManager(t)

	user := createTestUser(t, repo, "leaver@example.com", "password12345")

	_, err := repo.Admins().Create(ctx, &auth.Admin{UserID: user.ID, ManageUsers: true})
	require.NoError(t, err)

	svc := auth.NewOtpService(repo).WithLogger(testLogger{})
	_, err = svc.Issue(ctx, user.ID, auth.OtpTypeVerifyAccount)
	require.NoError(t, err)

	require.NoError(t, repo.Users().Remove(ctx, user.ID))

	_, err = repo.Users().GetByEmail(ctx, user.Email)
	assert.True(t, repository.IsRecordNotFound(err))

	_, err = repo.Admins().GetByUserID(ctx, user.ID)
	assert.True(t, repository.IsRecordNotFound(err))

	// removing twice reports not found
	err = repo.Users().Remove(ctx, user.ID)
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}
