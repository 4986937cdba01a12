package auth_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUserHandler(t *testing.T) {
	ctx := context.Background()
	repo := setupRepoManager(t)
	otp := auth.NewOtpService(repo).WithLogger(testLogger{})
	tokens := auth.NewTokenService([]byte("test-signing-key"), 24, "test-issuer", nil, testLogger{})
	notifier := &capturingNotifier{}
	sink := &capturingSink{}

	handler := auth.NewRegisterUserHandler(repo, otp, tokens).
		WithNotifier(notifier).
		WithActivitySink(sink).
		WithLogger(testLogger{})

	var resp *auth.RegisterUserResponse
	err := handler.Execute(ctx, auth.RegisterUserMessage{
		Email:    "fresh@example.com",
		Password: "password12345",
		OnResponse: func(r *auth.RegisterUserResponse) {
			resp = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	// the response strips credentials and carries a usable token
	assert.Empty(t, resp.User.PasswordHash)
	assert.False(t, resp.User.Verified)
	assert.Equal(t, auth.RoleMember, resp.User.Role)

	claims, err := tokens.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID.String(), claims.UserID())

	// a verification code went out for the new account
	notification := notifier.last(t)
	assert.Equal(t, "fresh@example.com", notification.Email)
	assert.Equal(t, auth.OtpTypeVerifyAccount, notification.OtpType)
	assert.Len(t, notification.OtpValue, auth.DefaultOtpLength)

	require.Len(t, sink.byType(auth.ActivityEventUserRegistered), 1)

	// the stored user verifies against the submitted password
	stored, err := repo.Users().GetByEmail(ctx, "fresh@example.com")
	require.NoError(t, err)
	assert.NoError(t, auth.ComparePasswordAndHash("password12345", stored.PasswordHash))
}

func TestRegisterUserHandlerDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := setupRepoManager(t)
	otp := auth.NewOtpService(repo).WithLogger(testLogger{})
	tokens := auth.NewTokenService([]byte("test-signing-key"), 24, "test-issuer", nil, testLogger{})

	handler := auth.NewRegisterUserHandler(repo, otp, tokens).WithLogger(testLogger{})

	msg := auth.RegisterUserMessage{
		Email:    "taken@example.com",
		Password: "password12345",
	}

	require.NoError(t, handler.Execute(ctx, msg))

	err := handler.Execute(ctx, msg)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, auth.TextCodeDuplicateEmail, richErr.TextCode)
}

func TestRegisterUserHandlerEmptyPassword(t *testing.T) {
	ctx := context.Background()
	repo := setupRepoManager(t)
	otp := auth.NewOtpService(repo).WithLogger(testLogger{})
	tokens := auth.NewTokenService([]byte("test-signing-key"), 24, "test-issuer", nil, testLogger{})
	notifier := &capturingNotifier{}

	handler := auth.NewRegisterUserHandler(repo, otp, tokens).
		WithNotifier(notifier).
		WithLogger(testLogger{})

	err := handler.Execute(ctx, auth.RegisterUserMessage{
		Email: "empty@example.com",
	})
	require.Error(t, err)

	// a failed registration leaves no user and sends no code
	_, err = repo.Users().GetByEmail(ctx, "empty@example.com")
	assert.True(t, repository.IsRecordNotFound(err))
	assert.Empty(t, notifier.notifications)
}

func TestRegisterThenLoginRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := setupRepoManager(t)
	otp := auth.NewOtpService(repo).WithLogger(testLogger{})

	provider := auth.NewUserProvider(repo.Users()).WithLogger(testLogger{})
	authenticator := auth.NewAuthenticator(provider, newTestConfig()).WithLogger(testLogger{})

	handler := auth.NewRegisterUserHandler(repo, otp, authenticator.TokenService()).
		WithLogger(testLogger{})

	require.NoError(t, handler.Execute(ctx, auth.RegisterUserMessage{
		Username: "roundtrip",
		Email:    "roundtrip@example.com",
		Role:     auth.RoleMember,
		Password: "password12345",
	}))

	token, err := authenticator.Login(ctx, "roundtrip@example.com", "password12345")
	require.NoError(t, err)

	claims, err := authenticator.ClaimsFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "roundtrip", claims.UserName())
	assert.Equal(t, "roundtrip@example.com", claims.UserEmail())
}
