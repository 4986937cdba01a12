package auth_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOtpHandler(t *testing.T) {
	ctx := context.Background()
	repo := setupRepoManager(t)
	otp := auth.NewOtpService(repo).WithLogger(testLogger{})
	notifier := &capturingNotifier{}
	sink := &capturingSink{}

	user := createTestUser(t, repo, "resend@example.com", "password12345")

	handler := auth.NewGenerateOtpHandler(repo, otp).
		WithNotifier(notifier).
		WithActivitySink(sink).
		WithLogger(testLogger{})

	var resp *auth.GenerateOtpResponse
	err := handler.Execute(ctx, auth.GenerateOtpMessage{
		Email:   "resend@example.com",
		OtpType: auth.OtpTypeVerifyAccount,
		OnResponse: func(r *auth.GenerateOtpResponse) {
			resp = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.NotNil(t, resp.Code)

	notification := notifier.last(t)
	assert.Equal(t, user.Email, notification.Email)
	assert.Equal(t, resp.Code.Value, notification.OtpValue)

	require.Len(t, sink.byType(auth.ActivityEventOtpIssued), 1)

	// the minted code validates for its purpose
	_, err = otp.Validate(ctx, user.ID, resp.Code.Value, auth.OtpTypeVerifyAccount)
	require.NoError(t, err)
}

func TestGenerateOtpHandlerSupersedes(t *testing.T) {
	ctx := context.Background()
	repo := setupRepoManager(t)
	otp := auth.NewOtpService(repo).WithLogger(testLogger{})
	notifier := &capturingNotifier{}

	user := createTestUser(t, repo, "resend@example.com", "password12345")

	handler := auth.NewGenerateOtpHandler(repo, otp).
		WithNotifier(notifier).
		WithLogger(testLogger{})

	require.NoError(t, handler.Execute(ctx, auth.GenerateOtpMessage{
		Email:   "resend@example.com",
		OtpType: auth.OtpTypeResetPassword,
	}))
	first := notifier.last(t).OtpValue

	require.NoError(t, handler.Execute(ctx, auth.GenerateOtpMessage{
		Email:   "resend@example.com",
		OtpType: auth.OtpTypeResetPassword,
	}))
	second := notifier.last(t).OtpValue

	_, err := otp.Validate(ctx, user.ID, first, auth.OtpTypeResetPassword)
	require.ErrorIs(t, err, auth.ErrOtpInvalid)

	_, err = otp.Validate(ctx, user.ID, second, auth.OtpTypeResetPassword)
	require.NoError(t, err)
}

func TestGenerateOtpHandlerUnknownEmail(t *testing.T) {
	ctx := context.Background()
	repo := setupRepoManager(t)
	otp := auth.NewOtpService(repo).WithLogger(testLogger{})

	handler := auth.NewGenerateOtpHandler(repo, otp).WithLogger(testLogger{})

	// re-issuance is an administrative surface, a missing account is
	// reported rather than masked
	err := handler.Execute(ctx, auth.GenerateOtpMessage{
		Email:   "ghost@example.com",
		OtpType: auth.OtpTypeVerifyAccount,
	})
	require.ErrorIs(t, err, auth.ErrIdentityNotFound)
}

func TestGenerateOtpHandlerRejectsUnknownType(t *testing.T) {
	ctx := context.Background()
	repo := setupRepoManager(t)
	otp := auth.NewOtpService(repo).WithLogger(testLogger{})

	createTestUser(t, repo, "resend@example.com", "password12345")

	handler := auth.NewGenerateOtpHandler(repo, otp).WithLogger(testLogger{})

	err := handler.Execute(ctx, auth.GenerateOtpMessage{
		Email:   "resend@example.com",
		OtpType: "launch_codes",
	})
	require.Error(t, err)
}
