package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// ForgotPasswordAck is the one response every initialization returns,
// whether or not the email maps to an account.
const ForgotPasswordAck = "If your email exists in our system, we have sent a password reset code"

type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

type InitializePasswordResetResponse struct {
	Message string
}

type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	otp      *OtpService
	notifier Notifier
	activity ActivitySink
	logger   Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, otp *OtpService) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:     repo,
		otp:      otp,
		notifier: logNotifier{logger: defLogger{}},
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithNotifier(n Notifier) *InitializePasswordResetHandler {
	h.notifier = normalizeNotifier(n, h.logger)
	return h
}

func (h *InitializePasswordResetHandler) WithActivitySink(sink ActivitySink) *InitializePasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	h.logger = normalizeLogger(logger)
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	var user *User
	var code *OtpCode

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			// an unknown email produces the same acknowledgement as a
			// known one; the miss is logged, never surfaced
			if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
				h.logger.Debug("password reset requested for unknown email %s", event.Email)
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
		}

		code, err = h.otp.IssueTx(ctx, tx, user.ID, OtpTypeResetPassword)
		return err
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	if user != nil && code != nil {
		if err := h.notifier.Notify(ctx, Notification{
			Email:    user.Email,
			OtpValue: code.Value,
			OtpType:  OtpTypeResetPassword,
		}); err != nil {
			h.logger.Warn("failed to deliver password reset OTP to %s: %v", user.Email, err)
		}

		h.recordActivity(ctx, user)
	}

	if event.OnResponse != nil {
		event.OnResponse(&InitializePasswordResetResponse{
			Message: ForgotPasswordAck,
		})
	}

	return nil
}

func (h *InitializePasswordResetHandler) recordActivity(ctx context.Context, user *User) {
	event := ActivityEvent{
		EventType: ActivityEventPasswordResetRequest,
		Actor: ActorRef{
			ID:   user.ID.String(),
			Type: "user",
		},
		UserID: user.ID.String(),
		Metadata: map[string]any{
			"email": user.Email,
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during password reset request: %v", err)
	}
}
