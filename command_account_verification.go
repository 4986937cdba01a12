package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type AccountVerificationMessage struct {
	Email      string `json:"email"`
	Otp        string `json:"otp"`
	OnResponse func(resp *AccountVerificationResponse)
}

func (e AccountVerificationMessage) Type() string { return "user.account_verification" }

type AccountVerificationResponse struct {
	Verified bool
	User     *User
}

type AccountVerificationHandler struct {
	repo     RepositoryManager
	otp      *OtpService
	activity ActivitySink
	logger   Logger
}

func NewAccountVerificationHandler(repo RepositoryManager, otp *OtpService) *AccountVerificationHandler {
	return &AccountVerificationHandler{
		repo:     repo,
		otp:      otp,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *AccountVerificationHandler) WithActivitySink(sink ActivitySink) *AccountVerificationHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *AccountVerificationHandler) WithLogger(logger Logger) *AccountVerificationHandler {
	h.logger = normalizeLogger(logger)
	return h
}

func (h *AccountVerificationHandler) Execute(ctx context.Context, event AccountVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *AccountVerificationHandler) execute(ctx context.Context, event AccountVerificationMessage) error {
	user := &User{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
				return ErrOtpInvalid
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for verification")
		}

		code, err := h.otp.ValidateTx(ctx, tx, user.ID, event.Otp, OtpTypeVerifyAccount)
		if err != nil {
			return err
		}

		if err := h.repo.Users().MarkVerifiedTx(ctx, tx, user.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark user as verified")
		}

		// consumption commits together with the verified flag
		return h.otp.ConsumeTx(ctx, tx, code)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify account")
	}

	user.Verified = true
	h.recordActivity(ctx, user)

	if event.OnResponse != nil {
		event.OnResponse(&AccountVerificationResponse{
			Verified: true,
			User:     user.Public(),
		})
	}

	return nil
}

func (h *AccountVerificationHandler) recordActivity(ctx context.Context, user *User) {
	event := ActivityEvent{
		EventType: ActivityEventEmailVerified,
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
		h.logger.Warn("activity sink error during verification: %v", err)
	}
}
