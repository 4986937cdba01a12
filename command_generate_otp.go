package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// GenerateOtpMessage re-issues a code for an existing user. Backs both
// self-service resend and administrative resend; minting supersedes any
// previously unused code of the same type.
type GenerateOtpMessage struct {
	Email      string  `json:"email"`
	OtpType    OtpType `json:"type"`
	OnResponse func(resp *GenerateOtpResponse)
}

func (e GenerateOtpMessage) Type() string { return "user.otp_generate" }

type GenerateOtpResponse struct {
	Code *OtpCode
}

type GenerateOtpHandler struct {
	repo     RepositoryManager
	otp      *OtpService
	notifier Notifier
	activity ActivitySink
	logger   Logger
}

func NewGenerateOtpHandler(repo RepositoryManager, otp *OtpService) *GenerateOtpHandler {
	return &GenerateOtpHandler{
		repo:     repo,
		otp:      otp,
		notifier: logNotifier{logger: defLogger{}},
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *GenerateOtpHandler) WithNotifier(n Notifier) *GenerateOtpHandler {
	h.notifier = normalizeNotifier(n, h.logger)
	return h
}

func (h *GenerateOtpHandler) WithActivitySink(sink ActivitySink) *GenerateOtpHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *GenerateOtpHandler) WithLogger(logger Logger) *GenerateOtpHandler {
	h.logger = normalizeLogger(logger)
	return h
}

func (h *GenerateOtpHandler) Execute(ctx context.Context, event GenerateOtpMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during OTP generation")
	default:
		return h.execute(ctx, event)
	}
}

func (h *GenerateOtpHandler) execute(ctx context.Context, event GenerateOtpMessage) error {
	if event.OtpType != OtpTypeVerifyAccount && event.OtpType != OtpTypeResetPassword {
		return goerrors.New("unknown OTP type", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"type": event.OtpType})
	}

	user := &User{}
	var code *OtpCode

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
				return ErrIdentityNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for OTP generation")
		}

		code, err = h.otp.IssueTx(ctx, tx, user.ID, event.OtpType)
		return err
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate OTP")
	}

	if err := h.notifier.Notify(ctx, Notification{
		Email:    user.Email,
		OtpValue: code.Value,
		OtpType:  event.OtpType,
	}); err != nil {
		h.logger.Warn("failed to deliver OTP to %s: %v", user.Email, err)
	}

	h.recordActivity(ctx, user, event.OtpType)

	if event.OnResponse != nil {
		event.OnResponse(&GenerateOtpResponse{Code: code})
	}

	return nil
}

func (h *GenerateOtpHandler) recordActivity(ctx context.Context, user *User, typ OtpType) {
	event := ActivityEvent{
		EventType: ActivityEventOtpIssued,
		Actor: ActorRef{
			ID:   user.ID.String(),
			Type: "user",
		},
		UserID: user.ID.String(),
		Metadata: map[string]any{
			"email": user.Email,
			"type":  typ,
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during OTP generation: %v", err)
	}
}
