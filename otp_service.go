package auth

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	// DefaultOtpLength is the number of numeric digits in a generated code
	DefaultOtpLength = 6
	// DefaultOtpTTL is how long a code stays valid after issuance
	DefaultOtpTTL = 15 * time.Minute
)

// OtpService owns the OTP lifecycle: issuance with supersession of
// prior codes, validation, explicit consumption, and expiry sweeps.
type OtpService struct {
	repo   RepositoryManager
	ttl    time.Duration
	length int
	logger Logger
	now    func() time.Time
}

// OtpOption customizes an OtpService.
type OtpOption func(*OtpService)

// WithOtpTTL overrides the default code lifetime.
func WithOtpTTL(ttl time.Duration) OtpOption {
	return func(s *OtpService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithOtpLength overrides the number of digits in generated codes.
func WithOtpLength(length int) OtpOption {
	return func(s *OtpService) {
		if length > 0 {
			s.length = length
		}
	}
}

// WithOtpClock overrides the time source, used by tests to force expiry.
func WithOtpClock(now func() time.Time) OtpOption {
	return func(s *OtpService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewOtpService creates an OtpService with the default TTL and length.
func NewOtpService(repo RepositoryManager, opts ...OtpOption) *OtpService {
	s := &OtpService{
		repo:   repo,
		ttl:    DefaultOtpTTL,
		length: DefaultOtpLength,
		logger: defLogger{},
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

func (s *OtpService) WithLogger(logger Logger) *OtpService {
	s.logger = normalizeLogger(logger)
	return s
}

// Issue mints a new code for (user, type) inside one transaction:
// every previously unused code of that type is invalidated before the
// replacement is inserted, so at most one unused code exists per pair.
func (s *OtpService) Issue(ctx context.Context, userID uuid.UUID, typ OtpType) (*OtpCode, error) {
	var code *OtpCode

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		code, err = s.IssueTx(ctx, tx, userID, typ)
		return err
	})

	if err != nil {
		return nil, err
	}

	return code, nil
}

// IssueTx is Issue running on the caller's transaction, for flows that
// mint a code atomically with other writes (e.g. registration).
func (s *OtpService) IssueTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, typ OtpType) (*OtpCode, error) {
	if userID == uuid.Nil {
		return nil, goerrors.New("otp issuance requires a user id", goerrors.CategoryBadInput)
	}

	value, err := GenerateOtpValue(s.length)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate OTP value")
	}

	superseded, err := s.repo.OtpCodes().InvalidateActiveTx(ctx, tx, userID, typ)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to invalidate previous OTP codes")
	}

	if superseded > 0 {
		s.logger.Debug("superseded %d active OTP codes for user %s type %s", superseded, userID.String(), typ)
	}

	code := &OtpCode{
		UserID:    userID,
		Value:     value,
		Type:      typ,
		Status:    OtpStatusUnused,
		ExpiresAt: s.now().Add(s.ttl),
	}

	code, err = s.repo.OtpCodes().CreateTx(ctx, tx, code)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store OTP code")
	}

	return code, nil
}

// Validate is a pure read: it matches value, type, unused status, and
// a strictly future expiration. Consumption is a separate step so the
// caller can commit it together with the dependent effect. Every
// failure mode reports the same generic error.
func (s *OtpService) Validate(ctx context.Context, userID uuid.UUID, value string, typ OtpType) (*OtpCode, error) {
	return s.ValidateTx(ctx, nil, userID, value, typ)
}

// ValidateTx validates against the caller's transaction when one is open.
func (s *OtpService) ValidateTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, value string, typ OtpType) (*OtpCode, error) {
	var code *OtpCode
	var err error

	if tx != nil {
		code, err = s.repo.OtpCodes().FindValidTx(ctx, tx, userID, value, typ, s.now())
	} else {
		code, err = s.repo.OtpCodes().FindValid(ctx, userID, value, typ, s.now())
	}

	if err != nil {
		// wrong value, expired, superseded, and consumed all collapse
		// into the same outcome
		s.logger.Debug("OTP validation failed for user %s type %s: %v", userID.String(), typ, err)
		return nil, ErrOtpInvalid
	}

	return code, nil
}

// ConsumeTx transitions a validated code to used. Run it in the same
// transaction as the effect the code authorizes; if the effect rolls
// back, so does consumption, and the code stays valid for a retry.
func (s *OtpService) ConsumeTx(ctx context.Context, tx bun.IDB, code *OtpCode) error {
	if code == nil {
		return ErrOtpInvalid
	}

	if err := s.repo.OtpCodes().MarkUsedTx(ctx, tx, code.ID); err != nil {
		s.logger.Debug("OTP consumption failed for code %s: %v", code.ID.String(), err)
		return ErrOtpInvalid
	}

	code.Status = OtpStatusUsed
	return nil
}

// SweepExpired invalidates every unused code whose expiration has
// passed. Safe to run repeatedly and concurrently with validation:
// matching is decided by the expiration comparison at read time, never
// by the sweep schedule.
func (s *OtpService) SweepExpired(ctx context.Context) (int64, error) {
	swept, err := s.repo.OtpCodes().SweepExpired(ctx, s.now())
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sweep expired OTP codes")
	}

	if swept > 0 {
		s.logger.Info("swept %d expired OTP codes", swept)
	}

	return swept, nil
}

// GenerateOtpValue returns a numeric code of the given length sourced
// from crypto/rand. Collisions across users are acceptable because
// validation always scopes by (user, value, type, status, expiry).
func GenerateOtpValue(length int) (string, error) {
	if length <= 0 {
		length = DefaultOtpLength
	}

	var sb strings.Builder
	sb.Grow(length)

	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}

	return sb.String(), nil
}
