package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Text codes surfaced alongside structured errors so API layers can key
// behavior off a stable identifier instead of a message string.
const (
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeAccountBlocked     = "ACCOUNT_BLOCKED"
	TextCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	TextCodeIdentityNotFound   = "IDENTITY_NOT_FOUND"
	TextCodeOtpInvalid         = "OTP_INVALID_OR_EXPIRED"
	TextCodeInvalidOldPassword = "INVALID_OLD_PASSWORD"
	TextCodeInsufficientRights = "INSUFFICIENT_RIGHTS"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeImmutableClaim     = "IMMUTABLE_CLAIM_MUTATION"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrMismatchedHashAndPassword is returned whenever the presented
// credentials do not match, including unknown identifiers and malformed
// stored hashes, so callers cannot probe for registered accounts.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrUserBlocked is returned when a blocked account attempts to authenticate
var ErrUserBlocked = goerrors.New("account is blocked", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountBlocked).
	WithCode(goerrors.CodeUnauthorized)

// ErrDuplicateEmail is returned when registration hits the unique email constraint
var ErrDuplicateEmail = goerrors.New("a user with this email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrOtpInvalid collapses wrong value, expired, superseded, and already
// used codes into one outcome to resist guessing attacks.
var ErrOtpInvalid = goerrors.New("invalid or expired OTP", goerrors.CategoryValidation).
	WithTextCode(TextCodeOtpInvalid).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidOldPassword is returned by the change password flow when the
// current password does not match.
var ErrInvalidOldPassword = goerrors.New("invalid old password", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidOldPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrInsufficientRights is the single outcome for every rights guard
// denial; it never reveals which capability was missing or whether the
// caller has an admin profile at all.
var ErrInsufficientRights = goerrors.New("you do not have sufficient permissions to perform this action", goerrors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientRights).
	WithCode(goerrors.CodeForbidden)

// ErrNoEmptyString rejects empty passwords before they reach the hasher
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is returned when a bearer token is past its expiry
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned when a bearer token fails signature or
// structural validation.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrImmutableClaimMutation is returned when a claims decorator touches
// a registered or identity claim instead of the extension fields.
var ErrImmutableClaimMutation = goerrors.New("immutable claim mutated", goerrors.CategoryInternal).
	WithTextCode(TextCodeImmutableClaim)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// isUniqueViolation detects unique constraint failures across the
// dialects we run against (sqlite in tests, postgres in production).
// The repository layer maps driver errors before they reach us, so the
// raw driver messages are a fallback only.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if repository.IsDuplicatedKey(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
