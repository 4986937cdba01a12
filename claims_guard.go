package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// claimsFingerprint captures the protected portion of a claim set so a
// decorator run can be checked for illegal mutations afterwards.
type claimsFingerprint struct {
	subject   string
	issuer    string
	uid       string
	email     string
	username  string
	role      string
	audience  []string
	issuedAt  *time.Time
	expiresAt *time.Time
}

func fingerprintClaims(claims *JWTClaims) claimsFingerprint {
	fp := claimsFingerprint{
		subject:  claims.RegisteredClaims.Subject,
		issuer:   claims.RegisteredClaims.Issuer,
		uid:      claims.UID,
		email:    claims.Email,
		username: claims.Username,
		role:     claims.UserRole,
	}

	if len(claims.RegisteredClaims.Audience) > 0 {
		fp.audience = append(fp.audience, claims.RegisteredClaims.Audience...)
	}

	if claims.RegisteredClaims.IssuedAt != nil {
		iat := claims.RegisteredClaims.IssuedAt.Time
		fp.issuedAt = &iat
	}

	if claims.RegisteredClaims.ExpiresAt != nil {
		exp := claims.RegisteredClaims.ExpiresAt.Time
		fp.expiresAt = &exp
	}

	return fp
}

func (fp claimsFingerprint) verify(claims *JWTClaims) error {
	if claims.RegisteredClaims.Subject != fp.subject {
		return immutableClaimViolation("sub")
	}

	if claims.RegisteredClaims.Issuer != fp.issuer {
		return immutableClaimViolation("iss")
	}

	if claims.UID != fp.uid {
		return immutableClaimViolation("uid")
	}

	if claims.Email != fp.email {
		return immutableClaimViolation("email")
	}

	if claims.Username != fp.username {
		return immutableClaimViolation("username")
	}

	if claims.UserRole != fp.role {
		return immutableClaimViolation("role")
	}

	if !audienceEqual(claims.RegisteredClaims.Audience, fp.audience) {
		return immutableClaimViolation("aud")
	}

	if err := verifyNumericDate(claims.RegisteredClaims.IssuedAt, fp.issuedAt, "iat"); err != nil {
		return err
	}

	return verifyNumericDate(claims.RegisteredClaims.ExpiresAt, fp.expiresAt, "exp")
}

func verifyNumericDate(date *jwt.NumericDate, expected *time.Time, field string) error {
	if expected == nil {
		if date != nil {
			return immutableClaimViolation(field)
		}
		return nil
	}

	if date == nil || !date.Time.Equal(*expected) {
		return immutableClaimViolation(field)
	}

	return nil
}

func audienceEqual(a jwt.ClaimStrings, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func immutableClaimViolation(field string) error {
	clone := ErrImmutableClaimMutation.Clone()
	if clone == nil {
		return ErrImmutableClaimMutation
	}
	clone.Message = fmt.Sprintf("immutable claim mutated: %s", field)
	clone.Source = ErrImmutableClaimMutation
	return clone.WithMetadata(map[string]any{"claim": field})
}
