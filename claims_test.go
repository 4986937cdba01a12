package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaimsAccessors(t *testing.T) {
	now := time.Now()
	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "subject-id",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UID:      "user-id",
		Email:    "user@example.com",
		Username: "user",
		UserRole: "member",
	}

	assert.Equal(t, "subject-id", claims.Subject())
	assert.Equal(t, "user-id", claims.UserID())
	assert.Equal(t, "user@example.com", claims.UserEmail())
	assert.Equal(t, "user", claims.UserName())
	assert.Equal(t, "member", claims.Role())
	assert.WithinDuration(t, now.Add(time.Hour), claims.Expires(), time.Second)
	assert.WithinDuration(t, now, claims.IssuedAt(), time.Second)
}

func TestJWTClaimsUserIDFallsBackToSubject(t *testing.T) {
	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-id"},
	}

	assert.Equal(t, "subject-id", claims.UserID())
}

func TestJWTClaimsZeroTimes(t *testing.T) {
	claims := &auth.JWTClaims{}

	assert.True(t, claims.Expires().IsZero())
	assert.True(t, claims.IssuedAt().IsZero())
}
