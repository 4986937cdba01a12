package auth_test

import (
	"testing"

	"github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true, // bcrypt can hash empty strings!
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := auth.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)

			err = auth.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestHashPasswordIsSalted(t *testing.T) {
	first, err := auth.HashPassword("password12345")
	require.NoError(t, err)

	second, err := auth.HashPassword("password12345")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	assert.NoError(t, auth.ComparePasswordAndHash("password12345", first))
	assert.NoError(t, auth.ComparePasswordAndHash("password12345", second))
}

func TestComparePasswordAndHash(t *testing.T) {
	password := "testPassword123!"
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  bool
	}{
		{
			name:     "Matching password",
			password: password,
			hash:     hash,
			wantErr:  false,
		},
		{
			name:     "Wrong password",
			password: "wrongPassword",
			hash:     hash,
			wantErr:  true,
		},
		{
			name:     "Empty stored hash",
			password: password,
			hash:     "",
			wantErr:  true,
		},
		{
			name:     "Malformed stored hash",
			password: password,
			hash:     "not-a-bcrypt-hash",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ComparePasswordAndHash(tt.password, tt.hash)

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			// every failure mode reports the same mismatch
			assert.ErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
		})
	}
}

func TestRandomPasswordHash(t *testing.T) {
	hash := auth.RandomPasswordHash()
	assert.NotEmpty(t, hash)

	// the plaintext is never exposed, the hash should not verify against
	// anything a caller could guess
	assert.Error(t, auth.ComparePasswordAndHash("password", hash))
}
