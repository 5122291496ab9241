package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret", 4)
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", hash)

	require.True(t, VerifyPassword(hash, "s3cret"))
	require.False(t, VerifyPassword(hash, "wrong"))
	require.False(t, VerifyPassword(hash, ""))
}

func TestIdenticalPasswordsHashDifferently(t *testing.T) {
	// bcrypt salts per call; equal passwords must not share a digest
	h1, err := HashPassword("same", 4)
	require.NoError(t, err)
	h2, err := HashPassword("same", 4)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestHashPassword_InvalidCost(t *testing.T) {
	_, err := HashPassword("x", 99)
	require.Error(t, err)
}
