package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher()

	hash, err := h.Hash("testpassword123")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, h.Verify("testpassword123", hash))
	assert.False(t, h.Verify("wrongpassword", hash))
}

func TestPasswordHasher_RejectsLongPasswords(t *testing.T) {
	h := NewPasswordHasher()

	long := strings.Repeat("a", MaxPasswordBytes+1)
	_, err := h.Hash(long)
	require.ErrorIs(t, err, ErrPasswordTooLong)

	// Exactly at the ceiling is fine.
	max := strings.Repeat("a", MaxPasswordBytes)
	hash, err := h.Hash(max)
	require.NoError(t, err)
	assert.True(t, h.Verify(max, hash))
}

func TestPasswordHasher_MalformedHashIsVerifyFailure(t *testing.T) {
	h := NewPasswordHasher()

	assert.False(t, h.Verify("anything", "not-a-bcrypt-hash"))
	assert.False(t, h.Verify("anything", ""))
}
