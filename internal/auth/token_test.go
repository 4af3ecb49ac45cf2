package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestCodec(accessTTL, refreshTTL time.Duration) *TokenCodec {
	return NewTokenCodec(testSecret, accessTTL, refreshTTL)
}

func TestTokenCodec_AccessRoundTrip(t *testing.T) {
	codec := newTestCodec(15*time.Minute, 7*24*time.Hour)

	token, err := codec.IssueAccess(42, "")
	require.NoError(t, err)

	claims, err := codec.Decode(token, true)
	require.NoError(t, err)

	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenCodec_PairSharesJTI(t *testing.T) {
	codec := newTestCodec(15*time.Minute, 7*24*time.Hour)

	access, err := codec.IssueAccess(7, "shared-jti")
	require.NoError(t, err)
	refresh, err := codec.IssueRefresh(7, "shared-jti")
	require.NoError(t, err)

	accessClaims, err := codec.Decode(access, true)
	require.NoError(t, err)
	refreshClaims, err := codec.Decode(refresh, true)
	require.NoError(t, err)

	assert.Equal(t, "shared-jti", accessClaims.ID)
	assert.Equal(t, "shared-jti", refreshClaims.ID)
	assert.Equal(t, TokenTypeAccess, accessClaims.TokenType)
	assert.Equal(t, TokenTypeRefresh, refreshClaims.TokenType)
}

func TestTokenCodec_ExpiredToken(t *testing.T) {
	codec := newTestCodec(-1*time.Minute, 7*24*time.Hour)

	token, err := codec.IssueAccess(1, "jti-1")
	require.NoError(t, err)

	_, err = codec.Decode(token, true)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// Expiry check disabled still recovers the original claims; revocation
	// cleanup relies on this.
	claims, err := codec.Decode(token, false)
	require.NoError(t, err)
	assert.Equal(t, "jti-1", claims.ID)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
}

func TestTokenCodec_BadSignature(t *testing.T) {
	codec := newTestCodec(15*time.Minute, 7*24*time.Hour)
	other := NewTokenCodec("other-secret", 15*time.Minute, 7*24*time.Hour)

	token, err := other.IssueAccess(1, "")
	require.NoError(t, err)

	_, err = codec.Decode(token, true)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Signature is verified even with expiry checks disabled.
	_, err = codec.Decode(token, false)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_MalformedToken(t *testing.T) {
	codec := newTestCodec(15*time.Minute, 7*24*time.Hour)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := codec.Decode(tok, true)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestTokenCodec_RejectsWrongAlgorithm(t *testing.T) {
	codec := newTestCodec(15*time.Minute, 7*24*time.Hour)

	claims := &Claims{
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = codec.Decode(token, true)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
