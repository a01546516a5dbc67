package server

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("super-secret")
	now := time.Now()

	tok, err := GenerateToken("user-123", "ana@example.com", secret, now, now.Add(time.Hour))
	require.NoError(t, err)

	claims, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "user-123", claims.Subject)
}

func TestParseTokenExpired(t *testing.T) {
	secret := []byte("secret")
	now := time.Now()

	tok, err := GenerateToken("u1", "", secret, now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)

	_, err = ParseToken(tok, secret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseTokenWrongSecret(t *testing.T) {
	now := time.Now()
	tok, err := GenerateToken("u2", "", []byte("right-secret"), now, now.Add(time.Hour))
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("wrong-secret"))
	assert.Error(t, err)
}

func TestParseTokenRejectsOtherAlgorithms(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u3"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("k"))
	assert.Error(t, err)
}

func TestParseTokenMalformed(t *testing.T) {
	_, err := ParseToken("not.a.jwt", []byte("k"))
	assert.Error(t, err)
}

func TestGenerateRefreshToken(t *testing.T) {
	a, err := generateRefreshToken()
	require.NoError(t, err)
	b, err := generateRefreshToken()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
