package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestParseClaims(t *testing.T) {
	t.Run("Verified token", func(t *testing.T) {
		tok := signToken(t, "test-secret", jwt.MapClaims{
			"user_id": "u-1",
			"email":   "a@example.com",
			"role":    "store_owner",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})

		claims, err := ParseClaims(tok, "test-secret")
		require.NoError(t, err)
		assert.Equal(t, "u-1", claims.UserID)
		assert.Equal(t, RoleStoreOwner, claims.Role)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		tok := signToken(t, "other", jwt.MapClaims{"user_id": "u-1"})

		_, err := ParseClaims(tok, "test-secret")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("Unverified decode without secret", func(t *testing.T) {
		tok := signToken(t, "whatever", jwt.MapClaims{"user_id": "u-2", "role": "bogus"})

		claims, err := ParseClaims(tok, "")
		require.NoError(t, err)
		assert.Equal(t, "u-2", claims.UserID)
		assert.Equal(t, RoleCustomer, claims.Role)
	})

	t.Run("Expired without secret", func(t *testing.T) {
		tok := signToken(t, "whatever", jwt.MapClaims{
			"user_id": "u-2",
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})

		_, err := ParseClaims(tok, "")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("Missing user id", func(t *testing.T) {
		tok := signToken(t, "s", jwt.MapClaims{"role": "admin"})

		_, err := ParseClaims(tok, "s")
		assert.ErrorIs(t, err, ErrMissingUserID)
	})

	t.Run("Empty token", func(t *testing.T) {
		_, err := ParseClaims("", "s")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("Garbage token", func(t *testing.T) {
		_, err := ParseClaims("not-a-jwt", "")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestSession_Downgrade(t *testing.T) {
	s := New("tok", &Claims{UserID: "u-1", Role: RoleAdmin})

	tok, ok := s.Token()
	assert.True(t, ok)
	assert.Equal(t, "tok", tok)
	assert.Equal(t, RoleAdmin, s.Role())

	s.Downgrade()

	_, ok = s.Token()
	assert.False(t, ok)
	assert.False(t, s.Authenticated())
	assert.Equal(t, "u-1", s.UserID())
}

func TestAnonymous(t *testing.T) {
	s := Anonymous()
	_, ok := s.Token()
	assert.False(t, ok)
	assert.Equal(t, "", s.UserID())
}
