package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.Claims) string {
	t.Helper()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-only-secret"))
	require.NoError(t, err)

	return tok
}

func TestParseClaims(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	tok := signed(t, jwt.MapClaims{
		"token_type": "access",
		"user_id":    42,
		"exp":        now.Add(5 * time.Minute).Unix(),
	})

	c, err := ParseClaims(tok)
	require.NoError(t, err)
	require.Equal(t, "42", c.UserIDString())
	require.Equal(t, "access", c.TokenType)

	left, ok := c.ExpiresIn(now)
	require.True(t, ok)
	require.Equal(t, 5*time.Minute, left)

	left, ok = c.ExpiresIn(now.Add(time.Hour))
	require.True(t, ok)
	require.Negative(t, left)
}

func TestParseClaims_StringUserIDAndNoExp(t *testing.T) {
	t.Parallel()

	c, err := ParseClaims(signed(t, jwt.MapClaims{"user_id": "b7f1"}))
	require.NoError(t, err)
	require.Equal(t, "b7f1", c.UserIDString())

	_, ok := c.ExpiresIn(time.Now())
	require.False(t, ok)

	c, err = ParseClaims(signed(t, jwt.MapClaims{"sub": "9"}))
	require.NoError(t, err)
	require.Equal(t, "9", c.UserIDString())
}

func TestParseClaims_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ParseClaims("not-a-jwt")
	require.Error(t, err)
}
