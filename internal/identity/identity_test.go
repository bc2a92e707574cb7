package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestTokenParserParse(t *testing.T) {
	parser := NewTokenParser("secret")

	token := signToken(t, "secret", jwt.MapClaims{
		"sub":  "acct-123",
		"name": "  Alice ",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	ident, err := parser.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "acct-123", ident.AccountRef)
	require.Equal(t, "Alice", ident.NameHint)
}

func TestTokenParserParse_NoNameHint(t *testing.T) {
	parser := NewTokenParser("secret")
	token := signToken(t, "secret", jwt.MapClaims{"sub": "acct-123"})

	ident, err := parser.Parse(token)
	require.NoError(t, err)
	require.Empty(t, ident.NameHint)
}

func TestTokenParserParse_Rejects(t *testing.T) {
	parser := NewTokenParser("secret")

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong key", token: signToken(t, "other", jwt.MapClaims{"sub": "acct-123"})},
		{name: "missing subject", token: signToken(t, "secret", jwt.MapClaims{"name": "Alice"})},
		{name: "expired", token: signToken(t, "secret", jwt.MapClaims{
			"sub": "acct-123",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestFromAuthHeader(t *testing.T) {
	token, ok := FromAuthHeader("Bearer abc.def.ghi")
	require.True(t, ok)
	require.Equal(t, "abc.def.ghi", token)

	for _, header := range []string{"", "Basic abc", "Bearer ", "abc"} {
		if _, ok := FromAuthHeader(header); ok {
			t.Fatalf("FromAuthHeader(%q) accepted", header)
		}
	}
}
