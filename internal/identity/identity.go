// Package identity adapts the external identity provider: it answers "who is
// calling, if anyone" from a bearer token and nothing more.
package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail parsing or verification.
var ErrInvalidToken = errors.New("identity: invalid token")

// Identity is the stable external reference for an authenticated caller plus
// a display-name hint used when provisioning an artist record.
type Identity struct {
	AccountRef string
	NameHint   string
}

// Provider resolves bearer tokens into identities.
type Provider interface {
	Parse(token string) (*Identity, error)
}

// TokenParser verifies HS256-signed tokens issued by the identity provider.
type TokenParser struct {
	key []byte
}

// NewTokenParser constructs a parser for the shared signing secret.
func NewTokenParser(secret string) *TokenParser {
	return &TokenParser{key: []byte(secret)}
}

type providerClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Parse verifies the token and extracts the subject and name-hint claims.
// The subject is required; the name hint is optional.
func (p *TokenParser) Parse(token string) (*Identity, error) {
	claims := &providerClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.key, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &Identity{
		AccountRef: claims.Subject,
		NameHint:   strings.TrimSpace(claims.Name),
	}, nil
}

// FromAuthHeader extracts the bearer token from an Authorization header.
func FromAuthHeader(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}
