package auth

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL applies when no positive TTL is configured.
const DefaultTokenTTL = 15 * time.Minute

// ClientClaims extends the registered claims with the client's scopes.
// Subject is the client ID.
type ClientClaims struct {
	jwt.RegisteredClaims
	Scopes []string `json:"scopes"`
}

// HasScope reports whether the token grants scope. ScopeWrite implies
// ScopeRead.
func (c *ClientClaims) HasScope(scope string) bool {
	if slices.Contains(c.Scopes, scope) {
		return true
	}
	return scope == ScopeRead && slices.Contains(c.Scopes, ScopeWrite)
}

// Token is an issued access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Scopes      []string  `json:"scopes"`
}

// GenerateAccessToken signs an HS256 token for clientID.
//
// Parameters:
//   - clientID: becomes the token subject
//   - scopes: granted scopes, copied into the token
//   - secret: HMAC signing key
//   - ttl: token lifetime; zero or negative means DefaultTokenTTL
//
// Returns:
//   - Token: the signed token and its expiry
//   - error: if signing fails
func GenerateAccessToken(clientID string, scopes []string, secret string, ttl time.Duration) (Token, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now()
	expires := now.Add(ttl)
	claims := ClientClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
		Scopes: slices.Clone(scopes),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return Token{}, fmt.Errorf("signing access token: %w", err)
	}
	return Token{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresAt:   expires.UTC().Truncate(time.Second),
		Scopes:      claims.Scopes,
	}, nil
}

// ParseToken validates a token's signature, expiry and subject.
func ParseToken(tokenString, secret string) (*ClientClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ClientClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*ClientClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims, nil
}
