package auth

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nerrad567/gray-logic-codec/internal/infrastructure/config"
)

// Token scopes.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
)

// Auth errors.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrTokenInvalid       = errors.New("auth: invalid token")
	ErrInvalidHash        = errors.New("auth: invalid secret hash")
	ErrEmptySecret        = errors.New("auth: empty secret")
	ErrInvalidScope       = errors.New("auth: invalid scope")
)

// ValidScope reports whether s is a known scope.
func ValidScope(s string) bool {
	return s == ScopeRead || s == ScopeWrite
}

// Authenticator checks client credentials against the configured clients.
type Authenticator struct {
	clients map[string]config.APIClient
}

// NewAuthenticator indexes clients by ID. Every client needs an ID, a
// secret hash and only known scopes.
func NewAuthenticator(clients []config.APIClient) (*Authenticator, error) {
	a := &Authenticator{clients: make(map[string]config.APIClient, len(clients))}
	for i, c := range clients {
		if c.ID == "" || c.SecretHash == "" {
			return nil, fmt.Errorf("%w: client %d needs id and secret_hash", ErrInvalidCredentials, i)
		}
		if _, _, _, err := decodePHC(c.SecretHash); err != nil {
			return nil, fmt.Errorf("client %q: %w", c.ID, err)
		}
		for _, s := range c.Scopes {
			if !ValidScope(s) {
				return nil, fmt.Errorf("client %q: %w: %q", c.ID, ErrInvalidScope, s)
			}
		}
		if _, dup := a.clients[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate client %q", ErrInvalidCredentials, c.ID)
		}
		c.Scopes = slices.Clone(c.Scopes)
		a.clients[c.ID] = c
	}
	return a, nil
}

// Authenticate returns the scopes of the client identified by id and
// secret. Unknown IDs and wrong secrets both yield ErrInvalidCredentials.
func (a *Authenticator) Authenticate(id, secret string) ([]string, error) {
	c, ok := a.clients[id]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	match, err := VerifySecret(secret, c.SecretHash)
	if err != nil {
		return nil, fmt.Errorf("verifying client %q: %w", id, err)
	}
	if !match {
		return nil, ErrInvalidCredentials
	}
	return slices.Clone(c.Scopes), nil
}

// Len returns the number of configured clients.
func (a *Authenticator) Len() int { return len(a.clients) }
