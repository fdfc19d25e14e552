package models

import (
	"strings"
	"time"
)

// AuthorizationToken is a validated bearer token. The server core never
// persists one: it exists transiently during request validation and in the
// completed-flow response handed back to the browser session.
type AuthorizationToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Issuer      string    `json:"issuer,omitempty"`
	Audience    string    `json:"audience,omitempty"`
	Scopes      []string  `json:"scopes"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsExpired reports whether the token's expiry instant has passed.
func (t *AuthorizationToken) IsExpired() bool {
	return !t.ExpiresAt.IsZero() && time.Now().After(t.ExpiresAt)
}

// HasScopes reports whether the token's granted scopes cover every
// required scope.
func (t *AuthorizationToken) HasScopes(required ...string) bool {
	granted := make(map[string]bool, len(t.Scopes))
	for _, s := range t.Scopes {
		granted[s] = true
	}
	for _, s := range required {
		if !granted[s] {
			return false
		}
	}
	return true
}

// Scope returns the granted scopes as a space-separated string per
// RFC 6749.
func (t *AuthorizationToken) Scope() string {
	return strings.Join(t.Scopes, " ")
}
