package models

import (
	"net/url"
	"sort"

	"github.com/legit-games/apidocs-gateway/errors"
)

// FlowImplicit is the only flow kind in scope: the browser is redirected
// to the provider and the token comes back in the URL fragment.
const FlowImplicit = "implicit"

// SecurityScheme is a named OAuth2 configuration published by the hosting
// application. One instance per identity provider, read-only after
// startup.
type SecurityScheme struct {
	Name             string            `json:"name"`
	Flow             string            `json:"flow"`
	AuthorizationURL string            `json:"authorization_url"`
	// Scopes maps scope name to its human-readable description.
	Scopes map[string]string `json:"scopes"`
}

// Validate checks the scheme at definition time: a well-formed absolute
// authorization endpoint and a non-empty scope set.
func (s *SecurityScheme) Validate() error {
	if s.Name == "" {
		return errors.ErrInvalidSchemeConfig
	}
	if s.Flow != FlowImplicit {
		return errors.ErrInvalidSchemeConfig
	}
	u, err := url.Parse(s.AuthorizationURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errors.ErrInvalidSchemeConfig
	}
	if len(s.Scopes) == 0 {
		return errors.ErrInvalidSchemeConfig
	}
	return nil
}

// HasScope reports whether the scheme declares the named scope.
func (s *SecurityScheme) HasScope(name string) bool {
	_, ok := s.Scopes[name]
	return ok
}

// ScopeNames returns the declared scope names in sorted order so document
// output stays reproducible.
func (s *SecurityScheme) ScopeNames() []string {
	names := make([]string, 0, len(s.Scopes))
	for name := range s.Scopes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
