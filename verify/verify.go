// Package verify validates inbound bearer tokens against the gateway's
// trust configuration: signature, issuer, audience and expiry. Every
// failure denies; there is no allow-by-default path.
package verify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/legit-games/apidocs-gateway/errors"
	"github.com/legit-games/apidocs-gateway/models"
)

// DefaultFetchTimeout bounds a JWKS lookup during validation. Hitting it
// fails the request closed.
const DefaultFetchTimeout = 5 * time.Second

// Config is the trust configuration for the validator. Exactly one of
// SharedKey (HS256) or JWKSURL (RS256 via the provider's key set) must be
// set.
type Config struct {
	// Issuer is the expected iss claim. Empty skips the check.
	Issuer string

	// Audience is the expected aud claim. Empty skips the check.
	Audience string

	// SharedKey verifies HS256 signatures.
	SharedKey []byte

	// JWKSURL is the provider's key-set endpoint for RS256 verification.
	JWKSURL string

	// FetchTimeout bounds JWKS lookups. Zero means DefaultFetchTimeout.
	FetchTimeout time.Duration
}

// Validator validates bearer tokens. Safe for concurrent use; the JWKS
// cache refreshes itself in the background.
type Validator struct {
	issuer       string
	audience     string
	sharedKey    []byte
	jwksURL      string
	jwksCache    *jwk.Cache
	fetchTimeout time.Duration
}

// NewValidator creates a validator from the trust configuration.
func NewValidator(ctx context.Context, cfg Config) (*Validator, error) {
	if len(cfg.SharedKey) == 0 && cfg.JWKSURL == "" {
		return nil, fmt.Errorf("verify: either a shared key or a JWKS URL is required")
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	v := &Validator{
		issuer:       cfg.Issuer,
		audience:     cfg.Audience,
		sharedKey:    cfg.SharedKey,
		jwksURL:      cfg.JWKSURL,
		fetchTimeout: timeout,
	}
	if cfg.JWKSURL != "" {
		cache := jwk.NewCache(ctx)
		if err := cache.Register(cfg.JWKSURL); err != nil {
			return nil, fmt.Errorf("verify: failed to register JWKS URL: %w", err)
		}
		v.jwksCache = cache
	}
	return v, nil
}

// ValidateToken verifies the raw bearer token and returns its parsed,
// validated form. Any failure collapses to ErrInvalidToken for the
// caller; the wrapped detail is for logs only and must not reach a
// response body.
func (v *Validator) ValidateToken(ctx context.Context, raw string) (*models.AuthorizationToken, error) {
	ctx, cancel := context.WithTimeout(ctx, v.fetchTimeout)
	defer cancel()

	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		return v.keyFor(ctx, token)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, errors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.ErrInvalidToken
	}
	return v.validateClaims(raw, claims)
}

// keyFor resolves the verification key for the token: the shared key for
// HS256, otherwise the JWKS key matching the token's kid header.
func (v *Validator) keyFor(ctx context.Context, token *jwt.Token) (interface{}, error) {
	if len(v.sharedKey) > 0 {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.sharedKey, nil
	}

	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("token header missing kid")
	}
	keySet, err := v.jwksCache.Get(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}
	key, found := keySet.LookupKeyID(kid)
	if !found {
		return nil, fmt.Errorf("key ID %s not found in JWKS", kid)
	}
	var rawKey interface{}
	if err := key.Raw(&rawKey); err != nil {
		return nil, fmt.Errorf("failed to get raw key: %w", err)
	}
	return rawKey, nil
}

// validateClaims checks issuer, audience and expiry, then lifts the
// claims into an AuthorizationToken.
func (v *Validator) validateClaims(raw string, claims jwt.MapClaims) (*models.AuthorizationToken, error) {
	issuer, _ := claims.GetIssuer()
	if v.issuer != "" && issuer != v.issuer {
		return nil, fmt.Errorf("%w: issuer mismatch", errors.ErrInvalidToken)
	}

	audiences, _ := claims.GetAudience()
	if v.audience != "" {
		found := false
		for _, aud := range audiences {
			if aud == v.audience {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: audience mismatch", errors.ErrInvalidToken)
		}
	}

	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil || expiry.Before(time.Now()) {
		return nil, fmt.Errorf("%w: token expired", errors.ErrInvalidToken)
	}

	var scopes []string
	if scopeClaim, exists := claims["scope"]; exists {
		if scopeStr, ok := scopeClaim.(string); ok {
			scopes = strings.Fields(scopeStr)
		}
	}

	audience := ""
	if len(audiences) > 0 {
		audience = audiences[0]
	}

	return &models.AuthorizationToken{
		AccessToken: raw,
		TokenType:   "Bearer",
		Issuer:      issuer,
		Audience:    audience,
		Scopes:      scopes,
		ExpiresAt:   expiry.Time,
	}, nil
}
