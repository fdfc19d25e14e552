// Package flow drives the browser-side OAuth2 implicit handshake: it
// composes the authorization request URL, tracks the outstanding
// anti-forgery state per flow instance, and parses the token the identity
// provider returns at the redirect target.
package flow

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/legit-games/apidocs-gateway/errors"
	"github.com/legit-games/apidocs-gateway/models"
	"github.com/legit-games/apidocs-gateway/registry"
)

// DefaultInstanceTTL bounds how long an initiated flow may wait for its
// callback before it expires (10 minutes).
const DefaultInstanceTTL = 10 * time.Minute

// Orchestrator manages flow instances against one client registration.
// Instances are isolated by opaque id so concurrent flows from different
// browser tabs or users never interfere.
type Orchestrator struct {
	schemes *registry.SchemeRegistry
	client  *models.ClientRegistration
	store   InstanceStore
	ttl     time.Duration
}

// NewOrchestrator creates an orchestrator. A zero ttl falls back to
// DefaultInstanceTTL.
func NewOrchestrator(schemes *registry.SchemeRegistry, client *models.ClientRegistration, store InstanceStore, ttl time.Duration) *Orchestrator {
	if ttl <= 0 {
		ttl = DefaultInstanceTTL
	}
	return &Orchestrator{schemes: schemes, client: client, store: store, ttl: ttl}
}

// Authorization is the result of starting a flow: the URL the browser
// should navigate to and the instance id the callback must present.
type Authorization struct {
	FlowID string `json:"flow_id"`
	URL    string `json:"authorization_url"`
}

// NewAuthorization starts a fresh flow instance and composes the
// authorization request URL for the implicit flow: response_type=token,
// client id, redirect URI, space-joined scopes and a freshly generated
// opaque state value.
func (o *Orchestrator) NewAuthorization(ctx context.Context, schemeName, redirectURI string, requestedScopes []string) (*Authorization, error) {
	scheme, ok := o.schemes.Get(schemeName)
	if !ok {
		return nil, errors.ErrUnknownScheme
	}
	for _, scope := range requestedScopes {
		if !scheme.HasScope(scope) {
			return nil, fmt.Errorf("%w: %s", errors.ErrScopeNotAllowed, scope)
		}
	}
	if !o.client.AllowsRedirect(redirectURI) {
		return nil, errors.ErrRedirectURINotAllowed
	}

	state, err := generateState()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	inst := &models.FlowInstance{
		ID:              uuid.Must(uuid.NewRandom()).String(),
		Scheme:          scheme.Name,
		ClientID:        o.client.ClientID,
		RedirectURI:     redirectURI,
		RequestedScopes: append([]string(nil), requestedScopes...),
		State:           state,
		Status:          models.FlowInitiated,
		CreatedAt:       now,
		ExpiresAt:       now.Add(o.ttl),
	}
	if err := o.store.Save(ctx, inst, o.ttl); err != nil {
		return nil, err
	}

	cfg := &oauth2.Config{
		ClientID:    o.client.ClientID,
		RedirectURL: redirectURI,
		Scopes:      requestedScopes,
		Endpoint:    oauth2.Endpoint{AuthURL: scheme.AuthorizationURL},
	}
	authURL := cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("response_type", "token"))

	return &Authorization{FlowID: inst.ID, URL: authURL}, nil
}

// ReceiveCallback consumes the parameters the provider returned at the
// redirect target (relayed query or fragment values) for the given flow
// instance. The status transition is a check-and-set inside the store
// update, so a replayed callback can never complete the same flow twice.
//
// On any rejection the instance moves to its terminal failed status and
// the caller must start a fresh flow to retry.
func (o *Orchestrator) ReceiveCallback(ctx context.Context, flowID string, values url.Values) (*models.AuthorizationToken, error) {
	var (
		token   *models.AuthorizationToken
		flowErr error
	)
	_, err := o.store.Update(ctx, flowID, func(inst *models.FlowInstance) error {
		if inst.Terminal() {
			return errors.ErrFlowAlreadyCompleted
		}
		if values.Get("state") != inst.State {
			inst.Status = models.FlowFailed
			flowErr = errors.ErrStateMismatch
			return nil
		}
		parsed, perr := parseCallback(values, inst)
		if perr != nil {
			inst.Status = models.FlowFailed
			flowErr = perr
			return nil
		}
		inst.Status = models.FlowCompleted
		token = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	if flowErr != nil {
		return nil, flowErr
	}
	return token, nil
}

// parseCallback turns the provider's redirect parameters into an
// AuthorizationToken. The provider reporting an error, or omitting the
// access token entirely, is ErrTokenMissing; a token that cannot be
// parsed is ErrMalformedToken.
func parseCallback(values url.Values, inst *models.FlowInstance) (*models.AuthorizationToken, error) {
	if values.Get("error") != "" {
		return nil, errors.ErrTokenMissing
	}
	access := values.Get("access_token")
	if access == "" {
		return nil, errors.ErrTokenMissing
	}
	if strings.ContainsAny(access, " \t\r\n") {
		return nil, errors.ErrMalformedToken
	}

	tokenType := values.Get("token_type")
	if tokenType == "" {
		tokenType = "Bearer"
	}

	var expiresAt time.Time
	if raw := values.Get("expires_in"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return nil, errors.ErrMalformedToken
		}
		expiresAt = time.Now().Add(time.Duration(seconds) * time.Second)
	}

	// Per RFC 6749 §3.3 an absent scope parameter means the granted
	// scopes equal the requested ones.
	scopes := strings.Fields(values.Get("scope"))
	if len(scopes) == 0 {
		scopes = append([]string(nil), inst.RequestedScopes...)
	}

	return &models.AuthorizationToken{
		AccessToken: access,
		TokenType:   tokenType,
		Scopes:      scopes,
		ExpiresAt:   expiresAt,
	}, nil
}

// generateState returns an opaque URL-safe anti-forgery value.
func generateState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
