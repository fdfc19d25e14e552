package flow

import (
	"context"
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/legit-games/apidocs-gateway/errors"
	"github.com/legit-games/apidocs-gateway/models"
	"github.com/legit-games/apidocs-gateway/registry"
)

func testOrchestrator(t *testing.T) (*Orchestrator, *MemoryInstanceStore) {
	t.Helper()
	schemes := registry.NewSchemeRegistry()
	err := schemes.Define(&models.SecurityScheme{
		Name:             "oauth2",
		Flow:             models.FlowImplicit,
		AuthorizationURL: "https://idp.example.com/oauth/authorize",
		Scopes: map[string]string{
			"demo-test-api-scope": "Call the demo write endpoint",
			"demo-admin-scope":    "Call the admin endpoints",
		},
	})
	if err != nil {
		t.Fatalf("define scheme: %v", err)
	}
	client := &models.ClientRegistration{
		ClientID:     "explorer-client",
		RedirectURIs: []string{"https://gateway.example.com/oauth2/callback"},
	}
	store := NewMemoryInstanceStore()
	return NewOrchestrator(schemes, client, store, time.Minute), store
}

func startFlow(t *testing.T, o *Orchestrator) *Authorization {
	t.Helper()
	auth, err := o.NewAuthorization(context.Background(), "oauth2",
		"https://gateway.example.com/oauth2/callback", []string{"demo-test-api-scope"})
	if err != nil {
		t.Fatalf("new authorization: %v", err)
	}
	return auth
}

func TestNewAuthorizationURL(t *testing.T) {
	o, store := testOrchestrator(t)
	auth := startFlow(t, o)

	u, err := url.Parse(auth.URL)
	if err != nil {
		t.Fatalf("parse authorization URL: %v", err)
	}
	if u.Scheme != "https" || u.Host != "idp.example.com" || u.Path != "/oauth/authorize" {
		t.Fatalf("authorization endpoint mangled: %s", auth.URL)
	}

	q := u.Query()
	if q.Get("response_type") != "token" {
		t.Fatalf("response_type = %q, want token", q.Get("response_type"))
	}
	if q.Get("client_id") != "explorer-client" {
		t.Fatalf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "https://gateway.example.com/oauth2/callback" {
		t.Fatalf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if q.Get("scope") != "demo-test-api-scope" {
		t.Fatalf("scope = %q", q.Get("scope"))
	}
	if q.Get("state") == "" {
		t.Fatal("state parameter missing")
	}

	inst, err := store.Get(context.Background(), auth.FlowID)
	if err != nil {
		t.Fatalf("stored instance missing: %v", err)
	}
	if inst.State != q.Get("state") {
		t.Fatal("stored state does not match the issued URL")
	}
	if inst.Status != models.FlowInitiated {
		t.Fatalf("fresh instance status = %s", inst.Status)
	}
}

func TestNewAuthorizationRejections(t *testing.T) {
	o, _ := testOrchestrator(t)
	ctx := context.Background()
	redirect := "https://gateway.example.com/oauth2/callback"

	if _, err := o.NewAuthorization(ctx, "missing", redirect, nil); !errors.Is(err, errors.ErrUnknownScheme) {
		t.Fatalf("expected ErrUnknownScheme, got %v", err)
	}
	if _, err := o.NewAuthorization(ctx, "oauth2", redirect, []string{"undeclared"}); !errors.Is(err, errors.ErrScopeNotAllowed) {
		t.Fatalf("expected ErrScopeNotAllowed, got %v", err)
	}
	if _, err := o.NewAuthorization(ctx, "oauth2", "https://evil.example.com/steal", nil); !errors.Is(err, errors.ErrRedirectURINotAllowed) {
		t.Fatalf("expected ErrRedirectURINotAllowed, got %v", err)
	}
}

func callbackValues(t *testing.T, store *MemoryInstanceStore, flowID string) url.Values {
	t.Helper()
	inst, err := store.Get(context.Background(), flowID)
	if err != nil {
		t.Fatalf("load instance: %v", err)
	}
	return url.Values{
		"access_token": {"header.payload.signature"},
		"token_type":   {"Bearer"},
		"expires_in":   {"3600"},
		"scope":        {"demo-test-api-scope"},
		"state":        {inst.State},
	}
}

func TestReceiveCallbackSuccess(t *testing.T) {
	o, store := testOrchestrator(t)
	auth := startFlow(t, o)
	ctx := context.Background()

	token, err := o.ReceiveCallback(ctx, auth.FlowID, callbackValues(t, store, auth.FlowID))
	if err != nil {
		t.Fatalf("receive callback: %v", err)
	}
	if token.AccessToken != "header.payload.signature" {
		t.Fatalf("access token = %q", token.AccessToken)
	}
	if !reflect.DeepEqual(token.Scopes, []string{"demo-test-api-scope"}) {
		t.Fatalf("granted scopes = %v", token.Scopes)
	}
	if token.IsExpired() {
		t.Fatal("fresh token reports expired")
	}

	inst, err := store.Get(ctx, auth.FlowID)
	if err != nil {
		t.Fatalf("load instance: %v", err)
	}
	if inst.Status != models.FlowCompleted {
		t.Fatalf("instance status = %s, want completed", inst.Status)
	}
}

func TestReceiveCallbackReplayFails(t *testing.T) {
	o, store := testOrchestrator(t)
	auth := startFlow(t, o)
	ctx := context.Background()
	values := callbackValues(t, store, auth.FlowID)

	if _, err := o.ReceiveCallback(ctx, auth.FlowID, values); err != nil {
		t.Fatalf("first callback: %v", err)
	}
	// Replays fail regardless of payload, valid or garbage.
	if _, err := o.ReceiveCallback(ctx, auth.FlowID, values); !errors.Is(err, errors.ErrFlowAlreadyCompleted) {
		t.Fatalf("expected ErrFlowAlreadyCompleted, got %v", err)
	}
	if _, err := o.ReceiveCallback(ctx, auth.FlowID, url.Values{}); !errors.Is(err, errors.ErrFlowAlreadyCompleted) {
		t.Fatalf("expected ErrFlowAlreadyCompleted on garbage replay, got %v", err)
	}
}

func TestReceiveCallbackStateMismatch(t *testing.T) {
	o, store := testOrchestrator(t)
	auth := startFlow(t, o)
	ctx := context.Background()

	values := callbackValues(t, store, auth.FlowID)
	values.Set("state", "forged-state")
	if _, err := o.ReceiveCallback(ctx, auth.FlowID, values); !errors.Is(err, errors.ErrStateMismatch) {
		t.Fatalf("expected ErrStateMismatch, got %v", err)
	}

	// The instance is now terminally failed; even the correct state cannot
	// complete it.
	good := callbackValues(t, store, auth.FlowID)
	if _, err := o.ReceiveCallback(ctx, auth.FlowID, good); !errors.Is(err, errors.ErrFlowAlreadyCompleted) {
		t.Fatalf("failed instance accepted a retry: %v", err)
	}
}

func TestReceiveCallbackProviderError(t *testing.T) {
	o, store := testOrchestrator(t)
	auth := startFlow(t, o)

	values := callbackValues(t, store, auth.FlowID)
	values.Del("access_token")
	values.Set("error", "access_denied")
	if _, err := o.ReceiveCallback(context.Background(), auth.FlowID, values); !errors.Is(err, errors.ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
}

func TestReceiveCallbackMissingToken(t *testing.T) {
	o, store := testOrchestrator(t)
	auth := startFlow(t, o)

	values := callbackValues(t, store, auth.FlowID)
	values.Del("access_token")
	if _, err := o.ReceiveCallback(context.Background(), auth.FlowID, values); !errors.Is(err, errors.ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
}

func TestReceiveCallbackMalformedToken(t *testing.T) {
	o, store := testOrchestrator(t)

	cases := []struct {
		name   string
		mutate func(url.Values)
	}{
		{"bad expires_in", func(v url.Values) { v.Set("expires_in", "soon") }},
		{"negative expires_in", func(v url.Values) { v.Set("expires_in", "-5") }},
		{"whitespace in token", func(v url.Values) { v.Set("access_token", "two tokens") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := startFlow(t, o)
			values := callbackValues(t, store, auth.FlowID)
			tc.mutate(values)
			if _, err := o.ReceiveCallback(context.Background(), auth.FlowID, values); !errors.Is(err, errors.ErrMalformedToken) {
				t.Fatalf("expected ErrMalformedToken, got %v", err)
			}
		})
	}
}

func TestReceiveCallbackDefaultsScopesToRequested(t *testing.T) {
	o, store := testOrchestrator(t)
	auth := startFlow(t, o)

	values := callbackValues(t, store, auth.FlowID)
	values.Del("scope")
	token, err := o.ReceiveCallback(context.Background(), auth.FlowID, values)
	if err != nil {
		t.Fatalf("receive callback: %v", err)
	}
	if !reflect.DeepEqual(token.Scopes, []string{"demo-test-api-scope"}) {
		t.Fatalf("scopes = %v, want the requested set", token.Scopes)
	}
}

func TestReceiveCallbackUnknownFlow(t *testing.T) {
	o, _ := testOrchestrator(t)
	if _, err := o.ReceiveCallback(context.Background(), "nope", url.Values{}); !errors.Is(err, errors.ErrFlowNotFound) {
		t.Fatalf("expected ErrFlowNotFound, got %v", err)
	}
}

func TestConcurrentFlowsAreIsolated(t *testing.T) {
	o, store := testOrchestrator(t)
	first := startFlow(t, o)
	second := startFlow(t, o)

	if first.FlowID == second.FlowID {
		t.Fatal("two flows share an instance id")
	}

	// Completing the second flow with the first flow's state must fail.
	cross := callbackValues(t, store, first.FlowID)
	if _, err := o.ReceiveCallback(context.Background(), second.FlowID, cross); !errors.Is(err, errors.ErrStateMismatch) {
		t.Fatalf("expected ErrStateMismatch across flows, got %v", err)
	}

	// The first flow is unaffected and still completes.
	if _, err := o.ReceiveCallback(context.Background(), first.FlowID, callbackValues(t, store, first.FlowID)); err != nil {
		t.Fatalf("first flow should still complete: %v", err)
	}
}
