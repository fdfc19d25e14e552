package server

import (
	"context"
	"fmt"

	"github.com/legit-games/apidocs-gateway/flow"
	"github.com/legit-games/apidocs-gateway/models"
	"github.com/legit-games/apidocs-gateway/registry"
	"github.com/legit-games/apidocs-gateway/verify"
)

// BuildFromConfig wires a complete server from configuration: scheme
// registry, client registration, flow store, orchestrator and validator.
// Operations must already be registered on ops; the demo endpoints can be
// added with RegisterDemoOperations. Every configuration error here is
// fatal: the gateway refuses to start rather than serve an inconsistent
// security posture.
func BuildFromConfig(ctx context.Context, cfg *Config, ops *registry.OperationRegistry) (*Server, error) {
	schemes := registry.NewSchemeRegistry()
	if err := schemes.Define(&models.SecurityScheme{
		Name:             cfg.Scheme.Name,
		Flow:             models.FlowImplicit,
		AuthorizationURL: cfg.Scheme.AuthorizationURL,
		Scopes:           cfg.Scheme.Scopes,
	}); err != nil {
		return nil, fmt.Errorf("define scheme: %w", err)
	}

	client := &models.ClientRegistration{
		ClientID:      cfg.Client.ClientID,
		RedirectURIs:  cfg.Client.RedirectURIs,
		AllowedScopes: cfg.Client.AllowedScopes,
	}

	store, err := openInstanceStore(cfg.Flow)
	if err != nil {
		return nil, fmt.Errorf("open flow store: %w", err)
	}
	orch := flow.NewOrchestrator(schemes, client, store, cfg.Flow.TTL)

	validator, err := verify.NewValidator(ctx, verify.Config{
		Issuer:    cfg.Trust.Issuer,
		Audience:  cfg.Trust.Audience,
		SharedKey: []byte(cfg.Trust.SharedKey),
		JWKSURL:   cfg.Trust.JWKSURL,
	})
	if err != nil {
		return nil, fmt.Errorf("build validator: %w", err)
	}

	return NewServer(cfg, ops, schemes, orch, validator)
}

// openInstanceStore selects the flow store backend.
func openInstanceStore(cfg FlowConfig) (flow.InstanceStore, error) {
	switch cfg.Store {
	case "", "memory":
		return flow.NewMemoryInstanceStore(), nil
	case "buntdb":
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		return flow.NewBuntInstanceStore(path)
	case "valkey":
		return flow.NewValkeyInstanceStore(cfg.Addr, "gateway:")
	default:
		return nil, fmt.Errorf("unknown flow store %q", cfg.Store)
	}
}
