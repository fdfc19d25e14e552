package server

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := loadConfig()
	if cfg.Listen != ":8080" {
		t.Errorf("Listen = %q, want :8080", cfg.Listen)
	}
	if cfg.Flow.Store != "memory" {
		t.Errorf("Flow.Store = %q, want memory", cfg.Flow.Store)
	}
	if cfg.Flow.TTL != 10*time.Minute {
		t.Errorf("Flow.TTL = %v, want 10m", cfg.Flow.TTL)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("GATEWAY_LISTEN", ":9999")
	t.Setenv("GATEWAY_TRUST__SHARED_KEY", "from-env")
	t.Setenv("GATEWAY_SCHEME__AUTHORIZATION_URL", "https://idp.example.com/oauth/authorize")
	t.Setenv("GATEWAY_FLOW__STORE", "buntdb")

	cfg := loadConfig()
	if cfg.Listen != ":9999" {
		t.Errorf("Listen = %q, want :9999", cfg.Listen)
	}
	if cfg.Trust.SharedKey != "from-env" {
		t.Errorf("Trust.SharedKey = %q, want from-env", cfg.Trust.SharedKey)
	}
	if cfg.Scheme.AuthorizationURL != "https://idp.example.com/oauth/authorize" {
		t.Errorf("Scheme.AuthorizationURL = %q", cfg.Scheme.AuthorizationURL)
	}
	if cfg.Flow.Store != "buntdb" {
		t.Errorf("Flow.Store = %q, want buntdb", cfg.Flow.Store)
	}
}

func TestLoadConfigEnvDoesNotClobberDefaults(t *testing.T) {
	t.Setenv("GATEWAY_TRUST__ISSUER", "https://idp.example.com")
	cfg := loadConfig()
	if cfg.Trust.Issuer != "https://idp.example.com" {
		t.Errorf("Trust.Issuer = %q", cfg.Trust.Issuer)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("Listen = %q, want untouched default :8080", cfg.Listen)
	}
}
