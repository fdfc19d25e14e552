package registry

import (
	"testing"

	"github.com/legit-games/apidocs-gateway/errors"
	"github.com/legit-games/apidocs-gateway/models"
)

func TestOperationRegistryOrderAndDuplicates(t *testing.T) {
	r := NewOperationRegistry()

	ops := []*models.Operation{
		{Method: "GET", Path: "/demo", AllowAnonymous: true},
		{Method: "POST", Path: "/demo/post", Scopes: []string{"demo-test-api-scope"}},
		{Method: "GET", Path: "/demo/admin", Scopes: []string{"demo-admin-scope"}},
	}
	for _, op := range ops {
		if err := r.Register(op); err != nil {
			t.Fatalf("register %s: %v", op.Key(), err)
		}
	}

	if err := r.Register(&models.Operation{Method: "GET", Path: "/demo"}); !errors.Is(err, errors.ErrDuplicateOperation) {
		t.Fatalf("expected ErrDuplicateOperation, got %v", err)
	}

	// Same path, different method is a distinct operation.
	if err := r.Register(&models.Operation{Method: "DELETE", Path: "/demo"}); err != nil {
		t.Fatalf("register distinct method: %v", err)
	}

	all := r.All()
	if len(all) != 4 {
		t.Fatalf("expected 4 operations, got %d", len(all))
	}
	// Registration order is preserved for reproducible document output.
	wantOrder := []string{"GET /demo", "POST /demo/post", "GET /demo/admin", "DELETE /demo"}
	for i, key := range wantOrder {
		if all[i].Key() != key {
			t.Fatalf("order[%d] = %s, want %s", i, all[i].Key(), key)
		}
	}
}

func TestOperationRegistrySeal(t *testing.T) {
	r := NewOperationRegistry()
	if err := r.Register(&models.Operation{Method: "GET", Path: "/demo"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	r.Seal()
	if !r.Sealed() {
		t.Fatal("registry should report sealed")
	}

	err := r.Register(&models.Operation{Method: "GET", Path: "/other"})
	if !errors.Is(err, errors.ErrRegistryClosed) {
		t.Fatalf("expected ErrRegistryClosed, got %v", err)
	}

	if _, ok := r.Get("GET", "/demo"); !ok {
		t.Fatal("sealed registry should still serve reads")
	}
}
