// Package registry holds the sealed, startup-time registries the
// documentation renderer and the enforcement middleware both read from,
// so the advertised and the enforced security posture cannot drift.
package registry

import (
	"sync"

	"github.com/legit-games/apidocs-gateway/errors"
	"github.com/legit-games/apidocs-gateway/models"
)

// OperationRegistry enumerates the service's callable operations in
// registration order. It accepts registrations until Seal is called and
// is safe for unsynchronized concurrent reads afterwards.
type OperationRegistry struct {
	mu     sync.Mutex
	sealed bool
	order  []*models.Operation
	byKey  map[string]*models.Operation
}

// NewOperationRegistry creates an empty, open registry.
func NewOperationRegistry() *OperationRegistry {
	return &OperationRegistry{byKey: make(map[string]*models.Operation)}
}

// Register adds an operation. It fails with ErrDuplicateOperation when the
// same (method, path) pair is already present and with ErrRegistryClosed
// after Seal.
func (r *OperationRegistry) Register(op *models.Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return errors.ErrRegistryClosed
	}
	key := op.Key()
	if _, exists := r.byKey[key]; exists {
		return errors.ErrDuplicateOperation
	}
	r.byKey[key] = op
	r.order = append(r.order, op)
	return nil
}

// Seal closes the registration phase. Subsequent Register calls fail.
func (r *OperationRegistry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether the registration phase has completed.
func (r *OperationRegistry) Sealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sealed
}

// All returns the registered operations in registration order. The slice
// is a copy; the operations themselves stay shared and immutable.
func (r *OperationRegistry) All() []*models.Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Operation, len(r.order))
	copy(out, r.order)
	return out
}

// Get looks up an operation by method and path.
func (r *OperationRegistry) Get(method, path string) (*models.Operation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.byKey[method+" "+path]
	return op, ok
}
