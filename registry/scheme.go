package registry

import (
	"sync"

	"github.com/legit-games/apidocs-gateway/errors"
	"github.com/legit-games/apidocs-gateway/models"
)

// SchemeRegistry holds the OAuth2 scheme definitions published by
// configuration. Like the operation registry it is write-once: defined at
// startup, sealed, then read concurrently without locks on the hot path.
type SchemeRegistry struct {
	mu     sync.Mutex
	sealed bool
	order  []*models.SecurityScheme
	byName map[string]*models.SecurityScheme
}

// NewSchemeRegistry creates an empty scheme registry.
func NewSchemeRegistry() *SchemeRegistry {
	return &SchemeRegistry{byName: make(map[string]*models.SecurityScheme)}
}

// Define adds a scheme. The scheme is validated at definition time: a
// malformed authorization URL or an empty scope set fails with
// ErrInvalidSchemeConfig, a name collision with ErrDuplicateScheme.
func (r *SchemeRegistry) Define(scheme *models.SecurityScheme) error {
	if err := scheme.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return errors.ErrRegistryClosed
	}
	if _, exists := r.byName[scheme.Name]; exists {
		return errors.ErrDuplicateScheme
	}
	r.byName[scheme.Name] = scheme
	r.order = append(r.order, scheme)
	return nil
}

// Seal closes the definition phase.
func (r *SchemeRegistry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Get looks up a scheme by name.
func (r *SchemeRegistry) Get(name string) (*models.SecurityScheme, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byName[name]
	return s, ok
}

// All returns the defined schemes in definition order.
func (r *SchemeRegistry) All() []*models.SecurityScheme {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.SecurityScheme, len(r.order))
	copy(out, r.order)
	return out
}

// ValidateOperations checks, before the service starts, that every
// non-anonymous operation can be satisfied by the named scheme: the scheme
// must exist and the operation's declared scopes must be a subset of the
// scheme's scope set. A violation is a configuration defect that must
// abort startup rather than silently pass.
func (r *SchemeRegistry) ValidateOperations(ops []*models.Operation, schemeName string) error {
	scheme, ok := r.Get(schemeName)
	if !ok {
		return errors.ErrUnknownScheme
	}
	for _, op := range ops {
		if op.AllowAnonymous {
			continue
		}
		for _, scope := range op.Scopes {
			if !scheme.HasScope(scope) {
				return errors.ErrInvalidSchemeConfig
			}
		}
	}
	return nil
}
