package flow

import (
	"context"
	"sync"
	"time"

	"github.com/legit-games/apidocs-gateway/errors"
	"github.com/legit-games/apidocs-gateway/models"
)

// UpdateFunc mutates a flow instance inside a store update. Returning an
// error aborts the update without persisting.
type UpdateFunc func(*models.FlowInstance) error

// InstanceStore persists outstanding flow instances keyed by opaque id.
// Implementations expire instances after their TTL; an expired or unknown
// id surfaces as ErrFlowNotFound. Update applies fn atomically with
// respect to other updates of the same instance.
type InstanceStore interface {
	Save(ctx context.Context, inst *models.FlowInstance, ttl time.Duration) error
	Get(ctx context.Context, id string) (*models.FlowInstance, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (*models.FlowInstance, error)
	Delete(ctx context.Context, id string) error
}

// MemoryInstanceStore keeps flow instances in process memory. Suitable
// for a single-instance gateway and for tests; expiry is checked on every
// read.
type MemoryInstanceStore struct {
	mu        sync.Mutex
	instances map[string]*models.FlowInstance
}

// NewMemoryInstanceStore creates an empty in-memory store.
func NewMemoryInstanceStore() *MemoryInstanceStore {
	return &MemoryInstanceStore{instances: make(map[string]*models.FlowInstance)}
}

// Save stores a copy of the instance.
func (s *MemoryInstanceStore) Save(_ context.Context, inst *models.FlowInstance, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *inst
	s.instances[inst.ID] = &cp
	return nil
}

// Get returns a copy of the stored instance.
func (s *MemoryInstanceStore) Get(_ context.Context, id string) (*models.FlowInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	cp := *inst
	return &cp, nil
}

// Update applies fn under the store lock.
func (s *MemoryInstanceStore) Update(_ context.Context, id string, fn UpdateFunc) (*models.FlowInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := fn(inst); err != nil {
		return nil, err
	}
	cp := *inst
	return &cp, nil
}

// Delete removes the instance if present.
func (s *MemoryInstanceStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.instances, id)
	return nil
}

// lookup must be called with the lock held. Expired instances are removed
// eagerly so they never complete late.
func (s *MemoryInstanceStore) lookup(id string) (*models.FlowInstance, error) {
	inst, ok := s.instances[id]
	if !ok {
		return nil, errors.ErrFlowNotFound
	}
	if inst.IsExpired() {
		delete(s.instances, id)
		return nil, errors.ErrFlowNotFound
	}
	return inst, nil
}
