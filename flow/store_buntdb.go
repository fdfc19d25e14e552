package flow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/legit-games/apidocs-gateway/errors"
	"github.com/legit-games/apidocs-gateway/models"
)

// BuntInstanceStore persists flow instances in an embedded buntdb file
// with native key TTLs, so outstanding state survives a gateway restart
// and expired instances clean themselves up.
type BuntInstanceStore struct {
	db *buntdb.DB
}

// NewBuntInstanceStore opens (or creates) the database at path. Use
// ":memory:" for an ephemeral store.
func NewBuntInstanceStore(path string) (*BuntInstanceStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &BuntInstanceStore{db: db}, nil
}

// Close releases the underlying database.
func (s *BuntInstanceStore) Close() error {
	return s.db.Close()
}

func flowKey(id string) string { return "flow:" + id }

// Save stores the instance with the given TTL.
func (s *BuntInstanceStore) Save(_ context.Context, inst *models.FlowInstance, ttl time.Duration) error {
	jv, err := json.Marshal(inst)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(flowKey(inst.ID), string(jv), &buntdb.SetOptions{Expires: true, TTL: ttl})
		return err
	})
}

// Get loads the instance by id.
func (s *BuntInstanceStore) Get(_ context.Context, id string) (*models.FlowInstance, error) {
	var inst *models.FlowInstance
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(flowKey(id))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(v), &inst)
	})
	if err == buntdb.ErrNotFound {
		return nil, errors.ErrFlowNotFound
	}
	if err != nil {
		return nil, err
	}
	if inst.IsExpired() {
		return nil, errors.ErrFlowNotFound
	}
	return inst, nil
}

// Update applies fn inside a single writable transaction; the remaining
// TTL carries over on the rewritten key.
func (s *BuntInstanceStore) Update(_ context.Context, id string, fn UpdateFunc) (*models.FlowInstance, error) {
	var inst *models.FlowInstance
	err := s.db.Update(func(tx *buntdb.Tx) error {
		v, err := tx.Get(flowKey(id))
		if err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(v), &inst); err != nil {
			return err
		}
		if inst.IsExpired() {
			return buntdb.ErrNotFound
		}
		if err := fn(inst); err != nil {
			return err
		}
		jv, err := json.Marshal(inst)
		if err != nil {
			return err
		}
		ttl := time.Until(inst.ExpiresAt)
		if ttl <= 0 {
			ttl = time.Second
		}
		_, _, err = tx.Set(flowKey(id), string(jv), &buntdb.SetOptions{Expires: true, TTL: ttl})
		return err
	})
	if err == buntdb.ErrNotFound {
		return nil, errors.ErrFlowNotFound
	}
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// Delete removes the instance if present.
func (s *BuntInstanceStore) Delete(_ context.Context, id string) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(flowKey(id))
		return err
	})
	if err == buntdb.ErrNotFound {
		return nil
	}
	return err
}
