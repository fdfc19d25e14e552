package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	valkey "github.com/valkey-io/valkey-go"

	"github.com/legit-games/apidocs-gateway/errors"
	"github.com/legit-games/apidocs-gateway/models"
)

// ValkeyInstanceStore persists flow instances in Valkey (Redis-compatible)
// so multiple gateway instances behind a load balancer share outstanding
// flow state.
type ValkeyInstanceStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyInstanceStore creates a Valkey-backed store.
// addr example: "127.0.0.1:6379"; prefix helps namespace keys.
func NewValkeyInstanceStore(addr string, prefix string) (*ValkeyInstanceStore, error) {
	cli, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "gateway:"
	}
	return &ValkeyInstanceStore{client: cli, prefix: prefix}, nil
}

// NewValkeyInstanceStoreWithClient creates a store with an existing client.
func NewValkeyInstanceStoreWithClient(client valkey.Client, prefix string) *ValkeyInstanceStore {
	if prefix == "" {
		prefix = "gateway:"
	}
	return &ValkeyInstanceStore{client: client, prefix: prefix}
}

func (s *ValkeyInstanceStore) key(id string) string {
	return fmt.Sprintf("%sflow:%s", s.prefix, id)
}

// Save stores the instance with TTL.
func (s *ValkeyInstanceStore) Save(ctx context.Context, inst *models.FlowInstance, ttl time.Duration) error {
	data, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("failed to marshal flow instance: %w", err)
	}
	key := s.key(inst.ID)
	return s.client.Do(ctx, s.client.B().Set().Key(key).Value(string(data)).Ex(ttl).Build()).Error()
}

// Get retrieves a flow instance by id.
func (s *ValkeyInstanceStore) Get(ctx context.Context, id string) (*models.FlowInstance, error) {
	res := s.client.Do(ctx, s.client.B().Get().Key(s.key(id)).Build())
	if res.Error() != nil {
		if valkey.IsValkeyNil(res.Error()) {
			return nil, errors.ErrFlowNotFound
		}
		return nil, res.Error()
	}

	val, err := res.ToString()
	if err != nil || val == "" {
		return nil, errors.ErrFlowNotFound
	}

	var inst models.FlowInstance
	if err := json.Unmarshal([]byte(val), &inst); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow instance: %w", err)
	}

	if inst.IsExpired() {
		_ = s.Delete(ctx, id)
		return nil, errors.ErrFlowNotFound
	}

	return &inst, nil
}

// updateAttempts bounds the optimistic retries in Update. A caller that
// loses the swap re-reads and reapplies fn, which then sees the winner's
// transition; one retry is normally enough.
const updateAttempts = 3

// Update loads the instance, applies fn and swaps the serialized record
// back in atomically: a Lua script writes only if the stored value is
// still the one that was read, so two concurrent updates of the same
// flow can never both apply. The remaining TTL carries over.
func (s *ValkeyInstanceStore) Update(ctx context.Context, id string, fn UpdateFunc) (*models.FlowInstance, error) {
	// Atomic check-and-swap: write only if the record is unchanged.
	script := `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			redis.call("set", KEYS[1], ARGV[2], "EX", ARGV[3])
			return 1
		else
			return 0
		end
	`

	for attempt := 0; attempt < updateAttempts; attempt++ {
		res := s.client.Do(ctx, s.client.B().Get().Key(s.key(id)).Build())
		if res.Error() != nil {
			if valkey.IsValkeyNil(res.Error()) {
				return nil, errors.ErrFlowNotFound
			}
			return nil, res.Error()
		}
		prev, err := res.ToString()
		if err != nil || prev == "" {
			return nil, errors.ErrFlowNotFound
		}

		var inst models.FlowInstance
		if err := json.Unmarshal([]byte(prev), &inst); err != nil {
			return nil, fmt.Errorf("failed to unmarshal flow instance: %w", err)
		}
		if inst.IsExpired() {
			_ = s.Delete(ctx, id)
			return nil, errors.ErrFlowNotFound
		}
		if err := fn(&inst); err != nil {
			return nil, err
		}

		next, err := json.Marshal(&inst)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal flow instance: %w", err)
		}
		ttlSecs := int64(time.Until(inst.ExpiresAt).Seconds())
		if ttlSecs < 1 {
			ttlSecs = 1
		}

		res = s.client.Do(ctx, s.client.B().Eval().Script(script).Numkeys(1).
			Key(s.key(id)).Arg(prev).Arg(string(next)).Arg(fmt.Sprintf("%d", ttlSecs)).Build())
		if res.Error() != nil {
			return nil, res.Error()
		}
		swapped, err := res.ToInt64()
		if err != nil {
			return nil, err
		}
		if swapped == 1 {
			return &inst, nil
		}
		// Lost the swap; re-read so fn sees the winner's transition.
	}
	return nil, fmt.Errorf("flow %s: update contention not resolved", id)
}

// Delete removes a flow instance.
func (s *ValkeyInstanceStore) Delete(ctx context.Context, id string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.key(id)).Build()).Error()
}
