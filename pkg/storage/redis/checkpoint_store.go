package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/DollarNoob/Pay/pkg/types"
)

// CheckpointStore keeps the resumable polling state of orders in flight.
type CheckpointStore struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewCheckpointStore creates a store whose entries expire ttl after their
// last write.
func NewCheckpointStore(client *goredis.Client, ttl time.Duration) *CheckpointStore {
	return &CheckpointStore{
		client: client,
		prefix: "swap:checkpoint:",
		ttl:    ttl,
	}
}

// Save writes cp, replacing any previous checkpoint of the same order.
func (s *CheckpointStore) Save(ctx context.Context, cp *types.Checkpoint) error {
	if cp.OrderID == "" {
		return errors.New("checkpoint without order id")
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+cp.OrderID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis checkpoint set: %w", err)
	}
	return nil
}

// Get returns the checkpoint of orderID, or nil when none is stored.
func (s *CheckpointStore) Get(ctx context.Context, orderID string) (*types.Checkpoint, error) {
	data, err := s.client.Get(ctx, s.prefix+orderID).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis checkpoint get: %w", err)
	}
	var cp types.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}
