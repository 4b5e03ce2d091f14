package swap

import (
	"context"
	"sync"

	"github.com/DollarNoob/Pay/pkg/types"
)

// LocalLocker is an in-process Locker for single-instance deployments.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocalLocker creates a LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

// Lock blocks until key is free or ctx is done.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-slot })
	}, nil
}

// MemoryCheckpoints keeps checkpoints in process memory. Resume only works
// within the same process.
type MemoryCheckpoints struct {
	mu  sync.RWMutex
	cps map[string]types.Checkpoint
}

// NewMemoryCheckpoints creates an empty MemoryCheckpoints.
func NewMemoryCheckpoints() *MemoryCheckpoints {
	return &MemoryCheckpoints{cps: make(map[string]types.Checkpoint)}
}

func (m *MemoryCheckpoints) Save(_ context.Context, cp *types.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cps[cp.OrderID] = *cp
	return nil
}

func (m *MemoryCheckpoints) Get(_ context.Context, orderID string) (*types.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp, ok := m.cps[orderID]
	if !ok {
		return nil, nil
	}
	return &cp, nil
}
