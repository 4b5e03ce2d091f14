package swap_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DollarNoob/Pay/pkg/swap"
	"github.com/DollarNoob/Pay/pkg/types"
)

func TestLocalLocker_Exclusive(t *testing.T) {
	l := swap.NewLocalLocker()
	ctx := context.Background()

	var inside, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "0xwallet")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), peak)
}

func TestLocalLocker_ContextAndKeys(t *testing.T) {
	l := swap.NewLocalLocker()

	unlock, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)

	other, err := l.Lock(context.Background(), "b")
	require.NoError(t, err)
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()

	again, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	again()
}

func TestMemoryCheckpoints(t *testing.T) {
	m := swap.NewMemoryCheckpoints()
	ctx := context.Background()

	got, err := m.Get(ctx, "ORD1")
	require.NoError(t, err)
	assert.Nil(t, got)

	cp := &types.Checkpoint{OrderID: "ORD1", LastStatus: "NEW"}
	require.NoError(t, m.Save(ctx, cp))
	cp.LastStatus = "DONE"

	got, err = m.Get(ctx, "ORD1")
	require.NoError(t, err)
	assert.Equal(t, "NEW", got.LastStatus)
}
