package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DollarNoob/Pay/config"
	"github.com/DollarNoob/Pay/pkg/types"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	return s, goredis.NewClient(&goredis.Options{Addr: s.Addr()})
}

func TestNewClient(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := NewClient(context.Background(), config.RedisConfig{Addr: s.Addr()}, zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	_, err = NewClient(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestCheckpointStore_SaveGet(t *testing.T) {
	s, client := newTestClient(t)
	store := NewCheckpointStore(client, time.Hour)
	ctx := context.Background()

	cp := &types.Checkpoint{
		OrderID:     "ABC123",
		Token:       "tok",
		UserID:      "discord-42",
		Asset:       "LTC",
		Source:      "USDTPOL",
		Destination: "ltc1qdest",
		LastStatus:  "NEW",
		UpdatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, cp))
	assert.True(t, s.Exists("swap:checkpoint:ABC123"))
	assert.Equal(t, time.Hour, s.TTL("swap:checkpoint:ABC123"))

	got, err := store.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, cp, got)

	cp.LastStatus = "DONE"
	require.NoError(t, store.Save(ctx, cp))
	got, err = store.Get(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "DONE", got.LastStatus)
}

func TestCheckpointStore_Missing(t *testing.T) {
	_, client := newTestClient(t)
	store := NewCheckpointStore(client, time.Hour)

	got, err := store.Get(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, store.Save(context.Background(), &types.Checkpoint{}))
}

func TestCheckpointStore_Expires(t *testing.T) {
	s, client := newTestClient(t)
	store := NewCheckpointStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &types.Checkpoint{OrderID: "X"}))
	s.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "X")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestLocker_ExclusiveAndRelease(t *testing.T) {
	s, client := newTestClient(t)
	locker := NewLocker(client, time.Minute, zerolog.Nop())
	locker.retry = time.Millisecond
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "0xwallet")
	require.NoError(t, err)
	assert.True(t, s.Exists("swap:lock:0xwallet"))

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "0xwallet")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, s.Exists("swap:lock:0xwallet"))

	unlock2, err := locker.Lock(ctx, "0xwallet")
	require.NoError(t, err)
	unlock2()
}

func TestLocker_ReleaseKeepsForeignLock(t *testing.T) {
	s, client := newTestClient(t)
	locker := NewLocker(client, time.Minute, zerolog.Nop())

	unlock, err := locker.Lock(context.Background(), "w")
	require.NoError(t, err)

	// lock expired and was taken by another owner
	require.NoError(t, s.Set("swap:lock:w", "someone-else"))
	unlock()

	v, err := s.Get("swap:lock:w")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}

func TestLocker_SerializesHolders(t *testing.T) {
	_, client := newTestClient(t)
	locker := NewLocker(client, time.Minute, zerolog.Nop())
	locker.retry = time.Millisecond

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "w")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}
