package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type report struct {
	Total int `json:"total"`
}

func TestVersionedFetchAndBump(t *testing.T) {
	ctx := context.Background()
	c := NewVersioned(newRedis(t), "reports", time.Minute)
	var calls int32
	loader := func(context.Context) (any, error) {
		n := atomic.AddInt32(&calls, 1)
		return report{Total: int(n)}, nil
	}

	key, err := c.BuildKey(ctx, "avg", "7", "2024")
	require.NoError(t, err)
	var got report
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	require.Equal(t, 1, got.Total)
	require.NoError(t, c.FetchJSON(ctx, key, &got, loader))
	require.Equal(t, 1, got.Total)

	require.NoError(t, c.Bump(ctx))
	key2, err := c.BuildKey(ctx, "avg", "7", "2024")
	require.NoError(t, err)
	require.NotEqual(t, key, key2)
	require.NoError(t, c.FetchJSON(ctx, key2, &got, loader))
	require.Equal(t, 2, got.Total)
}

func TestVersionedNilClientCallsLoader(t *testing.T) {
	c := NewVersioned(nil, "reports", time.Minute)
	var got report
	err := c.FetchJSON(context.Background(), "k", &got, func(context.Context) (any, error) {
		return report{Total: 5}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 5, got.Total)
}

func TestVersionedConcurrentMissesShareLoader(t *testing.T) {
	ctx := context.Background()
	c := NewVersioned(newRedis(t), "reports", time.Minute)
	release := make(chan struct{})
	var calls int32
	loader := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return report{Total: 9}, nil
	}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var got report
			require.NoError(t, c.FetchJSON(ctx, "reports:shared", &got, loader))
			require.Equal(t, 9, got.Total)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	require.LessOrEqual(t, atomic.LoadInt32(&calls), int32(4))
	require.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}

func TestLockerExclusive(t *testing.T) {
	ctx := context.Background()
	locker := NewLocker(newRedis(t), time.Second, nil)

	release, err := locker.Obtain(ctx, "closing:month:2024-03")
	require.NoError(t, err)

	_, err = locker.Obtain(ctx, "closing:month:2024-03")
	require.ErrorIs(t, err, ErrLockNotObtained)

	release()
	release2, err := locker.Obtain(ctx, "closing:month:2024-03")
	require.NoError(t, err)
	release2()
}

func TestNilLockerIsNoop(t *testing.T) {
	locker := NewLocker(nil, 0, nil)
	release, err := locker.Obtain(context.Background(), "anything")
	require.NoError(t, err)
	release()
}
