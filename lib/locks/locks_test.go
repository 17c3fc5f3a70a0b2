package locks

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziflex/lecho/v3"
)

func exerciseMutualExclusion(t *testing.T, l Locker, key string) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		maxSeen int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Lock(context.Background(), key)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			holders++
			if holders > maxSeen {
				maxSeen = holders
			}
			mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			mu.Lock()
			holders--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func exerciseTimeout(t *testing.T, l Locker, key string) {
	release, err := l.Lock(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, key)
	assert.True(t, errors.Is(err, ErrLockTimeout))

	release()
	// double release is harmless
	release()

	release, err = l.Lock(context.Background(), key)
	require.NoError(t, err)
	release()
}

func TestLocal(t *testing.T) {
	l := NewLocal()
	exerciseMutualExclusion(t, l, InvoiceKey(1))
	exerciseTimeout(t, l, InvoiceKey(2))
	assert.Empty(t, l.entries)
}

func TestLocalKeysAreIndependent(t *testing.T) {
	l := NewLocal()
	r1, err := l.Lock(context.Background(), InvoiceKey(1))
	require.NoError(t, err)
	defer r1()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r2, err := l.Lock(ctx, InvoiceKey(2))
	require.NoError(t, err)
	r2()
}

func TestRedis(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}
	r, err := NewRedisFromURL(context.Background(), redisURL, WithRetryInterval(time.Millisecond))
	require.NoError(t, err)
	defer r.Close()

	exerciseMutualExclusion(t, r, "cryptobill:test:"+t.Name()+":a")
	exerciseTimeout(t, r, "cryptobill:test:"+t.Name()+":b")
}

func TestRedisLogsFailedRelease(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}
	out := &bytes.Buffer{}
	r, err := NewRedisFromURL(context.Background(), redisURL, WithLogger(lecho.New(out)), WithTTL(time.Second))
	require.NoError(t, err)

	release, err := r.Lock(context.Background(), "cryptobill:test:"+t.Name())
	require.NoError(t, err)
	require.NoError(t, r.Close())
	release()

	assert.Contains(t, out.String(), "Failed to release lock")
}
