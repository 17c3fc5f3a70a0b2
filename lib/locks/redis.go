package locks

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/ziflex/lecho/v3"
)

const (
	DefaultRedisTTL           = 2 * time.Minute
	DefaultRedisRetryInterval = 100 * time.Millisecond
)

// only the holder may delete the key
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis is a Locker shared by every process talking to the same Redis.
// A key expires after TTL so a crashed holder cannot block an invoice forever.
type Redis struct {
	client        *redis.Client
	ttl           time.Duration
	retryInterval time.Duration
	logger        *lecho.Logger
}

type RedisOption func(*Redis)

func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

func WithRetryInterval(interval time.Duration) RedisOption {
	return func(r *Redis) {
		r.retryInterval = interval
	}
}

func WithLogger(logger *lecho.Logger) RedisOption {
	return func(r *Redis) {
		r.logger = logger
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client:        client,
		ttl:           DefaultRedisTTL,
		retryInterval: DefaultRedisRetryInterval,
		logger:        lecho.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRedisFromURL parses a redis:// url and checks the server is reachable.
func NewRedisFromURL(ctx context.Context, redisURL string, opts ...RedisOption) (*Redis, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedis(client, opts...), nil
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ticker := time.NewTicker(r.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w %s: %v", ErrLockTimeout, key, ctx.Err())
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's ctx may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{key}, token).Err(); err != nil {
				// the key stays until its TTL expires
				r.logger.Errorf("Failed to release lock key:%s ttl:%s: %v", key, r.ttl, err)
			}
		})
	}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Locker = (*Redis)(nil)
