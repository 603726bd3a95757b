package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces lock keys in a shared Redis
const DefaultRedisKeyPrefix = "posting-sync:lock:"

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker stores leases as Redis keys with a TTL
type RedisLocker struct {
	client       redis.UniversalClient
	prefix       string
	pollInterval time.Duration
}

// RedisOption configures a RedisLocker
type RedisOption func(*RedisLocker)

// WithRedisKeyPrefix overrides DefaultRedisKeyPrefix
func WithRedisKeyPrefix(prefix string) RedisOption {
	return func(l *RedisLocker) {
		if prefix != "" {
			l.prefix = prefix
		}
	}
}

// WithRedisPollInterval overrides DefaultPollInterval
func WithRedisPollInterval(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		l.pollInterval = d
	}
}

// NewRedisLocker creates a locker on client
func NewRedisLocker(client redis.UniversalClient, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client:       client,
		prefix:       DefaultRedisKeyPrefix,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Backend implements Locker
func (*RedisLocker) Backend() string {
	return "redis"
}

// Acquire implements Locker
func (l *RedisLocker) Acquire(ctx context.Context, key string, wait, lease time.Duration) (Lease, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	err := pollUntil(ctx, wait, l.pollInterval, func(ctx context.Context) (bool, error) {
		ok, err := l.client.SetNX(ctx, redisKey, token, lease).Result()
		if err != nil {
			return false, fmt.Errorf("failed to set lock key: %w", err)
		}
		return ok, nil
	})
	if err != nil {
		return nil, err
	}

	return &redisLease{client: l.client, key: redisKey, token: token}, nil
}

type redisLease struct {
	client redis.UniversalClient
	key    string
	token  string
}

func (r *redisLease) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, r.client, []string{r.key}, r.token).Int64()
	if err != nil {
		return fmt.Errorf("failed to run release script: %w", err)
	}
	if n == 0 {
		return ErrLeaseLost
	}
	return nil
}
