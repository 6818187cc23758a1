package locks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Sentinel errors.
var (
	ErrLockBackend = errors.New("lock backend unavailable")
	ErrInvalidTTL  = errors.New("lock TTL must be positive")
)

// Redis locker defaults.
const (
	DefaultTTL       = 30 * time.Second
	DefaultPrefix    = "printables:lock"
	defaultRetryWait = 25 * time.Millisecond
	maxRetryWait     = 500 * time.Millisecond
)

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a lease-based lock shared by every process using the
// same Redis server and prefix. A lease expires after TTL, so the guarded
// section must finish well within it.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisLocker.
type RedisOption func(*RedisLocker)

// WithPrefix sets the key prefix.
func WithPrefix(p string) RedisOption {
	return func(l *RedisLocker) {
		if p = strings.TrimSpace(p); p != "" {
			l.prefix = p
		}
	}
}

// WithTTL sets the lease duration.
func WithTTL(d time.Duration) RedisOption {
	return func(l *RedisLocker) { l.ttl = d }
}

// NewRedisLocker creates a locker on an existing client.
func NewRedisLocker(client redis.UniversalClient, opts ...RedisOption) (*RedisLocker, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil client", ErrLockBackend)
	}
	l := &RedisLocker{client: client, prefix: DefaultPrefix, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(l)
	}
	if l.ttl <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTTL, l.ttl)
	}
	return l, nil
}

// Lock polls until key is free, ctx is done, or Redis fails.
func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	redisKey := l.prefix + ":" + key
	token := uuid.NewString()

	wait := defaultRetryWait
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %v", ErrLockBackend, err)
		}
		if ok {
			return l.unlocker(redisKey, token), nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		wait = min(wait*2, maxRetryWait)
	}
}

func (l *RedisLocker) unlocker(redisKey, token string) Unlock {
	released := false
	return func() {
		if released {
			return
		}
		released = true
		// Release must run even when the caller's context is already done.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err()
	}
}
