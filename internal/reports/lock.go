package reports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockUnavailable is returned when the per-email ingestion lock could
// not be acquired within the wait window. The vendor's webhook retry is the
// recovery path.
var ErrLockUnavailable = errors.New("ingestion lock unavailable")

// Locker serializes report ingestion per email. Concurrent webhook
// deliveries for the same email would otherwise race the read-then-write
// merge and insert duplicate records.
type Locker interface {
	// Acquire blocks until the lock for key is held or the wait window
	// expires. The returned release function must be called exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// redisLocker implements Locker with a Redis SET NX lease. The lease bounds
// how long a crashed holder can block other deliveries for the same email.
type redisLocker struct {
	client *redis.Client
	lease  time.Duration
	wait   time.Duration
	retry  time.Duration
}

// NewRedisLocker creates a locker on the given Redis client.
func NewRedisLocker(client *redis.Client) Locker {
	return &redisLocker{
		client: client,
		lease:  30 * time.Second,
		wait:   5 * time.Second,
		retry:  100 * time.Millisecond,
	}
}

// releaseScript deletes the lock only if the caller still holds it, so a
// release that arrives after lease expiry cannot free someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *redisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := "ingest-lock:" + key
	token := uuid.NewString()

	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.lease).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// Release must run even when the request context is gone.
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrLockUnavailable
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}
