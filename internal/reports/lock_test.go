package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLocker(t *testing.T) (*redisLocker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return &redisLocker{
		client: client,
		lease:  30 * time.Second,
		wait:   200 * time.Millisecond,
		retry:  20 * time.Millisecond,
	}, mr
}

func TestLocker_AcquireRelease(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "jordan@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A second acquire for the same email must time out while held.
	if _, err := locker.Acquire(ctx, "jordan@example.com"); !errors.Is(err, ErrLockUnavailable) {
		t.Errorf("expected ErrLockUnavailable, got %v", err)
	}

	release()

	// After release the lock is free again.
	release2, err := locker.Acquire(ctx, "jordan@example.com")
	if err != nil {
		t.Fatalf("unexpected error after release: %v", err)
	}
	release2()
}

func TestLocker_IndependentKeys(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	release1, err := locker.Acquire(ctx, "jordan@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release1()

	// A different email is a different lock.
	release2, err := locker.Acquire(ctx, "casey@example.com")
	if err != nil {
		t.Fatalf("unexpected error for second key: %v", err)
	}
	release2()
}

func TestLocker_LeaseExpiry(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	staleRelease, err := locker.Acquire(ctx, "jordan@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Simulate a crashed holder: the lease expires without a release.
	mr.FastForward(31 * time.Second)

	release, err := locker.Acquire(ctx, "jordan@example.com")
	if err != nil {
		t.Fatalf("expected lock to be free after lease expiry, got %v", err)
	}

	// The stale holder's release must not free the new holder's lock.
	staleRelease()
	if _, err := locker.Acquire(ctx, "jordan@example.com"); !errors.Is(err, ErrLockUnavailable) {
		t.Errorf("expected lock still held after stale release, got %v", err)
	}

	release()
}

func TestLocker_ContextCancellation(t *testing.T) {
	locker, _ := newTestLocker(t)

	release, err := locker.Acquire(context.Background(), "jordan@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := locker.Acquire(ctx, "jordan@example.com"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
