package availability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func TestLocalLockerSerializesPerGuide(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "G1")
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxSeen)
	}
}

func TestLocalLockerHonoursContext(t *testing.T) {
	locker := NewLocalLocker()
	unlock, err := locker.Lock(context.Background(), "G1")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "G1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want DeadlineExceeded", err)
	}

	other, err := locker.Lock(context.Background(), "G2")
	if err != nil {
		t.Fatalf("different guide should not block: %v", err)
	}
	other()
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLocker(t *testing.T) {
	mr, client := newMiniredisClient(t)
	locker := NewRedisLocker(client, 5*time.Second)
	locker.RetryInterval = 5 * time.Millisecond

	unlock, err := locker.Lock(context.Background(), "G1")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if !mr.Exists(guideLockPrefix + "G1") {
		t.Fatal("expected lock key to be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "G1"); err == nil {
		t.Fatal("second Lock should fail while the lease is held")
	}

	unlock()
	unlock()
	if mr.Exists(guideLockPrefix + "G1") {
		t.Fatal("expected lock key to be released")
	}

	again, err := locker.Lock(context.Background(), "G1")
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	again()
}

func TestRedisLockerReleaseKeepsForeignLease(t *testing.T) {
	mr, client := newMiniredisClient(t)
	locker := NewRedisLocker(client, time.Second)

	unlock, err := locker.Lock(context.Background(), "G1")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	// The lease expired and another process took it.
	mr.FastForward(2 * time.Second)
	if err := mr.Set(guideLockPrefix+"G1", "someone-else"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	unlock()
	got, err := mr.Get(guideLockPrefix + "G1")
	if err != nil || got != "someone-else" {
		t.Fatalf("foreign lease was touched: %q, %v", got, err)
	}
}
