package webhookRepo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func TestRedisLedger(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ledger := NewRedisLedger(client, time.Hour)
	ctx := context.Background()

	seen, err := ledger.Seen(ctx, "evt_1")
	if err != nil || seen {
		t.Fatalf("Seen before mark = %v, %v", seen, err)
	}
	if err := ledger.MarkProcessed(ctx, "evt_1"); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	seen, err = ledger.Seen(ctx, "evt_1")
	if err != nil || !seen {
		t.Fatalf("Seen after mark = %v, %v", seen, err)
	}

	if ttl := mr.TTL(keyPrefix + "evt_1"); ttl != time.Hour {
		t.Errorf("TTL = %v, want 1h", ttl)
	}
	mr.FastForward(2 * time.Hour)
	if seen, _ := ledger.Seen(ctx, "evt_1"); seen {
		t.Error("event should be forgotten after retention")
	}
}

func TestRedisLedgerUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	ledger := NewRedisLedger(client, 0)

	mr.Close()
	if _, err := ledger.Seen(context.Background(), "evt_1"); err == nil {
		t.Fatal("expected an error when redis is down")
	}
}

func TestMemoryLedger(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()
	if seen, _ := ledger.Seen(ctx, "evt_1"); seen {
		t.Fatal("fresh ledger reports event as seen")
	}
	_ = ledger.MarkProcessed(ctx, "evt_1")
	if seen, _ := ledger.Seen(ctx, "evt_1"); !seen {
		t.Fatal("marked event not seen")
	}
}
