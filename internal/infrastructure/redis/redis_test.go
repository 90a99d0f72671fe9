package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newClientForTest(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestTokenCacheRoundTripAndExpiry(t *testing.T) {
	mr, client := newClientForTest(t)
	ctx := context.Background()

	cache := NewTokenCache(client, "test")
	if _, ok, err := cache.Get(ctx); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	if err := cache.Set(ctx, "tok-1", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := cache.Get(ctx)
	if err != nil || !ok || got != "tok-1" {
		t.Fatalf("get = %q ok=%v err=%v", got, ok, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, _ := cache.Get(ctx); ok {
		t.Fatalf("token must expire")
	}
}

func TestTokenCacheIgnoresNonPositiveTTL(t *testing.T) {
	mr, client := newClientForTest(t)
	ctx := context.Background()

	cache := NewTokenCache(client, "test")
	if err := cache.Set(ctx, "tok", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if mr.Exists("test:oauth:token") {
		t.Fatalf("zero ttl must not be cached")
	}
}

func TestDeadLetterQueueSend(t *testing.T) {
	mr, client := newClientForTest(t)
	ctx := context.Background()

	dlq := NewDeadLetterQueue(client, zap.NewNop(), "test")
	if err := dlq.Send(ctx, []byte("{broken"), "decode callback"); err != nil {
		t.Fatalf("send: %v", err)
	}

	items, err := mr.List("test:callbacks:dead-letter")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 dead letter, got %d", len(items))
	}
	var dl deadLetter
	if err := json.Unmarshal([]byte(items[0]), &dl); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dl.Payload != "{broken" || dl.Reason != "decode callback" {
		t.Fatalf("dead letter = %+v", dl)
	}
}

func TestConnectFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := Connect(ctx, addr, "", 0); err == nil {
		t.Fatalf("expected connect error")
	}
}
