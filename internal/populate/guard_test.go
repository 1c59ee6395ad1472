package populate

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/edutaxonomy-backend/internal/platform/logger"
)

func TestMemoryGuardSingleWinner(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard()

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := g.Acquire(ctx, "boards|state_id=1"); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
	if ok, _ := g.Acquire(ctx, "boards|state_id=2"); !ok {
		t.Fatalf("different keys must not block each other")
	}

	g.Release(ctx, "boards|state_id=1")
	if ok, _ := g.Acquire(ctx, "boards|state_id=1"); !ok {
		t.Fatalf("released key should be acquirable")
	}
}

type stubGuard struct {
	ok       bool
	err      error
	released []string
}

func (s *stubGuard) Acquire(context.Context, string) (bool, error) { return s.ok, s.err }
func (s *stubGuard) Release(_ context.Context, key string)         { s.released = append(s.released, key) }

func TestLayeredGuard(t *testing.T) {
	ctx := context.Background()

	local := NewMemoryGuard()
	g := NewLayeredGuard(local, &stubGuard{ok: false}, logger.Nop())
	if ok, _ := g.Acquire(ctx, "k"); ok {
		t.Fatalf("shared rejection must win")
	}
	if local.InFlight() != 0 {
		t.Fatalf("local key must be released after shared rejection")
	}

	g = NewLayeredGuard(local, &stubGuard{err: errors.New("connection refused")}, logger.Nop())
	if ok, err := g.Acquire(ctx, "k"); !ok || err != nil {
		t.Fatalf("shared outage should fall back to local guard, got %v %v", ok, err)
	}
	if ok, _ := g.Acquire(ctx, "k"); ok {
		t.Fatalf("local guard still rejects duplicates")
	}

	shared := &stubGuard{ok: true}
	g = NewLayeredGuard(NewMemoryGuard(), shared, logger.Nop())
	if ok, _ := g.Acquire(ctx, "j"); !ok {
		t.Fatalf("expected acquire")
	}
	g.Release(ctx, "j")
	if len(shared.released) != 1 {
		t.Fatalf("release must reach the shared guard")
	}
}

func TestRedisGuard(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis guard tests")
	}
	ctx := context.Background()
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	defer rdb.Close()

	prefix := "test:" + uuid.NewString() + ":"
	a := NewRedisGuardWithClient(logger.Nop(), rdb, prefix, time.Minute)
	b := NewRedisGuardWithClient(logger.Nop(), rdb, prefix, time.Minute)

	if ok, err := a.Acquire(ctx, "k"); !ok || err != nil {
		t.Fatalf("first acquire: %v %v", ok, err)
	}
	if ok, err := b.Acquire(ctx, "k"); ok || err != nil {
		t.Fatalf("second process must be rejected: %v %v", ok, err)
	}
	b.Release(ctx, "k")
	if ok, _ := b.Acquire(ctx, "k"); ok {
		t.Fatalf("a non-owner release must not free the key")
	}
	a.Release(ctx, "k")
	if ok, err := b.Acquire(ctx, "k"); !ok || err != nil {
		t.Fatalf("acquire after release: %v %v", ok, err)
	}
	b.Release(ctx, "k")
}
