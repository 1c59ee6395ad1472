package populate

import (
	"context"
	"sync"

	"github.com/yungbote/edutaxonomy-backend/internal/platform/logger"
)

// Guard admits at most one population per dedup key at a time. Losers are
// rejected, never queued.
type Guard interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string)
}

type MemoryGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{inflight: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[key]; busy {
		return false, nil
	}
	g.inflight[key] = struct{}{}
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, key string) {
	g.mu.Lock()
	delete(g.inflight, key)
	g.mu.Unlock()
}

func (g *MemoryGuard) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inflight)
}

// LayeredGuard checks the local guard first and then a shared one. If the
// shared guard errors, the local decision stands.
type LayeredGuard struct {
	local  Guard
	shared Guard
	log    *logger.Logger
}

func NewLayeredGuard(local, shared Guard, baseLog *logger.Logger) *LayeredGuard {
	return &LayeredGuard{local: local, shared: shared, log: baseLog.With("component", "LayeredGuard")}
}

func (g *LayeredGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.local.Acquire(ctx, key)
	if err != nil || !ok {
		return ok, err
	}
	ok, err = g.shared.Acquire(ctx, key)
	if err != nil {
		g.log.Warn("Shared guard unavailable; using local guard only", "key", key, "error", err)
		return true, nil
	}
	if !ok {
		g.local.Release(ctx, key)
		return false, nil
	}
	return true, nil
}

func (g *LayeredGuard) Release(ctx context.Context, key string) {
	g.shared.Release(ctx, key)
	g.local.Release(ctx, key)
}
