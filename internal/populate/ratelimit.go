package populate

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const anonymousClient = "anonymous"

type RateLimitConfig struct {
	Window     time.Duration
	Max        int
	MaxClients int
}

func (c RateLimitConfig) withDefaults() RateLimitConfig {
	if c.Window <= 0 {
		c.Window = 15 * time.Minute
	}
	if c.Max <= 0 {
		c.Max = 10
	}
	if c.MaxClients <= 0 {
		c.MaxClients = 10000
	}
	return c
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a fixed-window counter per client. Entries expire with their
// window and the table never holds more than MaxClients clients.
type RateLimiter struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	windows *expirable.LRU[string, *rateWindow]
	now     func() time.Time
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	cfg = cfg.withDefaults()
	return &RateLimiter{
		cfg:     cfg,
		windows: expirable.NewLRU[string, *rateWindow](cfg.MaxClients, nil, cfg.Window),
		now:     time.Now,
	}
}

func (l *RateLimiter) Allow(clientID string) bool {
	key := strings.TrimSpace(clientID)
	if key == "" {
		key = anonymousClient
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows.Get(key)
	if !ok || !now.Before(w.resetAt) {
		l.windows.Add(key, &rateWindow{count: 1, resetAt: now.Add(l.cfg.Window)})
		return true
	}
	if w.count >= l.cfg.Max {
		return false
	}
	w.count++
	return true
}

// Tracked is the number of clients currently held.
// Check is Allow reported as an error wrapping ErrRateLimited.
func (l *RateLimiter) Check(clientID string) error {
	if l.Allow(clientID) {
		return nil
	}
	return fmt.Errorf("client %q: %w", clientID, ErrRateLimited)
}

func (l *RateLimiter) Tracked() int {
	return l.windows.Len()
}
