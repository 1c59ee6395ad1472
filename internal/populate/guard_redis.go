package populate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/edutaxonomy-backend/internal/platform/logger"
)

var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisGuardConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// RedisGuard shares in-flight keys between processes. The TTL frees a key
// whose owner died without releasing it.
type RedisGuard struct {
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
	log    *logger.Logger

	mu     sync.Mutex
	tokens map[string]string
}

func NewRedisGuard(log *logger.Logger, cfg RedisGuardConfig) (*RedisGuard, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisGuardWithClient(log, rdb, cfg.KeyPrefix, cfg.TTL), nil
}

func NewRedisGuardWithClient(log *logger.Logger, rdb goredis.UniversalClient, prefix string, ttl time.Duration) *RedisGuard {
	if prefix == "" {
		prefix = "catalog:populate:"
	}
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	return &RedisGuard{
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
		log:    log.With("service", "RedisGuard"),
		tokens: make(map[string]string),
	}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (bool, error) {
	token := uuid.NewString()
	ok, err := g.rdb.SetNX(ctx, g.prefix+key, token, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return false, nil
	}
	g.mu.Lock()
	g.tokens[key] = token
	g.mu.Unlock()
	return true, nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) {
	g.mu.Lock()
	token, ok := g.tokens[key]
	delete(g.tokens, key)
	g.mu.Unlock()
	if !ok {
		return
	}
	if err := releaseScript.Run(ctx, g.rdb, []string{g.prefix + key}, token).Err(); err != nil && err != goredis.Nil {
		g.log.Warn("Failed to release population key", "key", key, "error", err)
	}
}

func (g *RedisGuard) Close() error {
	return g.rdb.Close()
}
