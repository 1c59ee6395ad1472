package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/edutaxonomy-backend/internal/data/db"
	"github.com/yungbote/edutaxonomy-backend/internal/observability"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/logger"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/openai"
	"github.com/yungbote/edutaxonomy-backend/internal/populate"
)

type Services struct {
	Repairer    *db.Repairer
	RateLimiter *populate.RateLimiter
	Guard       populate.Guard
	Generator   populate.Generator
	Populate    populate.Service

	redisGuard *populate.RedisGuard
}

func wireServices(theDB *gorm.DB, log *logger.Logger, cfg Config, repos Repos, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	rules, err := populate.LoadRules(cfg.RulesPath)
	if err != nil {
		return Services{}, fmt.Errorf("load catalog rules: %w", err)
	}

	oa, err := openai.NewClient(log, cfg.OpenAI)
	if err != nil {
		return Services{}, fmt.Errorf("init openai client: %w", err)
	}
	gen := populate.NewOpenAIGenerator(log, oa, rules, int64(cfg.GeneratorConcurrency))

	var (
		guard      populate.Guard = populate.NewMemoryGuard()
		redisGuard *populate.RedisGuard
	)
	if cfg.Redis.Addr != "" {
		redisGuard, err = populate.NewRedisGuard(log, cfg.Redis)
		if err != nil {
			log.Warn("Redis guard unavailable; in-flight dedup is process-local", "error", err)
		} else {
			guard = populate.NewLayeredGuard(guard, redisGuard, log)
		}
	}

	svc := populate.NewService(log, repos.Catalog, gen, guard, populate.NewFilter(rules), metrics, cfg.Populate)

	return Services{
		Repairer:    db.NewRepairer(theDB, log, metrics),
		RateLimiter: populate.NewRateLimiter(cfg.RateLimit),
		Guard:       guard,
		Generator:   gen,
		Populate:    svc,
		redisGuard:  redisGuard,
	}, nil
}

func (s Services) close() {
	if s.redisGuard != nil {
		_ = s.redisGuard.Close()
	}
}
