package app

import (
	"strings"
	"time"

	"github.com/yungbote/edutaxonomy-backend/internal/data/db"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/envutil"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/logger"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/openai"
	"github.com/yungbote/edutaxonomy-backend/internal/populate"
)

type Config struct {
	Port        string
	ServiceName string
	Environment string
	Version     string
	CORSOrigins []string
	OtelEnabled bool

	DB           db.Config
	SchemaRepair bool

	Populate             populate.Config
	RateLimit            populate.RateLimitConfig
	Redis                populate.RedisGuardConfig
	RulesPath            string
	GeneratorConcurrency int
	OpenAI               openai.Config
}

func LoadConfig(log *logger.Logger) Config {
	genTimeout := envutil.Duration("GENERATOR_TIMEOUT", 120*time.Second)
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		ServiceName: envutil.String("SERVICE_NAME", "edutaxonomy-backend"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),
		CORSOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		OtelEnabled: envutil.Bool("OTEL_ENABLED", false),

		DB: db.Config{
			Driver:       envutil.String("DB_DRIVER", db.DriverPostgres),
			Host:         envutil.String("POSTGRES_HOST", "localhost"),
			Port:         envutil.String("POSTGRES_PORT", "5432"),
			User:         envutil.String("POSTGRES_USER", "postgres"),
			Password:     envutil.String("POSTGRES_PASSWORD", ""),
			Name:         envutil.String("POSTGRES_NAME", "edutaxonomy"),
			SSLMode:      envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath:   envutil.String("SQLITE_PATH", "edutaxonomy.db"),
			MaxOpenConns: envutil.Int("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns: envutil.Int("DB_MAX_IDLE_CONNS", 10),
		},
		SchemaRepair: envutil.Bool("SCHEMA_REPAIR_ENABLED", true),

		Populate: populate.Config{
			GeneratorTimeout: genTimeout,
			DefaultLimit:     envutil.Int("POPULATE_DEFAULT_LIMIT", 25),
			MaxLimit:         envutil.Int("POPULATE_MAX_LIMIT", 100),
			MaxContextRunes:  envutil.Int("POPULATE_MAX_CONTEXT_RUNES", 1000),
		},
		RateLimit: populate.RateLimitConfig{
			Window:     envutil.Duration("POPULATE_RATE_WINDOW", 15*time.Minute),
			Max:        envutil.Int("POPULATE_RATE_MAX", 10),
			MaxClients: envutil.Int("POPULATE_RATE_MAX_CLIENTS", 10000),
		},
		Redis: populate.RedisGuardConfig{
			Addr:      envutil.String("REDIS_ADDR", ""),
			Password:  envutil.String("REDIS_PASSWORD", ""),
			DB:        envutil.Int("REDIS_DB", 0),
			KeyPrefix: envutil.String("REDIS_KEY_PREFIX", "catalog:populate:"),
			TTL:       envutil.Duration("POPULATE_LOCK_TTL", genTimeout+30*time.Second),
		},
		RulesPath:            envutil.String("CATALOG_RULES_YAML", ""),
		GeneratorConcurrency: envutil.Int("GENERATOR_MAX_CONCURRENCY", 4),
		OpenAI:               openai.ConfigFromEnv(),
	}
	log.Info("Configuration loaded",
		"env", cfg.Environment,
		"db_driver", cfg.DB.Driver,
		"redis_guard", cfg.Redis.Addr != "",
		"generator_timeout", cfg.Populate.GeneratorTimeout.String(),
	)
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
