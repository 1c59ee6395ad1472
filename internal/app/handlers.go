package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	httpserver "github.com/yungbote/edutaxonomy-backend/internal/http"
	httpH "github.com/yungbote/edutaxonomy-backend/internal/http/handlers"
	"github.com/yungbote/edutaxonomy-backend/internal/observability"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/logger"
)

type Handlers struct {
	Health  *httpH.HealthHandler
	Catalog *httpH.CatalogHandler
}

type dbPinger struct{ db *gorm.DB }

func (p dbPinger) PingContext(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func wireHandlers(log *logger.Logger, theDB *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(dbPinger{db: theDB}),
		Catalog: httpH.NewCatalogHandler(log, services.Populate),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, services Services, handlers Handlers, otelEnabled bool) *gin.Engine {
	return httpserver.NewRouter(httpserver.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    cfg.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		OtelEnabled:    otelEnabled,
		RateLimiter:    services.RateLimiter,
		CatalogHandler: handlers.Catalog,
		HealthHandler:  handlers.Health,
	})
}
