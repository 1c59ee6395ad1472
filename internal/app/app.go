package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/edutaxonomy-backend/internal/data/db"
	httpserver "github.com/yungbote/edutaxonomy-backend/internal/http"
	"github.com/yungbote/edutaxonomy-backend/internal/observability"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Server   *httpserver.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics

	dbService    *db.Service
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	if logMode != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := observability.Init(log)
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	dbs, err := db.Open(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbs.DB()); err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbs.DB()

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, metrics)
	if err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(log, theDB, serviceset)
	router := wireRouter(log, cfg, metrics, serviceset, handlerset, cfg.OtelEnabled)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Server:       httpserver.NewServer(":"+cfg.Port, router, cfg.Populate.GeneratorTimeout+cfg.Populate.GeneratorTimeout/4),
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		dbService:    dbs,
		otelShutdown: otelShutdown,
	}, nil
}

// Start runs the startup schema repair. Failures are per table and never
// stop the service.
func (a *App) Start(ctx context.Context) {
	if a == nil || !a.Cfg.SchemaRepair {
		return
	}
	a.Services.Repairer.Run(ctx)
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "addr", a.Server.Addr())
	return a.Server.Run()
}

func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var firstErr error
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	a.Services.close()
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.Log.Sync()
	return firstErr
}
