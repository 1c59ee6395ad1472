package app

import (
	"gorm.io/gorm"

	catalogrepo "github.com/yungbote/edutaxonomy-backend/internal/data/repos/catalog"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/logger"
)

type Repos struct {
	Catalog catalogrepo.CatalogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Catalog: catalogrepo.NewCatalogRepo(db, log),
	}
}
