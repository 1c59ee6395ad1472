package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	types "github.com/yungbote/edutaxonomy-backend/internal/domain/catalog"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/logger"
)

var ErrNotFound = errors.New("catalog row not found")

type Outcome string

const (
	OutcomeInserted    Outcome = "inserted"
	OutcomeReactivated Outcome = "reactivated"
)

type CatalogRepo interface {
	// Find returns nil when no row matches name within scope.
	Find(ctx context.Context, tx *gorm.DB, kind types.KindSpec, scope types.Scope, name string) (*types.Record, error)
	FindLink(ctx context.Context, tx *gorm.DB, boardID, classID int64) (*types.BoardClass, error)
	NameByID(ctx context.Context, tx *gorm.DB, table string, id int64) (string, error)
	ListActive(ctx context.Context, tx *gorm.DB, kind types.KindSpec, scope types.Scope) ([]types.Record, error)

	Apply(ctx context.Context, tx *gorm.DB, kind types.KindSpec, scope types.Scope, name string) (types.Record, Outcome, error)
}

type catalogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCatalogRepo(db *gorm.DB, baseLog *logger.Logger) CatalogRepo {
	return &catalogRepo{db: db, log: baseLog.With("repo", "CatalogRepo")}
}

func (r *catalogRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx)
}
