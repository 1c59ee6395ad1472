package catalog

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/edutaxonomy-backend/internal/domain/catalog"
)

func (r *catalogRepo) Find(ctx context.Context, tx *gorm.DB, kind types.KindSpec, scope types.Scope, name string) (*types.Record, error) {
	return r.find(r.conn(ctx, tx), kind.Key, scope.Only(kind.Key.Columns), name)
}

func (r *catalogRepo) find(t *gorm.DB, key types.KeySpec, stored types.Scope, name string) (*types.Record, error) {
	where, args := key.MatchClause(stored, name)
	var rows []types.Record
	if err := t.Table(key.Table).
		Select("id, name").
		Where(where, args...).
		Order("id ASC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find %s: %w", key.Table, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *catalogRepo) FindLink(ctx context.Context, tx *gorm.DB, boardID, classID int64) (*types.BoardClass, error) {
	return r.findLink(r.conn(ctx, tx), boardID, classID)
}

func (r *catalogRepo) NameByID(ctx context.Context, tx *gorm.DB, table string, id int64) (string, error) {
	if id <= 0 {
		return "", ErrNotFound
	}
	var names []string
	if err := r.conn(ctx, tx).
		Table(table).
		Where("id = ?", id).
		Limit(1).
		Pluck("name", &names).Error; err != nil {
		return "", fmt.Errorf("name of %s %d: %w", table, id, err)
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
	}
	return names[0], nil
}

func (r *catalogRepo) ListActive(ctx context.Context, tx *gorm.DB, kind types.KindSpec, scope types.Scope) ([]types.Record, error) {
	t := r.conn(ctx, tx)
	out := []types.Record{}

	if kind.LinkBoard {
		boardID, ok := scope.Get("board_id")
		if !ok {
			return out, nil
		}
		err := t.Table(kind.Key.Table+" AS c").
			Select("c.id, c.name").
			Joins("JOIN board_classes bc ON bc.class_id = c.id").
			Where("bc.board_id = ? AND bc.is_active = ? AND c.is_active = ?", boardID, true, true).
			Order("c.id ASC").
			Find(&out).Error
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", kind.Key.Table, err)
		}
		return out, nil
	}

	where, args := kind.Key.ScopeClause(scope.Only(kind.Key.Columns))
	if err := t.Table(kind.Key.Table).
		Select("id, name").
		Where(where, args...).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.Key.Table, err)
	}
	return out, nil
}
