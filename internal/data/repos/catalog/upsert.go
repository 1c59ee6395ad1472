package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/edutaxonomy-backend/internal/data/db"
	types "github.com/yungbote/edutaxonomy-backend/internal/domain/catalog"
)

// Apply makes name exist and be active within scope, whatever the current
// state of the table. Concurrent callers converge on one row because inserts
// defer to the unique index and re-read on conflict.
func (r *catalogRepo) Apply(ctx context.Context, tx *gorm.DB, kind types.KindSpec, scope types.Scope, name string) (types.Record, Outcome, error) {
	if kind.New == nil {
		return types.Record{}, "", fmt.Errorf("kind %s has no row factory", kind.Kind)
	}
	if kind.LinkBoard {
		return r.applyLinked(ctx, tx, kind, scope, name)
	}
	return r.upsert(r.conn(ctx, tx), kind, scope.Only(kind.Key.Columns), name)
}

func (r *catalogRepo) upsert(t *gorm.DB, kind types.KindSpec, stored types.Scope, name string) (types.Record, Outcome, error) {
	found, err := r.find(t, kind.Key, stored, name)
	if err != nil {
		return types.Record{}, "", err
	}
	if found != nil {
		if err := reactivate(t, kind.Key.Table, found.ID); err != nil {
			return types.Record{}, "", err
		}
		return *found, OutcomeReactivated, nil
	}

	row := kind.New(name, stored)
	res := t.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil && !db.IsUniqueViolation(res.Error) {
		return types.Record{}, "", fmt.Errorf("insert %s: %w", kind.Key.Table, res.Error)
	}
	if res.Error == nil && res.RowsAffected > 0 && row.RowID() > 0 {
		return types.Record{ID: row.RowID(), Name: row.RowName()}, OutcomeInserted, nil
	}

	// Another writer inserted the same key between our read and write.
	found, err = r.find(t, kind.Key, stored, name)
	if err != nil {
		return types.Record{}, "", err
	}
	if found == nil {
		return types.Record{}, "", fmt.Errorf("insert %s %q: conflict without a matching row", kind.Key.Table, name)
	}
	if err := reactivate(t, kind.Key.Table, found.ID); err != nil {
		return types.Record{}, "", err
	}
	return *found, OutcomeReactivated, nil
}

// applyLinked creates the class globally, then links it into the board.
func (r *catalogRepo) applyLinked(ctx context.Context, tx *gorm.DB, kind types.KindSpec, scope types.Scope, name string) (types.Record, Outcome, error) {
	boardID, ok := scope.Get("board_id")
	if !ok {
		return types.Record{}, "", errors.New("board_id is required to link a class")
	}

	var (
		rec     types.Record
		outcome Outcome
	)
	err := r.conn(ctx, tx).Transaction(func(txx *gorm.DB) error {
		var err error
		rec, _, err = r.upsert(txx, kind, types.Scope{}, name)
		if err != nil {
			return err
		}
		outcome, err = r.link(txx, boardID, rec.ID)
		return err
	})
	if err != nil {
		return types.Record{}, "", err
	}
	return rec, outcome, nil
}

func (r *catalogRepo) link(t *gorm.DB, boardID, classID int64) (Outcome, error) {
	existing, err := r.findLink(t, boardID, classID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		if err := reactivate(t, types.BoardClassesKey.Table, existing.ID); err != nil {
			return "", err
		}
		return OutcomeReactivated, nil
	}

	row := &types.BoardClass{BoardID: boardID, ClassID: classID, IsActive: true}
	res := t.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil && !db.IsUniqueViolation(res.Error) {
		return "", fmt.Errorf("insert board_classes: %w", res.Error)
	}
	if res.Error == nil && res.RowsAffected > 0 {
		return OutcomeInserted, nil
	}

	existing, err = r.findLink(t, boardID, classID)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return "", fmt.Errorf("link board %d class %d: conflict without a matching row", boardID, classID)
	}
	if err := reactivate(t, types.BoardClassesKey.Table, existing.ID); err != nil {
		return "", err
	}
	return OutcomeReactivated, nil
}

func (r *catalogRepo) findLink(t *gorm.DB, boardID, classID int64) (*types.BoardClass, error) {
	var rows []types.BoardClass
	if err := t.Where("board_id = ? AND class_id = ?", boardID, classID).
		Order("id ASC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find board_classes: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func reactivate(t *gorm.DB, table string, id int64) error {
	if err := t.Table(table).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": true, "updated_at": time.Now().UTC()}).Error; err != nil {
		return fmt.Errorf("reactivate %s %d: %w", table, id, err)
	}
	return nil
}
