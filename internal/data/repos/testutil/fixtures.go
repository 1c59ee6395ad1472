package testutil

import (
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/edutaxonomy-backend/internal/domain/catalog"
)

// Seed inserts rows as-is, bypassing the upsert path. Useful for planting
// duplicates before unique indexes exist.
func Seed(tb testing.TB, tx *gorm.DB, rows ...any) {
	tb.Helper()
	for _, r := range rows {
		if err := tx.Create(r).Error; err != nil {
			tb.Fatalf("seed %T: %v", r, err)
		}
	}
}

func SeedState(tb testing.TB, tx *gorm.DB, name string) *catalog.State {
	tb.Helper()
	s := &catalog.State{Name: name, IsActive: true}
	Seed(tb, tx, s)
	return s
}

func SeedCategory(tb testing.TB, tx *gorm.DB, name string) *catalog.Category {
	tb.Helper()
	c := &catalog.Category{Name: name, IsActive: true}
	Seed(tb, tx, c)
	return c
}

func SeedBoard(tb testing.TB, tx *gorm.DB, name string, stateID int64) *catalog.Board {
	tb.Helper()
	b := &catalog.Board{Name: name, StateID: &stateID, IsActive: true, IsApproved: true}
	Seed(tb, tx, b)
	return b
}

func SeedSubject(tb testing.TB, tx *gorm.DB, name string, scope catalog.Scope) *catalog.Subject {
	tb.Helper()
	spec, _ := catalog.Lookup(catalog.KindSubjects)
	s := spec.New(name, scope).(*catalog.Subject)
	Seed(tb, tx, s)
	return s
}

func Count(tb testing.TB, tx *gorm.DB, table string) int64 {
	tb.Helper()
	var n int64
	if err := tx.Table(table).Count(&n).Error; err != nil {
		tb.Fatalf("count %s: %v", table, err)
	}
	return n
}
