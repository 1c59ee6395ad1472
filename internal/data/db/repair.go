package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/edutaxonomy-backend/internal/domain/catalog"
	"github.com/yungbote/edutaxonomy-backend/internal/observability"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/logger"
)

// RepairReport is the outcome of repairing one table.
type RepairReport struct {
	Table        string
	Reparented   int64
	Deleted      int64
	IndexCreated bool
	IndexExisted bool
	// IndexesDropped lists child indexes removed so reparenting could merge
	// their rows. The child's own repair later in the run reinstalls them.
	IndexesDropped []string
	Err            error
}

// Repairer removes rows that collide on their composite key and then installs
// the unique index for that key. It is safe to run on every start.
type Repairer struct {
	db      *gorm.DB
	log     *logger.Logger
	metrics *observability.Metrics
	tables  []catalog.KeySpec
}

func NewRepairer(db *gorm.DB, baseLog *logger.Logger, metrics *observability.Metrics) *Repairer {
	return &Repairer{
		db:      db,
		log:     baseLog.With("component", "SchemaRepair"),
		metrics: metrics,
		tables:  catalog.Tables(),
	}
}

// Run repairs every table in parent-first order. A failing table is logged and
// skipped; the remaining tables are still processed. Reparenting can make child
// rows collide, so the child's index is dropped first and the child is merged
// when its own turn comes.
func (r *Repairer) Run(ctx context.Context) []RepairReport {
	start := time.Now()
	reports := make([]RepairReport, 0, len(r.tables))
	failed := 0
	for _, spec := range r.tables {
		rep := r.repairTable(ctx, spec)
		reports = append(reports, rep)
		r.metrics.ObserveRepair(spec.Table, rep.Deleted, rep.Err != nil)
		if rep.Err != nil {
			failed++
			r.log.Warn("Schema repair failed for table", "table", spec.Table, "error", rep.Err)
			continue
		}
		if rep.Deleted > 0 || rep.IndexCreated {
			r.log.Info("Schema repair applied",
				"table", spec.Table,
				"deleted", rep.Deleted,
				"reparented", rep.Reparented,
				"index_created", rep.IndexCreated,
				"indexes_dropped", rep.IndexesDropped,
			)
		}
	}
	r.log.Info("Schema repair finished", "tables", len(reports), "failed", failed, "duration", time.Since(start).String())
	return reports
}

func (r *Repairer) repairTable(ctx context.Context, spec catalog.KeySpec) RepairReport {
	rep := RepairReport{Table: spec.Table}
	if err := ctx.Err(); err != nil {
		rep.Err = err
		return rep
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range r.childrenOf(spec) {
			var pending int64
			if err := tx.Raw(pendingChildrenSQL(spec, child)).Scan(&pending).Error; err != nil {
				return fmt.Errorf("count %s.%s: %w", child.Table, spec.RefColumn, err)
			}
			if pending == 0 {
				continue
			}
			if err := tx.Exec("DROP INDEX IF EXISTS " + child.UniqueIndexName()).Error; err != nil {
				return fmt.Errorf("drop %s: %w", child.UniqueIndexName(), err)
			}
			rep.IndexesDropped = append(rep.IndexesDropped, child.UniqueIndexName())
			res := tx.Exec(reparentSQL(spec, child))
			if res.Error != nil {
				return fmt.Errorf("reparent %s.%s: %w", child.Table, spec.RefColumn, res.Error)
			}
			rep.Reparented += res.RowsAffected
		}
		res := tx.Exec(deleteDuplicatesSQL(spec))
		if res.Error != nil {
			return fmt.Errorf("delete duplicates: %w", res.Error)
		}
		rep.Deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		rep.Reparented, rep.Deleted, rep.IndexesDropped = 0, 0, nil
		rep.Err = err
		return rep
	}

	if err := r.db.WithContext(ctx).Exec(spec.UniqueIndexDDL()).Error; err != nil {
		if IsAlreadyExists(err) {
			rep.IndexExisted = true
			return rep
		}
		rep.Err = fmt.Errorf("create %s: %w", spec.UniqueIndexName(), err)
		return rep
	}
	rep.IndexCreated = true
	return rep
}

// childrenOf lists tables whose key includes a reference to spec.
func (r *Repairer) childrenOf(spec catalog.KeySpec) []catalog.KeySpec {
	if spec.RefColumn == "" {
		return nil
	}
	var out []catalog.KeySpec
	for _, other := range r.tables {
		if other.Table == spec.Table {
			continue
		}
		for _, c := range other.Columns {
			if c == spec.RefColumn {
				out = append(out, other)
				break
			}
		}
	}
	return out
}

// duplicateIDsSQL selects every row that has a lower-id twin. The lowest id of
// each group is never selected.
func duplicateIDsSQL(spec catalog.KeySpec) string {
	return fmt.Sprintf(
		"SELECT a.id FROM %[1]s a JOIN %[1]s b ON b.id < a.id AND %[2]s",
		spec.Table, spec.PairClause("a", "b"),
	)
}

func deleteDuplicatesSQL(spec catalog.KeySpec) string {
	return fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", spec.Table, duplicateIDsSQL(spec))
}

// pendingChildrenSQL counts child rows that still point at a duplicate parent.
func pendingChildrenSQL(parent, child catalog.KeySpec) string {
	return fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE %s IN (%s)",
		child.Table, parent.RefColumn, duplicateIDsSQL(parent),
	)
}

// reparentSQL points child rows at the surviving (lowest id) twin.
func reparentSQL(parent, child catalog.KeySpec) string {
	keep := fmt.Sprintf(
		"SELECT MIN(b.id) FROM %[1]s a JOIN %[1]s b ON b.id < a.id AND %[2]s WHERE a.id = %[3]s.%[4]s",
		parent.Table, parent.PairClause("a", "b"), child.Table, parent.RefColumn,
	)
	return fmt.Sprintf(
		"UPDATE %[1]s SET %[2]s = (%[3]s) WHERE %[2]s IN (%[4]s)",
		child.Table, parent.RefColumn, keep, duplicateIDsSQL(parent),
	)
}
