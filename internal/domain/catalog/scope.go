package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Scope holds the foreign keys that place a row in the taxonomy, keyed by column name.
// A missing or non-positive id means NULL.
type Scope map[string]int64

func (s Scope) Get(col string) (int64, bool) {
	v, ok := s[col]
	return v, ok && v > 0
}

func (s Scope) Ptr(col string) *int64 {
	if v, ok := s.Get(col); ok {
		return &v
	}
	return nil
}

// Only returns the present ids among cols.
func (s Scope) Only(cols []string) Scope {
	out := make(Scope, len(cols))
	for _, c := range cols {
		if v, ok := s.Get(c); ok {
			out[c] = v
		}
	}
	return out
}

func (s Scope) Has(cols ...string) bool {
	for _, c := range cols {
		if _, ok := s.Get(c); !ok {
			return false
		}
	}
	return true
}

// Columns returns the present columns in sorted order.
func (s Scope) Columns() []string {
	cols := make([]string, 0, len(s))
	for c, v := range s {
		if v > 0 {
			cols = append(cols, c)
		}
	}
	sort.Strings(cols)
	return cols
}

// DedupKey identifies a population scope. Column order in the input never
// changes the key, and NULL columns are left out.
func (s Scope) DedupKey(kind Kind) string {
	var b strings.Builder
	b.WriteString(string(kind))
	for _, c := range s.Columns() {
		b.WriteByte('|')
		b.WriteString(c)
		b.WriteByte('=')
		b.WriteString(strconv.FormatInt(s[c], 10))
	}
	return b.String()
}

// KeySpec describes the composite identity of one catalog table: an optional
// case-insensitive name plus NULL-aware scope columns. The matcher predicate,
// the repair self-join and the unique index are all derived from it.
type KeySpec struct {
	Table      string
	NameColumn string
	Columns    []string
	// RefColumn is the column other tables use to point at this one.
	RefColumn string
}

// MatchClause returns a WHERE clause selecting the row identified by scope and name.
// Absent keys compile to IS NULL; present keys never match NULL.
func (k KeySpec) MatchClause(scope Scope, name string) (string, []any) {
	parts := make([]string, 0, len(k.Columns)+1)
	args := make([]any, 0, len(k.Columns)+1)
	if k.NameColumn != "" {
		parts = append(parts, fmt.Sprintf("lower(%s) = lower(?)", k.NameColumn))
		args = append(args, name)
	}
	for _, c := range k.Columns {
		if v, ok := scope.Get(c); ok {
			parts = append(parts, c+" = ?")
			args = append(args, v)
		} else {
			parts = append(parts, c+" IS NULL")
		}
	}
	if len(parts) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(parts, " AND "), args
}

// ScopeClause is MatchClause without the name term, for listing a scope.
func (k KeySpec) ScopeClause(scope Scope) (string, []any) {
	return KeySpec{Table: k.Table, Columns: k.Columns}.MatchClause(scope, "")
}

// PairClause is the NULL-safe equality of two aliases of the same table.
func (k KeySpec) PairClause(a, b string) string {
	parts := make([]string, 0, len(k.Columns)+1)
	if k.NameColumn != "" {
		parts = append(parts, fmt.Sprintf("lower(%s.%s) = lower(%s.%s)", a, k.NameColumn, b, k.NameColumn))
	}
	for _, c := range k.Columns {
		parts = append(parts, fmt.Sprintf("(%s.%s = %s.%s OR (%s.%s IS NULL AND %s.%s IS NULL))", a, c, b, c, a, c, b, c))
	}
	return strings.Join(parts, " AND ")
}

func (k KeySpec) UniqueIndexName() string {
	return "ux_" + k.Table + "_scope"
}

// UniqueIndexDDL mirrors PairClause: ids are positive, so COALESCE(col, 0)
// makes NULL a distinct, comparable value.
func (k KeySpec) UniqueIndexDDL() string {
	exprs := make([]string, 0, len(k.Columns)+1)
	if k.NameColumn != "" {
		exprs = append(exprs, fmt.Sprintf("(lower(%s))", k.NameColumn))
	}
	for _, c := range k.Columns {
		exprs = append(exprs, fmt.Sprintf("(COALESCE(%s, 0))", c))
	}
	return fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)", k.UniqueIndexName(), k.Table, strings.Join(exprs, ", "))
}
