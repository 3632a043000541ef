package postgres

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// where accumulates AND-ed conditions with numbered placeholders. Each
// condition carries one %d for its argument's position.
type where struct {
	conds []string
	args  []any
}

func newWhere(args ...any) *where {
	return &where{args: args}
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

// raw adds a condition without an argument
func (w *where) raw(cond string) {
	w.conds = append(w.conds, cond)
}

// next returns the placeholder for an extra argument such as LIMIT
func (w *where) next(arg any) string {
	w.args = append(w.args, arg)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

// collect scans every row with scan
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) { return scan(row) })
}

func stringsOf[S ~string](values []S) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// jsonList keeps nil slices out of NOT NULL jsonb columns
func jsonList[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
