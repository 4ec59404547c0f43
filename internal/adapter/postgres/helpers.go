package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	pg "github.com/Temutjin2k/authhub/pkg/postgres"
	"github.com/jackc/pgx/v5"
)

// dbError maps driver errors to domain sentinels and adds the operation name.
func dbError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, types.ErrNotFound)
	case pg.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w (%s)", op, types.ErrConflict, pg.ConstraintName(err))
	case pg.IsForeignKeyViolation(err):
		return fmt.Errorf("%s: %w (%s)", op, types.ErrNotFound, pg.ConstraintName(err))
	default:
		return fmt.Errorf("%s: %w: %v", op, types.ErrDatabaseFailed, err)
	}
}

// where accumulates AND-ed conditions with positional arguments.
type where struct {
	conds []string
	args  []any
}

// add appends cond, replacing every "?" with the next placeholder.
func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) raw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

// page renders ORDER BY and LIMIT/OFFSET. The sort column comes from the
// filter safelist and is never taken from the raw request.
func (w *where) page(f models.Filters) string {
	return w.pageAs("", f)
}

// pageAs is page for queries where columns need a table alias.
func (w *where) pageAs(alias string, f models.Filters) string {
	if alias != "" {
		alias += "."
	}
	w.args = append(w.args, f.Limit(), f.Offset())
	n := len(w.args)
	return fmt.Sprintf("ORDER BY %s%s %s, %sid ASC LIMIT $%d OFFSET $%d",
		alias, f.SortColumn(), f.SortDirection(), alias, n-1, n)
}

// collect scans rows with scan and returns the items and the total taken from
// the count(*) OVER() column that scan fills in.
func collect[T any](rows pgx.Rows, scan func(row pgx.Row, total *int) (T, error)) ([]T, int, error) {
	defer rows.Close()

	var (
		items []T
		total int
	)
	for rows.Next() {
		item, err := scan(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// listQuery describes a paged SELECT over from. columns is the select list
// and alias qualifies the sort columns when from joins several tables.
type listQuery struct {
	op      string
	columns string
	from    string
	alias   string
}

// list runs a paged query with the conditions collected in w. A page past the
// end has no row to carry count(*) OVER(), so the total is then counted
// separately.
func list[T any](ctx context.Context, db Querier, lq listQuery, w *where, f models.Filters, scan func(row pgx.Row, total *int) (T, error)) ([]T, int, error) {
	conds := w.String()
	nargs := len(w.args)
	q := `SELECT ` + lq.columns + `, count(*) OVER() FROM ` + lq.from + ` ` + conds + ` ` + w.pageAs(lq.alias, f)

	rows, err := db.Query(ctx, q, w.args...)
	if err != nil {
		return nil, 0, dbError(lq.op, err)
	}
	items, total, err := collect(rows, scan)
	if err != nil {
		return nil, 0, dbError(lq.op, err)
	}

	if len(items) == 0 && f.Offset() > 0 {
		cq := `SELECT count(*) FROM ` + lq.from + ` ` + conds
		if err := db.QueryRow(ctx, cq, w.args[:nargs]...).Scan(&total); err != nil {
			return nil, 0, dbError(lq.op, err)
		}
	}
	return items, total, nil
}

// prefixed qualifies a comma separated column list with a table alias.
func prefixed(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
