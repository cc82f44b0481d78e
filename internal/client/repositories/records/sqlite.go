package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/estimatekeeper/internal/common"
	"github.com/dmitrijs2005/estimatekeeper/internal/dbx"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
)

// Record is the constraint for Repository: a pointer to a record struct.
type Record[T any] interface {
	*T
	models.Record
}

// Repository reads and writes one mirrored table.
type Repository[T any, PT Record[T]] struct {
	db dbx.DBTX
}

// New returns a repository for T bound to db.
func New[T any, PT Record[T]](db dbx.DBTX) *Repository[T, PT] {
	return &Repository[T, PT]{db: db}
}

func (r *Repository[T, PT]) proto() PT {
	return PT(new(T))
}

// Upsert writes rec, replacing any row with the same id.
func (r *Repository[T, PT]) Upsert(ctx context.Context, rec PT) error {
	return Upsert(ctx, r.db, rec)
}

// Get returns the row with id. Soft-deleted rows are only returned with
// includeDeleted.
func (r *Repository[T, PT]) Get(ctx context.Context, id string, includeDeleted bool) (PT, error) {
	p := r.proto()
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, strings.Join(p.Columns(), ", "), p.Table())
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}

	if err := p.Scan(r.db.QueryRowContext(ctx, query, id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %s: %w", p.Table(), id, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("failed to get %s %s: %w", p.Table(), id, err)
	}
	return p, nil
}

// List returns all rows ordered by last update.
func (r *Repository[T, PT]) List(ctx context.Context, includeDeleted bool) ([]PT, error) {
	return r.list(ctx, "", nil, includeDeleted)
}

// ListBy returns rows whose column equals value. column must be one of the
// record's columns.
func (r *Repository[T, PT]) ListBy(ctx context.Context, column string, value any, includeDeleted bool) ([]PT, error) {
	if !models.HasColumn(r.proto(), column) {
		return nil, fmt.Errorf("%w: %s has no column %q", common.ErrorValidation, r.proto().Table(), column)
	}
	return r.list(ctx, column+" = ?", []any{value}, includeDeleted)
}

func (r *Repository[T, PT]) list(ctx context.Context, where string, args []any, includeDeleted bool) ([]PT, error) {
	p := r.proto()

	var conds []string
	if where != "" {
		conds = append(conds, where)
	}
	if !includeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}

	query := fmt.Sprintf(`SELECT %s FROM %s`, strings.Join(p.Columns(), ", "), p.Table())
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY updated_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", p.Table(), err)
	}
	defer rows.Close()

	var result []PT
	for rows.Next() {
		rec := r.proto()
		if err := rec.Scan(rows); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", p.Table(), err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the number of live rows.
func (r *Repository[T, PT]) Count(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE deleted_at IS NULL`, r.proto().Table())
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.proto().Table(), err)
	}
	return n, nil
}

// Upsert writes any record into its table.
func Upsert(ctx context.Context, db dbx.DBTX, rec models.Record) error {
	cols := rec.Columns()

	set := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		set = append(set, c+" = excluded."+c)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s`,
		rec.Table(), strings.Join(cols, ", "), placeholders(len(cols)), strings.Join(set, ", "))

	if _, err := db.ExecContext(ctx, query, rec.Values()...); err != nil {
		return fmt.Errorf("failed to upsert %s %s: %w", rec.Table(), rec.Rev().ID, err)
	}
	return nil
}

// DeleteAll physically removes every row of table, tombstones included.
func DeleteAll(ctx context.Context, db dbx.DBTX, table models.Table) error {
	if !table.Valid() {
		return fmt.Errorf("%w: %q", common.ErrUnknownTable, string(table))
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
		return fmt.Errorf("failed to wipe %s: %w", table, err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
