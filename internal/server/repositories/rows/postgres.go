package rows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/estimatekeeper/internal/common"
	"github.com/dmitrijs2005/estimatekeeper/internal/dbx"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, rec models.Record) error {
	if err := checkTable(rec.Table()); err != nil {
		return err
	}
	cols := rec.Columns()

	set := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		set = append(set, c+" = EXCLUDED."+c)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s`,
		rec.Table(), strings.Join(cols, ", "), placeholders(1, len(cols)), strings.Join(set, ", "))

	if _, err := r.db.ExecContext(ctx, query, rec.Values()...); err != nil {
		return fmt.Errorf("failed to upsert %s %s: %w", rec.Table(), rec.Rev().ID, err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, rec models.Record) error {
	if err := checkTable(rec.Table()); err != nil {
		return err
	}
	cols := rec.Columns()

	set := make([]string, 0, len(cols)-1)
	for i, c := range cols[1:] {
		set = append(set, fmt.Sprintf("%s = $%d", c, i+2))
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1`, rec.Table(), strings.Join(set, ", "))

	res, err := r.db.ExecContext(ctx, query, rec.Values()...)
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", rec.Table(), rec.Rev().ID, err)
	}
	if err := dbx.ExpectRows(res, 1); err != nil {
		if errors.Is(err, dbx.ErrNoRowsAffected) {
			return fmt.Errorf("%s %s: %w", rec.Table(), rec.Rev().ID, common.ErrorNotFound)
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, table models.Table, id string) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", table, id, err)
	}
	return nil
}

func (r *PostgresRepository) SelectByUser(ctx context.Context, table models.Table, userID string) ([]models.Record, error) {
	if err := checkScope(table, "user_id"); err != nil {
		return nil, err
	}
	return r.selectWhere(ctx, table, "user_id = $1", userID)
}

func (r *PostgresRepository) SelectByEstimates(ctx context.Context, table models.Table, estimateIDs []string) ([]models.Record, error) {
	if err := checkScope(table, "estimate_id"); err != nil {
		return nil, err
	}
	if len(estimateIDs) == 0 {
		return []models.Record{}, nil
	}
	return r.selectWhere(ctx, table, "estimate_id = ANY($1)", estimateIDs)
}

func (r *PostgresRepository) selectWhere(ctx context.Context, table models.Table, where string, arg any) ([]models.Record, error) {
	proto, err := models.NewRecord(table)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY updated_at, id`,
		strings.Join(proto.Columns(), ", "), table, where)

	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", table, err)
	}
	defer rows.Close()

	result := []models.Record{}
	for rows.Next() {
		rec, _ := models.NewRecord(table)
		if err := rec.Scan(rows); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func checkTable(t models.Table) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", common.ErrUnknownTable, string(t))
	}
	return nil
}

func checkScope(t models.Table, column string) error {
	if err := checkTable(t); err != nil {
		return err
	}
	if t.ScopeColumn() != column {
		return fmt.Errorf("%w: %s is not scoped by %s", common.ErrorValidation, t, column)
	}
	return nil
}

// placeholders renders n numbered parameters starting at $from.
func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ps, ", ")
}
