package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/estimatekeeper/internal/common"
	"github.com/dmitrijs2005/estimatekeeper/internal/dbx"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
)

// SQLiteRepository implements Repository over the sync_queue table.
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, c *models.Change) (int64, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = models.Now(r.now())
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_queue (table_name, op, payload, created_at) VALUES (?, ?, ?, ?)`,
		string(c.Table), string(c.Op), c.Payload, models.FormatTime(c.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue %s %s: %w", c.Op, c.Table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue id: %w", err)
	}
	c.ID = id
	return id, nil
}

func (r *SQLiteRepository) ListPending(ctx context.Context) ([]*models.Change, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, table_name, op, payload, created_at FROM sync_queue ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}
	defer rows.Close()

	var result []*models.Change
	for rows.Next() {
		var (
			c              models.Change
			table, op, cat string
		)
		if err := rows.Scan(&c.ID, &table, &op, &c.Payload, &cat); err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		c.Table = models.Table(table)
		c.Op = models.Op(op)
		if c.CreatedAt, err = models.ParseTime(cat); err != nil {
			return nil, fmt.Errorf("queue entry %d: %w", c.ID, err)
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to clear queue entry %d: %w", id, err)
	}
	if err := dbx.ExpectRows(res, 1); err != nil {
		if errors.Is(err, dbx.ErrNoRowsAffected) {
			return fmt.Errorf("queue entry %d: %w", id, common.ErrorNotFound)
		}
		return err
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue`); err != nil {
		return fmt.Errorf("failed to wipe queue: %w", err)
	}
	return nil
}
