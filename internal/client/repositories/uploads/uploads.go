// Package uploads tracks photo binaries that exist on the device but have
// not been uploaded to object storage yet. The table is device-local and is
// never synchronized.
package uploads

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/estimatekeeper/internal/dbx"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
)

type Repository interface {
	MarkPending(ctx context.Context, photoID string) error
	ListPending(ctx context.Context) ([]string, error)
	Done(ctx context.Context, photoID string) error
	DeleteAll(ctx context.Context) error
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) MarkPending(ctx context.Context, photoID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO photo_uploads (photo_id, created_at) VALUES (?, ?) ON CONFLICT(photo_id) DO NOTHING`,
		photoID, models.FormatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to mark photo %s for upload: %w", photoID, err)
	}
	return nil
}

// ListPending returns photo ids oldest first.
func (r *SQLiteRepository) ListPending(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT photo_id FROM photo_uploads ORDER BY created_at, photo_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending uploads: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) Done(ctx context.Context, photoID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM photo_uploads WHERE photo_id = ?`, photoID); err != nil {
		return fmt.Errorf("failed to clear upload mark for %s: %w", photoID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM photo_uploads`); err != nil {
		return fmt.Errorf("failed to wipe pending uploads: %w", err)
	}
	return nil
}
