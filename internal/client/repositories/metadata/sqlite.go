package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/estimatekeeper/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key Key) (string, bool, error) {
	var v string
	switch err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, string(key)).Scan(&v); {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("failed to read metadata %s: %w", key, err)
	}
	return v, true, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, values map[Key]string) error {
	if len(values) == 0 {
		return nil
	}
	keys := make([]Key, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	tuples := make([]string, 0, len(keys))
	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		tuples = append(tuples, "(?, ?)")
		args = append(args, string(k), values[k])
	}

	query := `INSERT INTO metadata (key, value) VALUES ` + strings.Join(tuples, ", ") +
		` ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to write metadata %v: %w", keys, err)
	}
	return nil
}

func (r *SQLiteRepository) Reset(ctx context.Context, keep ...Key) error {
	query := `DELETE FROM metadata`
	args := make([]any, 0, len(keep))
	if len(keep) > 0 {
		marks := make([]string, len(keep))
		for i, k := range keep {
			marks[i] = "?"
			args = append(args, string(k))
		}
		query += ` WHERE key NOT IN (` + strings.Join(marks, ", ") + `)`
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to reset metadata: %w", err)
	}
	return nil
}
