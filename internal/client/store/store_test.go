package store

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/estimatekeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "estimates.db"), logging.Nop())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func tableNames(t *testing.T, db *sql.DB) map[string]bool {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table'`)
	require.NoError(t, err)
	defer rows.Close()

	names := map[string]bool{}
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names[n] = true
	}
	require.NoError(t, rows.Err())
	return names
}

func TestOpen_IsIdempotent(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	db1, err := s.Open(ctx)
	require.NoError(t, err)
	db2, err := s.Open(ctx)
	require.NoError(t, err)
	assert.Same(t, db1, db2)

	got, err := s.DB()
	require.NoError(t, err)
	assert.Same(t, db1, got)
}

func TestDB_BeforeOpen(t *testing.T) {
	s := New("", logging.Nop())
	_, err := s.DB()
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, s.InitSchema(context.Background()), ErrClosed)
	require.NoError(t, s.Close())
}

func TestInitSchema_CreatesTablesAndIsRepeatable(t *testing.T) {
	s := New("", logging.Nop())
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	db, err := s.OpenAndInit(ctx)
	require.NoError(t, err)
	require.NoError(t, s.InitSchema(ctx))

	names := tableNames(t, db)
	for _, want := range []string{"customers", "estimates", "estimate_items", "photos", "item_catalog", "sync_queue", "metadata", "photo_uploads"} {
		assert.True(t, names[want], "missing table %s", want)
	}

	cols, err := tableColumns(ctx, db, "estimates")
	require.NoError(t, err)
	assert.True(t, cols["markup_rate"])
}

func TestInitSchema_AddsMissingColumnsWithoutLosingRows(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	db, err := s.Open(ctx)
	require.NoError(t, err)

	// a database created before markup support existed
	_, err = db.Exec(`CREATE TABLE estimates (
		id TEXT PRIMARY KEY, version INTEGER NOT NULL DEFAULT 1, updated_at TEXT NOT NULL, deleted_at TEXT,
		user_id TEXT NOT NULL, customer_id TEXT, date TEXT NOT NULL DEFAULT '',
		material_total REAL NOT NULL DEFAULT 0, labor_hours REAL NOT NULL DEFAULT 0,
		labor_rate REAL NOT NULL DEFAULT 0, labor_total REAL NOT NULL DEFAULT 0,
		subtotal REAL NOT NULL DEFAULT 0, tax_rate REAL NOT NULL DEFAULT 0,
		tax_total REAL NOT NULL DEFAULT 0, total REAL NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '', status TEXT NOT NULL DEFAULT 'draft')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO estimates (id, updated_at, user_id, total) VALUES ('e1', '2025-01-01T00:00:00.000000Z', 'u1', 42)`)
	require.NoError(t, err)

	require.NoError(t, s.InitSchema(ctx))

	var total, markup float64
	require.NoError(t, db.QueryRow(`SELECT total, markup_rate FROM estimates WHERE id = 'e1'`).Scan(&total, &markup))
	assert.Equal(t, 42.0, total)
	assert.Equal(t, 0.0, markup)

	cols, err := tableColumns(ctx, db, "estimate_items")
	require.NoError(t, err)
	assert.True(t, cols["markup_excluded"])
}

func TestEnsureColumns_UnknownTable(t *testing.T) {
	s := New("", logging.Nop())
	t.Cleanup(func() { _ = s.Close() })
	db, err := s.Open(context.Background())
	require.NoError(t, err)

	_, err = ensureColumns(context.Background(), db, []Column{{Table: "nope", Name: "x", Definition: "TEXT"}})
	require.ErrorContains(t, err, "does not exist")
}

func TestInitSchema_MigrationFailureIsSurfaced(t *testing.T) {
	orig := gooseUp
	gooseUp = func(ctx context.Context, db *sql.DB, fsys fs.FS) error { return errors.New("corrupt") }
	t.Cleanup(func() { gooseUp = orig })

	s := New("", logging.Nop())
	t.Cleanup(func() { _ = s.Close() })

	_, err := s.OpenAndInit(context.Background())
	require.ErrorContains(t, err, "corrupt")
}

func TestReset_RemovesFileAndReinitializes(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	db, err := s.OpenAndInit(ctx)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO metadata (key, value) VALUES ('k', 'v')`)
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	_, err = os.Stat(s.Path())
	require.NoError(t, err, "reset must leave a fresh database file")

	fresh, err := s.DB()
	require.NoError(t, err)
	assert.NotSame(t, db, fresh)

	var n int
	require.NoError(t, fresh.QueryRow(`SELECT COUNT(*) FROM metadata`).Scan(&n))
	assert.Zero(t, n)
	assert.True(t, tableNames(t, fresh)["sync_queue"])
}

func TestReset_InMemory(t *testing.T) {
	s := New(":memory:", logging.Nop())
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	db, err := s.OpenAndInit(ctx)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO metadata (key, value) VALUES ('k', 'v')`)
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))
	fresh, err := s.DB()
	require.NoError(t, err)

	var n int
	require.NoError(t, fresh.QueryRow(`SELECT COUNT(*) FROM metadata`).Scan(&n))
	assert.Zero(t, n)
}
