package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/estimatekeeper/internal/server/repositories/rows"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func stubGoose(t *testing.T, fn func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error) {
	t.Helper()
	orig := gooseUpContext
	gooseUpContext = fn
	t.Cleanup(func() { gooseUpContext = orig })
}

func TestRows_ReturnsPostgresRepository(t *testing.T) {
	m := NewPostgresRepositoryManager()

	r := m.Rows(newDB(t))
	require.NotNil(t, r)
	_, ok := r.(*rows.PostgresRepository)
	assert.True(t, ok)
}

func TestRunMigrations_Success(t *testing.T) {
	var gotDir string
	stubGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	})

	m := &PostgresRepositoryManager{}
	require.NoError(t, m.RunMigrations(context.Background(), newDB(t)))
	assert.Equal(t, ".", gotDir)
}

func TestRunMigrations_Error(t *testing.T) {
	boom := errors.New("boom")
	stubGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return boom
	})

	m := &PostgresRepositoryManager{}
	err := m.RunMigrations(context.Background(), newDB(t))
	require.ErrorIs(t, err, boom)
}

type failingManager struct {
	RepositoryManager
	err error
}

func (f failingManager) RunMigrations(context.Context, *sql.DB) error { return f.err }

func TestOpen_BadDSN(t *testing.T) {
	_, err := Open(context.Background(), "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1",
		failingManager{err: errors.New("not reached")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db ping error")
}
