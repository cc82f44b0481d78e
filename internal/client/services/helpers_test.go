package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/estimatekeeper/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/estimatekeeper/internal/client/store"
	"github.com/dmitrijs2005/estimatekeeper/internal/logging"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"github.com/dmitrijs2005/estimatekeeper/internal/rpc"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) Close() error { return nil }

func (m *mockRemote) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockRemote) Insert(ctx context.Context, rec models.Record) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockRemote) Update(ctx context.Context, rec models.Record) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockRemote) Delete(ctx context.Context, table models.Table, id string) error {
	return m.Called(ctx, table, id).Error(0)
}

func (m *mockRemote) SelectByUser(ctx context.Context, table models.Table, userID string) ([]models.Record, error) {
	args := m.Called(ctx, table, userID)
	recs, _ := args.Get(0).([]models.Record)
	return recs, args.Error(1)
}

func (m *mockRemote) SelectByEstimates(ctx context.Context, table models.Table, ids []string) ([]models.Record, error) {
	args := m.Called(ctx, table, ids)
	recs, _ := args.Get(0).([]models.Record)
	return recs, args.Error(1)
}

func (m *mockRemote) PresignPhoto(ctx context.Context, key string, method rpc.PresignMethod) (string, error) {
	args := m.Called(ctx, key, method)
	return args.String(0), args.Error(1)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New("", logging.Nop())
	_, err := s.OpenAndInit(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testDB(t *testing.T, s *store.Store) *sql.DB {
	t.Helper()
	db, err := s.DB()
	require.NoError(t, err)
	return db
}

func pending(t *testing.T, s *store.Store) []*models.Change {
	t.Helper()
	got, err := repomanager.Manager{}.Queue(testDB(t, s)).ListPending(context.Background())
	require.NoError(t, err)
	return got
}

// enqueue appends a change for rec without touching the mirrored tables.
func enqueue(t *testing.T, s *store.Store, op models.Op, rec models.Record) int64 {
	t.Helper()
	c, err := models.NewChange(op, rec)
	require.NoError(t, err)
	id, err := repomanager.Manager{}.Queue(testDB(t, s)).Enqueue(context.Background(), c)
	require.NoError(t, err)
	return id
}

func rev(id string, version int64) models.Revision {
	return models.Revision{ID: id, Version: version, UpdatedAt: models.Now(time.Now())}
}

func fixedClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}
