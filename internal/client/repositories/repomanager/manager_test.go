package repomanager

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/estimatekeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/estimatekeeper/internal/client/store"
	"github.com/dmitrijs2005/estimatekeeper/internal/logging"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWipeMirror_RemovesEverythingButMetadata(t *testing.T) {
	s := store.New("", logging.Nop())
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()
	db, err := s.OpenAndInit(ctx)
	require.NoError(t, err)

	var m Manager
	now := time.Now()
	customer := "c1"
	recs := []models.Record{
		&models.Customer{Revision: models.Revision{ID: "c1"}, UserID: "u1", Name: "Acme"},
		&models.CatalogItem{Revision: models.Revision{ID: "k1"}, UserID: "u1", Name: "Paint"},
		&models.Estimate{Revision: models.Revision{ID: "e1"}, UserID: "u1", CustomerID: &customer, Status: models.StatusDraft},
		&models.EstimateItem{Revision: models.Revision{ID: "i1"}, EstimateID: "e1"},
		&models.Photo{Revision: models.Revision{ID: "p1"}, EstimateID: "e1", URI: "photos/e1/p1.jpg"},
	}
	for _, r := range recs {
		r.Rev().Touch(now)
		require.NoError(t, m.Put(ctx, db, r))
	}
	ch, err := models.NewChange(models.OpInsert, recs[0])
	require.NoError(t, err)
	_, err = m.Queue(db).Enqueue(ctx, ch)
	require.NoError(t, err)
	require.NoError(t, m.Uploads(db).MarkPending(ctx, "p1"))
	require.NoError(t, m.Metadata(db).Put(ctx, map[metadata.Key]string{metadata.KeyDeviceID: "d1"}))

	require.NoError(t, m.WipeMirror(ctx, db))

	for _, n := range []func() (int, error){
		func() (int, error) { return m.Customers(db).Count(ctx) },
		func() (int, error) { return m.Catalog(db).Count(ctx) },
		func() (int, error) { return m.Estimates(db).Count(ctx) },
		func() (int, error) { return m.Items(db).Count(ctx) },
		func() (int, error) { return m.Photos(db).Count(ctx) },
		func() (int, error) { return m.Queue(db).Count(ctx) },
	} {
		got, err := n()
		require.NoError(t, err)
		assert.Zero(t, got)
	}

	pending, err := m.Uploads(db).ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	v, ok, err := m.Metadata(db).Get(ctx, metadata.KeyDeviceID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "d1", v)
}
