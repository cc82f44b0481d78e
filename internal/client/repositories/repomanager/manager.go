// Package repomanager hands out the client repositories bound to a given
// DBTX, so the same code runs against the database or inside a transaction.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/estimatekeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/estimatekeeper/internal/client/repositories/queue"
	"github.com/dmitrijs2005/estimatekeeper/internal/client/repositories/records"
	"github.com/dmitrijs2005/estimatekeeper/internal/client/repositories/uploads"
	"github.com/dmitrijs2005/estimatekeeper/internal/dbx"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
)

type (
	CustomerRepository = records.Repository[models.Customer, *models.Customer]
	EstimateRepository = records.Repository[models.Estimate, *models.Estimate]
	ItemRepository     = records.Repository[models.EstimateItem, *models.EstimateItem]
	PhotoRepository    = records.Repository[models.Photo, *models.Photo]
	CatalogRepository  = records.Repository[models.CatalogItem, *models.CatalogItem]
)

// Manager is stateless; the zero value is ready to use.
type Manager struct{}

func (Manager) Customers(db dbx.DBTX) *CustomerRepository { return records.New[models.Customer](db) }
func (Manager) Estimates(db dbx.DBTX) *EstimateRepository { return records.New[models.Estimate](db) }
func (Manager) Items(db dbx.DBTX) *ItemRepository         { return records.New[models.EstimateItem](db) }
func (Manager) Photos(db dbx.DBTX) *PhotoRepository       { return records.New[models.Photo](db) }
func (Manager) Catalog(db dbx.DBTX) *CatalogRepository    { return records.New[models.CatalogItem](db) }

func (Manager) Queue(db dbx.DBTX) queue.Repository       { return queue.NewSQLiteRepository(db) }
func (Manager) Metadata(db dbx.DBTX) metadata.Repository { return metadata.NewSQLiteRepository(db) }
func (Manager) Uploads(db dbx.DBTX) uploads.Repository   { return uploads.NewSQLiteRepository(db) }

// Put upserts any mirrored record.
func (Manager) Put(ctx context.Context, db dbx.DBTX, rec models.Record) error {
	return records.Upsert(ctx, db, rec)
}

// SetPhotoLocalURI writes only the device-local path of a photo.
func (Manager) SetPhotoLocalURI(ctx context.Context, db dbx.DBTX, id, local string) error {
	return records.SetPhotoLocalURI(ctx, db, id, local)
}

// WipeMirror removes every mirrored row, the change queue and pending
// uploads. Tables are emptied children first so foreign keys hold
// throughout.
func (m Manager) WipeMirror(ctx context.Context, db dbx.DBTX) error {
	for i := len(models.Tables) - 1; i >= 0; i-- {
		if err := records.DeleteAll(ctx, db, models.Tables[i]); err != nil {
			return err
		}
	}
	if err := m.Queue(db).DeleteAll(ctx); err != nil {
		return err
	}
	return m.Uploads(db).DeleteAll(ctx)
}
