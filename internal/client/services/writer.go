package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/estimatekeeper/internal/client/repositories/repomanager"
	"github.com/dmitrijs2005/estimatekeeper/internal/common"
	"github.com/dmitrijs2005/estimatekeeper/internal/dbx"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"github.com/google/uuid"
)

// DBProvider hands out the open local database. *store.Store implements it.
type DBProvider interface {
	DB() (*sql.DB, error)
}

// writer is shared by the domain services.
type writer struct {
	store DBProvider
	repos repomanager.Manager
	now   func() time.Time
}

func newWriter(store DBProvider) writer {
	return writer{store: store, now: time.Now}
}

func (w writer) db() (*sql.DB, error) {
	db, err := w.store.DB()
	if err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}
	return db, nil
}

// tx runs fn in one local transaction.
func (w writer) tx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	db, err := w.db()
	if err != nil {
		return err
	}
	return dbx.WithTx(ctx, db, nil, fn)
}

// create assigns a fresh id, stamps version 1 and records an insert.
func (w writer) create(ctx context.Context, tx dbx.DBTX, rec models.Record) error {
	rev := rec.Rev()
	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	rev.Version = 0
	rev.DeletedAt = nil
	rev.Touch(w.now())
	return w.persist(ctx, tx, models.OpInsert, rec)
}

// update bumps the version and records an update.
func (w writer) update(ctx context.Context, tx dbx.DBTX, rec models.Record) error {
	rec.Rev().Touch(w.now())
	return w.persist(ctx, tx, models.OpUpdate, rec)
}

// softDelete writes a tombstone and queues it as an update so the remote
// keeps the row with deleted_at set.
func (w writer) softDelete(ctx context.Context, tx dbx.DBTX, rec models.Record) error {
	if rec.Rev().IsDeleted() {
		return nil
	}
	rec.Rev().MarkDeleted(w.now())
	return w.persist(ctx, tx, models.OpUpdate, rec)
}

func (w writer) persist(ctx context.Context, tx dbx.DBTX, op models.Op, rec models.Record) error {
	if err := w.repos.Put(ctx, tx, rec); err != nil {
		return err
	}
	change, err := models.NewChange(op, rec)
	if err != nil {
		return err
	}
	if _, err := w.repos.Queue(tx).Enqueue(ctx, change); err != nil {
		return err
	}
	return nil
}

func required(field, v string) error {
	if v == "" {
		return fmt.Errorf("%w: %s is required", common.ErrorValidation, field)
	}
	return nil
}

func nonNegative(field string, v float64) error {
	if v < 0 {
		return fmt.Errorf("%w: %s must not be negative", common.ErrorValidation, field)
	}
	return nil
}
