// Package services holds the server's business logic: the table store the
// devices sync against and the photo presigner.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/estimatekeeper/internal/common"
	"github.com/dmitrijs2005/estimatekeeper/internal/logging"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"github.com/dmitrijs2005/estimatekeeper/internal/rpc"
	"github.com/dmitrijs2005/estimatekeeper/internal/server/repositories/repomanager"
)

// StoreService applies device writes to the mirrored tables. Writes are
// last-write-wins: the incoming row replaces the stored one whatever its
// version.
type StoreService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewStoreService(db *sql.DB, repomanager repomanager.RepositoryManager, logger logging.Logger) *StoreService {
	return &StoreService{
		db:          db,
		repomanager: repomanager,
		logger:      logger.With("module", "store_service"),
	}
}

// Insert creates rec or replaces an existing row with the same id, so a
// replayed insert is harmless.
func (s *StoreService) Insert(ctx context.Context, rec models.Record) error {
	if err := prepare(rec); err != nil {
		return err
	}
	if err := s.repomanager.Rows(s.db).Upsert(ctx, rec); err != nil {
		return err
	}
	s.logger.Debug(ctx, "row inserted", "table", rec.Table(), "id", rec.Rev().ID, "version", rec.Rev().Version)
	return nil
}

// Update overwrites the row with rec's id. Updating a row the server has
// never seen fails with common.ErrorNotFound so the device keeps the entry
// until its insert has gone through.
func (s *StoreService) Update(ctx context.Context, rec models.Record) error {
	if err := prepare(rec); err != nil {
		return err
	}
	if err := s.repomanager.Rows(s.db).Update(ctx, rec); err != nil {
		return err
	}
	s.logger.Debug(ctx, "row updated", "table", rec.Table(), "id", rec.Rev().ID, "version", rec.Rev().Version)
	return nil
}

// Delete removes a row for good. It is idempotent.
func (s *StoreService) Delete(ctx context.Context, table models.Table, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", common.ErrorValidation)
	}
	return s.repomanager.Rows(s.db).Delete(ctx, table, id)
}

// Select runs a bulk read scoped the way q's table is scoped.
func (s *StoreService) Select(ctx context.Context, q rpc.SelectQuery) ([]models.Record, error) {
	repo := s.repomanager.Rows(s.db)
	if q.Table.ScopeColumn() == "estimate_id" {
		return repo.SelectByEstimates(ctx, q.Table, q.EstimateIDs)
	}
	if q.UserID == "" {
		return nil, fmt.Errorf("%w: empty user id", common.ErrorValidation)
	}
	return repo.SelectByUser(ctx, q.Table, q.UserID)
}

// prepare checks the envelope and scope of rec and drops device-local
// fields.
func prepare(rec models.Record) error {
	if !rec.Table().Valid() {
		return fmt.Errorf("%w: %q", common.ErrUnknownTable, string(rec.Table()))
	}

	rev := rec.Rev()
	switch {
	case rev.ID == "":
		return fmt.Errorf("%w: %s row without id", common.ErrorValidation, rec.Table())
	case rev.Version < 1:
		return fmt.Errorf("%w: %s %s has version %d", common.ErrorValidation, rec.Table(), rev.ID, rev.Version)
	case rev.UpdatedAt.IsZero():
		return fmt.Errorf("%w: %s %s has no updated_at", common.ErrorValidation, rec.Table(), rev.ID)
	}

	scope := rec.Table().ScopeColumn()
	values := rec.Values()
	for i, c := range rec.Columns() {
		if c != scope {
			continue
		}
		if v, _ := values[i].(string); v == "" {
			return fmt.Errorf("%w: %s %s has empty %s", common.ErrorValidation, rec.Table(), rev.ID, scope)
		}
	}

	if p, ok := rec.(*models.Photo); ok {
		p.LocalURI = nil
	}
	return nil
}
