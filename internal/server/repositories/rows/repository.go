// Package rows stores the mirrored tables on the server. One repository
// serves every table: the statements are built from the record's column
// list, so a row round-trips exactly as the device sent it.
package rows

import (
	"context"

	"github.com/dmitrijs2005/estimatekeeper/internal/models"
)

type Repository interface {
	// Upsert inserts rec or replaces the row with the same id.
	Upsert(ctx context.Context, rec models.Record) error
	// Update overwrites the row with rec's id. It returns
	// common.ErrorNotFound when there is no such row.
	Update(ctx context.Context, rec models.Record) error
	// Delete removes the row with id. Deleting a missing row succeeds.
	Delete(ctx context.Context, table models.Table, id string) error
	// SelectByUser returns every row of a user-scoped table, tombstones
	// included.
	SelectByUser(ctx context.Context, table models.Table, userID string) ([]models.Record, error)
	// SelectByEstimates returns every row of an estimate-scoped table that
	// belongs to one of estimateIDs, tombstones included.
	SelectByEstimates(ctx context.Context, table models.Table, estimateIDs []string) ([]models.Record, error)
}
