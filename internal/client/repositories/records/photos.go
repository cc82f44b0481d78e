package records

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/estimatekeeper/internal/common"
	"github.com/dmitrijs2005/estimatekeeper/internal/dbx"
)

// SetPhotoLocalURI records where the binary of photo id lives on this
// device. Only local_uri is written; the revision envelope and every synced
// column keep whatever value they have at the time of the statement.
func SetPhotoLocalURI(ctx context.Context, db dbx.DBTX, id, local string) error {
	res, err := db.ExecContext(ctx, `UPDATE photos SET local_uri = ? WHERE id = ?`, local, id)
	if err != nil {
		return fmt.Errorf("failed to set local uri of photo %s: %w", id, err)
	}
	if err := dbx.ExpectRows(res, 1); err != nil {
		return fmt.Errorf("photo %s: %w", id, common.ErrorNotFound)
	}
	return nil
}
