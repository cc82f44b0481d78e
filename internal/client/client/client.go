package client

import (
	"context"

	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"github.com/dmitrijs2005/estimatekeeper/internal/rpc"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error

	// Insert creates rec remotely; an existing row with the same id is
	// replaced.
	Insert(ctx context.Context, rec models.Record) error
	// Update overwrites the remote row with rec's id.
	Update(ctx context.Context, rec models.Record) error
	// Delete removes the remote row with id.
	Delete(ctx context.Context, table models.Table, id string) error

	SelectByUser(ctx context.Context, table models.Table, userID string) ([]models.Record, error)
	SelectByEstimates(ctx context.Context, table models.Table, estimateIDs []string) ([]models.Record, error)

	// PresignPhoto returns a URL valid for method on the object key.
	PresignPhoto(ctx context.Context, key string, method rpc.PresignMethod) (string, error)
}
