// Package queue stores the change queue: an append-only FIFO log of local
// mutations that still have to reach the remote store.
//
// Entries are ordered by their autoincrement id, which is insertion order.
// Nothing reorders, coalesces or expires entries; Clear is the only way a
// single entry leaves the queue.
package queue

import (
	"context"

	"github.com/dmitrijs2005/estimatekeeper/internal/models"
)

type Repository interface {
	// Enqueue appends c, stamping CreatedAt when unset, and returns the
	// queue-local id.
	Enqueue(ctx context.Context, c *models.Change) (int64, error)
	// ListPending returns all entries oldest first.
	ListPending(ctx context.Context) ([]*models.Change, error)
	// Clear removes one entry. It returns common.ErrorNotFound if the entry
	// is already gone.
	Clear(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	// DeleteAll empties the queue. Used by bootstrap and local wipes only.
	DeleteAll(ctx context.Context) error
}
