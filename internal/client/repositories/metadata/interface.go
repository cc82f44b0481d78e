// Package metadata keeps small device-local facts about the mirror, such as
// which identity it was bootstrapped for and when the last sync pass ran.
// Metadata never leaves the device.
package metadata

import (
	"context"
	"time"

	"github.com/dmitrijs2005/estimatekeeper/internal/models"
)

type Key string

const (
	KeyBootstrapUserID Key = "bootstrap_user_id"
	KeyBootstrappedAt  Key = "bootstrapped_at"
	KeyLastSyncAt      Key = "last_sync_at"
	KeyDeviceID        Key = "device_id"
)

type Repository interface {
	// Get returns the value for key and whether it is set.
	Get(ctx context.Context, key Key) (string, bool, error)
	// Put writes all values in one statement.
	Put(ctx context.Context, values map[Key]string) error
	// Reset removes every key except keep.
	Reset(ctx context.Context, keep ...Key) error
}

// GetString is Get for callers that treat unset as "".
func GetString(ctx context.Context, r Repository, key Key) (string, error) {
	v, _, err := r.Get(ctx, key)
	return v, err
}

// GetTime reads a timestamp written by PutTime. Unset keys yield the zero
// time.
func GetTime(ctx context.Context, r Repository, key Key) (time.Time, error) {
	v, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		return time.Time{}, err
	}
	return models.ParseTime(v)
}

func PutTime(ctx context.Context, r Repository, key Key, t time.Time) error {
	return r.Put(ctx, map[Key]string{key: models.FormatTime(t)})
}
