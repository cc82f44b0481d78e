// Package models contains the domain records mirrored between the device's
// local store and the remote store: customers, estimates, estimate items,
// photos and catalog items.
//
// Every record embeds a Revision (id, version, updated_at, deleted_at) and
// implements Record, which gives repositories on both sides the table name,
// the ordered column list, the bound values and a scanner. Column names are
// fixed here and are the only identifiers ever spliced into SQL text; all
// values are bound as parameters.
//
// Change is the typed change-queue entry. Its payload is a JSON snapshot of
// one record and is decoded back into the concrete type selected by the
// entry's table name.
package models
