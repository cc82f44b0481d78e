// Package records provides SQLite access to the mirrored domain tables.
//
// Repository is generic over the record type; the SQL is assembled from the
// record's fixed column list and every value is bound with a placeholder.
// Reads skip soft-deleted rows unless includeDeleted is set; only sync and
// bootstrap internals are expected to ask for them.
//
// Upsert has insert-or-replace semantics on id, so replaying the same write
// twice leaves one row.
package records
