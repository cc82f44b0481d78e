// Package store owns the device-local SQLite database.
//
// A Store is constructed once at startup and handed to every component that
// needs the database; Open is idempotent and always yields the same handle.
// The handle is limited to one connection, so statements are serialized by
// database/sql and a transaction holds the database exclusively until it
// commits or rolls back. Code running inside a transaction must therefore
// use the transaction handle only.
//
// InitSchema applies the embedded goose migrations and then the additive
// column pass, which adds columns introduced after a table was first
// created. Neither step drops or rewrites data.
//
// Reset is the factory reset: it closes the handle, removes the database
// file and its WAL/SHM/journal siblings, and initializes an empty schema.
package store
