// Package cli is the estimatekeeper client command tree.
//
// Every command opens the local store described by the persistent flags,
// runs against it and closes it again. Only run, sync and bootstrap talk to
// the server; the record commands work fully offline and leave their
// changes in the queue for the next sync.
package cli
