// Package services implements the client-side use cases on top of the
// local store: domain writers that pair every local mutation with its
// change-queue entry, the sync engine that replays the queue against the
// remote store, bootstrap and reset of the local mirror, and photo media
// transfer.
//
// Writers never talk to the network. Everything they do lands in the
// local database in one transaction together with the queue entry that
// will later carry it to the remote store.
package services
