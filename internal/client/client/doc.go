// Package client talks to the remote store.
//
// Client is the transport-agnostic contract the sync engine, bootstrap and
// media services depend on: per-table insert, update-by-id, delete-by-id,
// bulk selects scoped by user or by estimate, presigned photo URLs and a
// reachability probe. GRPCClient implements it over the RemoteStore gRPC
// service described in package rpc.
//
// # Error Handling
//
// Transport conditions are mapped to sentinel errors matched with
// errors.Is: ErrUnavailable for unreachable or timed-out calls,
// ErrUnauthorized, ErrRejected for requests the server refused as invalid,
// and common.ErrorNotFound. Anything else is wrapped as an rpc error.
//
// All methods honor context cancellation and are safe for concurrent use.
package client
