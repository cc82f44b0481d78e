// Package common defines constants and sentinel errors shared by the client
// and server sides of estimatekeeper. Callers match the errors with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// ErrUnknownTable is returned for table names outside the mirrored set.
	ErrUnknownTable = errors.New("unknown table")
)
