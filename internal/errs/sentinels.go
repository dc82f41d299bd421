// Package errs holds the failure kinds shared by the registries, their storage
// and the HTTP layer. Match them with errors.Is.
package errs

import "errors"

var (
	// ErrUnauthorized means the caller lacks the role the operation requires.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound means a read targeted a record that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument means an input was malformed or out of range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPreconditionFailed means a required prior state is missing.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrLockTimeout means exclusive access to a key could not be obtained in time.
	ErrLockTimeout = errors.New("lock timeout")
)
