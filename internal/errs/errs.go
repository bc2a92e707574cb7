// Package errs contains sentinel errors shared across layers for stable
// error mapping at the transport boundary.
package errs

import "errors"

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidEncoding indicates a malformed upload chunk payload.
	ErrInvalidEncoding = errors.New("invalid encoding")

	// ErrFinalized indicates a mutation attempt on a completed doodle.
	ErrFinalized = errors.New("doodle already finalized")

	// ErrNameFrozen indicates the artist already spent their one rename.
	ErrNameFrozen = errors.New("display name frozen")

	// ErrNameTaken indicates another artist holds the requested name.
	ErrNameTaken = errors.New("display name taken")

	// ErrNotLoggedIn indicates the operation requires an authenticated caller.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrConflictOfInterest indicates an artist rating their own doodle.
	ErrConflictOfInterest = errors.New("conflict of interest")

	// ErrValidation indicates invalid caller-supplied input.
	ErrValidation = errors.New("validation failed")
)
