package domain

import "errors"

// Sentinel errors surfaced by storage adapters so callers can react to
// constraint violations without knowing the driver.
var (
	// ErrDuplicate indicates a uniqueness violation, e.g. two tags with the
	// same (workspace, name) or a repeated time-entry/tag pair.
	ErrDuplicate = errors.New("duplicate row")

	// ErrMissingReference indicates a foreign-key violation: a non-null
	// reference to a row that does not exist.
	ErrMissingReference = errors.New("referenced row does not exist")

	// ErrNotFound indicates a lookup for a row that is not stored.
	ErrNotFound = errors.New("not found")
)
