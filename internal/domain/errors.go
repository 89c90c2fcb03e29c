package domain

import "errors"

// Sentinel errors shared across services and mapped to HTTP statuses at the
// API boundary. Services wrap them with context via fmt.Errorf and %w.
var (
	// ErrNotFound means a task or workspace reference did not resolve.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the acting user has no membership row in the
	// workspace that owns the target, or lacks the role a privileged
	// operation requires.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation means a value fell outside its declared domain,
	// e.g. an unrecognized status or a cross-workspace parent reference.
	ErrValidation = errors.New("validation failed")
)
