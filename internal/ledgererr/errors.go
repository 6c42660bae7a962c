// Package ledgererr defines the error taxonomy shared by every ledger
// operation. Each rejected precondition wraps exactly one of these sentinels
// so callers (and the HTTP edge) can map the failure to a distinct kind.
package ledgererr

import "errors"

var (
	// ErrInvalidArgument signals malformed or out-of-range input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPermissionDenied signals an authorization or ownership mismatch.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound signals that a referenced entity is absent.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists signals a duplicate identifier or key.
	ErrAlreadyExists = errors.New("already exists")

	// ErrConflict signals a state-machine violation, e.g. uploading into a
	// completed file or reusing a chunk index.
	ErrConflict = errors.New("conflict")

	// ErrFailedPrecondition signals a quantity mismatch, e.g. completion
	// count mismatch or an already saturated escrow set.
	ErrFailedPrecondition = errors.New("failed precondition")

	// ErrResourceExhausted signals that a quota ceiling was reached.
	ErrResourceExhausted = errors.New("resource exhausted")
)
