// Package shared contains canonical type definitions shared across cubby.
package shared //nolint:revive // internal shared package is intentional

import "errors"

// Semantic errors for object store operations.
var (
	// ErrNotFound indicates the requested object does not exist.
	ErrNotFound = errors.New("cubby: object not found")

	// ErrDuplicateObject indicates a copy succeeded but removing the source
	// failed, leaving the object present at both keys.
	ErrDuplicateObject = errors.New("cubby: object duplicated")

	// ErrConflict indicates the destination of a rename or move already exists.
	ErrConflict = errors.New("cubby: destination exists")

	// ErrPermission indicates the store rejected the credentials or the
	// caller lacks access. Not retryable.
	ErrPermission = errors.New("cubby: permission denied")

	// ErrTransient indicates a network or throttling failure that may
	// succeed if the caller tries again.
	ErrTransient = errors.New("cubby: transient store failure")

	// ErrInvalidKey indicates the provided key or path is malformed or empty.
	ErrInvalidKey = errors.New("cubby: invalid key")

	// ErrInvalidName indicates a file or folder name is empty or contains
	// the hierarchy separator.
	ErrInvalidName = errors.New("cubby: invalid name")

	// ErrNotConfigured indicates the store has no usable region, bucket or
	// credentials.
	ErrNotConfigured = errors.New("cubby: store not configured")

	// ErrUnsupportedMethod indicates a presign request for a method other
	// than GET or PUT.
	ErrUnsupportedMethod = errors.New("cubby: unsupported presign method")
)
