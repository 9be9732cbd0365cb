package cubby

import (
	"errors"
	"fmt"
)

// Kind classifies an error returned by Drive so the boundary layer can
// translate it into a transport status.
type Kind int

// Error kinds.
const (
	KindUnknown Kind = iota
	KindNotFound
	KindDuplicate
	KindConflict
	KindPermission
	KindTransient
	KindInvalid
)

var kindNames = map[Kind]string{
	KindUnknown:    "unknown",
	KindNotFound:   "not_found",
	KindDuplicate:  "duplicate_object",
	KindConflict:   "conflict",
	KindPermission: "permission",
	KindTransient:  "transient",
	KindInvalid:    "invalid",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// KindOf classifies err. A DuplicateError is reported as KindDuplicate even
// when the failed delete carried another kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrDuplicateObject):
		return KindDuplicate
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrPermission), errors.Is(err, ErrNotConfigured):
		return KindPermission
	case errors.Is(err, ErrTransient):
		return KindTransient
	case errors.Is(err, ErrInvalidKey), errors.Is(err, ErrInvalidName), errors.Is(err, ErrUnsupportedMethod):
		return KindInvalid
	default:
		return KindUnknown
	}
}

// DuplicateError reports a copy+delete sequence whose copy succeeded and
// whose delete failed. Both Source and Destination exist afterwards.
type DuplicateError struct {
	Source      string
	Destination string
	Err         error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("cubby: %s copied to %s but not removed: %v", e.Source, e.Destination, e.Err)
}

// Unwrap exposes both ErrDuplicateObject and the underlying delete error.
func (e *DuplicateError) Unwrap() []error {
	return []error{ErrDuplicateObject, e.Err}
}
