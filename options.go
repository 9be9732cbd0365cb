package cubby

import (
	"strings"
	"time"
)

// DefaultPresignExpiry is the validity window of presigned URLs.
const DefaultPresignExpiry = time.Hour

// FolderContentType is stored on folder marker objects.
const FolderContentType = "application/x-directory"

// Option configures a Drive.
type Option func(*Drive)

// WithPresignExpiry sets how long presigned URLs stay valid.
// Non-positive values are ignored.
func WithPresignExpiry(d time.Duration) Option {
	return func(dr *Drive) {
		if d > 0 {
			dr.expiry = d
		}
	}
}

// WithPublicBaseURL makes Upload return base + "/" + key instead of the
// provider's own public URL.
func WithPublicBaseURL(base string) Option {
	return func(dr *Drive) {
		dr.publicBase = strings.TrimSuffix(base, "/")
	}
}

// WithPermissiveRename lets Rename accept names containing the separator,
// which relocates the object into another folder.
func WithPermissiveRename() Option {
	return func(dr *Drive) {
		dr.permissiveRename = true
	}
}

// WithNoClobber makes Rename and Move fail with ErrConflict when the
// destination already exists. The check precedes the copy and is not atomic.
func WithNoClobber() Option {
	return func(dr *Drive) {
		dr.noClobber = true
	}
}

// WithClock overrides the time source used for durations and expiry stamps.
func WithClock(now func() time.Time) Option {
	return func(dr *Drive) {
		if now != nil {
			dr.now = now
		}
	}
}
