// Package cubby maps a hierarchical folder/file view onto a flat,
// prefix-addressed object store.
// Providers expose only put, get, head, delete, copy, prefix/delimiter
// listing and presigning; Drive derives folders, renames and moves from them.
package cubby

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/zoobzio/cubby/internal/shared"
)

// Semantic errors for store operations (re-exported from internal/shared).
var (
	ErrNotFound          = shared.ErrNotFound
	ErrDuplicateObject   = shared.ErrDuplicateObject
	ErrConflict          = shared.ErrConflict
	ErrPermission        = shared.ErrPermission
	ErrTransient         = shared.ErrTransient
	ErrInvalidKey        = shared.ErrInvalidKey
	ErrInvalidName       = shared.ErrInvalidName
	ErrNotConfigured     = shared.ErrNotConfigured
	ErrUnsupportedMethod = shared.ErrUnsupportedMethod
)

// ObjectInfo is re-exported from internal/shared for the public API.
type ObjectInfo = shared.ObjectInfo

// Listing is re-exported from internal/shared for the public API.
type Listing = shared.Listing

// Presign methods accepted by BucketProvider.Presign.
const (
	MethodGet = http.MethodGet
	MethodPut = http.MethodPut
)

// Delimiter is the only hierarchy separator in object keys.
const Delimiter = "/"

// BucketProvider defines raw object store operations.
// Implementations (s3, minio, gcs, azure, memory) satisfy this interface.
type BucketProvider interface {
	// Put stores body at key. info carries ContentType and Size;
	// a Size of -1 means unknown.
	Put(ctx context.Context, key string, body io.Reader, info *ObjectInfo) error

	// Get opens the object at key for reading.
	// Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)

	// Head returns metadata for the object at key.
	// Returns ErrNotFound if the key does not exist.
	Head(ctx context.Context, key string) (*ObjectInfo, error)

	// Delete removes the object at key.
	// Returns ErrNotFound if the key does not exist.
	Delete(ctx context.Context, key string) error

	// Copy duplicates the object at src to dst, overwriting dst.
	// Returns ErrNotFound if src does not exist.
	Copy(ctx context.Context, src, dst string) error

	// List returns the common prefixes and objects directly under prefix,
	// grouping at the first delimiter after it. Pagination is followed
	// to completion.
	List(ctx context.Context, prefix, delimiter string) (*Listing, error)

	// Presign returns a URL granting method (MethodGet or MethodPut) on
	// exactly key until expiry elapses.
	Presign(ctx context.Context, key, method string, expiry time.Duration) (string, error)

	// URL returns the deterministic public URL for key.
	URL(key string) string
}
