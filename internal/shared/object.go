// Package shared provides canonical type definitions used across cubby modules.
package shared //nolint:revive // internal shared package is intentional

import "time"

// ObjectInfo holds provider-level metadata for a stored object.
// Used by BucketProvider implementations.
type ObjectInfo struct {
	Key          string
	ContentType  string
	Size         int64
	ETag         string
	LastModified time.Time
	Metadata     map[string]string
}

// Listing is the raw result of a prefix/delimiter listing.
// CommonPrefixes keep their trailing delimiter; Objects are the keys
// directly under the prefix.
type Listing struct {
	CommonPrefixes []string
	Objects        []ObjectInfo
}
