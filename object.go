package cubby

import "time"

// StoredFile is one object holding user content.
type StoredFile struct {
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// StoredFolder is a common-prefix grouping. Path has no trailing slash.
type StoredFolder struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// ListResult holds the immediate children of a folder, each sequence
// ordered by key.
type ListResult struct {
	Path    string         `json:"path"`
	Folders []StoredFolder `json:"folders"`
	Files   []StoredFile   `json:"files"`
}

// PresignedURL is a time-limited URL scoped to one key and one method.
type PresignedURL struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// fileFromInfo converts provider metadata into a StoredFile.
func fileFromInfo(info ObjectInfo) StoredFile {
	return StoredFile{
		Key:          info.Key,
		Name:         Base(info.Key),
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}
}

// folderFromPrefix converts a common prefix into a StoredFolder.
func folderFromPrefix(prefix string) StoredFolder {
	path := prefix
	if len(path) > 0 && path[len(path)-1:] == Delimiter {
		path = path[:len(path)-1]
	}
	return StoredFolder{Path: path, Name: Base(path)}
}
