package cubby

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/zoobzio/capitan"
)

// Drive translates folder and file operations into flat key operations
// against a BucketProvider. It holds no state between calls beyond its
// configuration; every method is one or two provider round trips.
type Drive struct {
	provider         BucketProvider
	expiry           time.Duration
	publicBase       string
	permissiveRename bool
	noClobber        bool
	now              func() time.Time
}

// New creates a Drive backed by the given provider.
// A nil provider yields a Drive whose every call fails with ErrNotConfigured.
func New(provider BucketProvider, opts ...Option) *Drive {
	d := &Drive{
		provider: provider,
		expiry:   DefaultPresignExpiry,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Provider returns the underlying provider.
func (d *Drive) Provider() BucketProvider {
	return d.provider
}

// PresignExpiry returns the validity window applied to presigned URLs.
func (d *Drive) PresignExpiry() time.Duration {
	return d.expiry
}

// List returns the immediate child folders and files of path.
// The empty path is the root. Folder markers never appear as files.
func (d *Drive) List(ctx context.Context, path string) (*ListResult, error) {
	start := d.now()
	if err := d.ready(); err != nil {
		return nil, d.fail(ctx, ListFailed, start, err, FieldPath.Field(path))
	}
	if err := ValidatePath(path); err != nil {
		return nil, d.fail(ctx, ListFailed, start, err, FieldPath.Field(path))
	}

	prefix := FolderPrefix(path)
	listing, err := d.provider.List(ctx, prefix, Delimiter)
	if err != nil {
		return nil, d.fail(ctx, ListFailed, start, fmt.Errorf("list %q: %w", prefix, err), FieldPath.Field(path))
	}

	result := &ListResult{
		Path:    path,
		Folders: make([]StoredFolder, 0, len(listing.CommonPrefixes)),
		Files:   make([]StoredFile, 0, len(listing.Objects)),
	}

	seen := make(map[string]struct{}, len(listing.CommonPrefixes))
	for _, cp := range listing.CommonPrefixes {
		if cp == "" || cp == prefix {
			continue
		}
		if _, dup := seen[cp]; dup {
			continue
		}
		seen[cp] = struct{}{}
		result.Folders = append(result.Folders, folderFromPrefix(cp))
	}

	for _, obj := range listing.Objects {
		if obj.Key == prefix || strings.HasSuffix(obj.Key, Delimiter) {
			continue
		}
		result.Files = append(result.Files, fileFromInfo(obj))
	}

	sort.Slice(result.Folders, func(i, j int) bool { return result.Folders[i].Path < result.Folders[j].Path })
	sort.Slice(result.Files, func(i, j int) bool { return result.Files[i].Key < result.Files[j].Key })

	capitan.Emit(ctx, ListCompleted,
		FieldPath.Field(path),
		FieldFolders.Field(len(result.Folders)),
		FieldFiles.Field(len(result.Files)),
		FieldDuration.Field(d.now().Sub(start)),
	)

	return result, nil
}

// CreateFolder writes the zero-byte marker for path. Parent folders need
// not exist.
func (d *Drive) CreateFolder(ctx context.Context, path string) (*StoredFolder, error) {
	start := d.now()
	if err := d.ready(); err != nil {
		return nil, d.fail(ctx, FolderCreateFailed, start, err, FieldPath.Field(path))
	}
	if path == "" {
		return nil, d.fail(ctx, FolderCreateFailed, start, fmt.Errorf("%w: root folder always exists", ErrInvalidKey), FieldPath.Field(path))
	}
	if err := ValidatePath(path); err != nil {
		return nil, d.fail(ctx, FolderCreateFailed, start, err, FieldPath.Field(path))
	}

	info := &ObjectInfo{Key: MarkerKey(path), ContentType: FolderContentType, Size: 0}
	if err := d.provider.Put(ctx, info.Key, bytes.NewReader(nil), info); err != nil {
		return nil, d.fail(ctx, FolderCreateFailed, start, fmt.Errorf("create folder %q: %w", path, err), FieldPath.Field(path))
	}

	capitan.Emit(ctx, FolderCreated,
		FieldPath.Field(path),
		FieldDuration.Field(d.now().Sub(start)),
	)

	folder := folderFromPrefix(info.Key)
	return &folder, nil
}

// DeleteFolder removes the marker for path. Objects under the prefix are
// left in place, so a folder that still holds files keeps appearing in
// listings. An implicit folder has no marker and yields ErrNotFound.
func (d *Drive) DeleteFolder(ctx context.Context, path string) error {
	start := d.now()
	if err := d.ready(); err != nil {
		return d.fail(ctx, FolderDeleteFailed, start, err, FieldPath.Field(path))
	}
	if path == "" {
		return d.fail(ctx, FolderDeleteFailed, start, fmt.Errorf("%w: cannot delete root folder", ErrInvalidKey), FieldPath.Field(path))
	}
	if err := ValidatePath(path); err != nil {
		return d.fail(ctx, FolderDeleteFailed, start, err, FieldPath.Field(path))
	}

	if err := d.provider.Delete(ctx, MarkerKey(path)); err != nil {
		return d.fail(ctx, FolderDeleteFailed, start, fmt.Errorf("delete folder %q: %w", path, err), FieldPath.Field(path))
	}

	capitan.Emit(ctx, FolderDeleted,
		FieldPath.Field(path),
		FieldDuration.Field(d.now().Sub(start)),
	)
	return nil
}

// Upload stores body at key and returns its public URL. An existing object
// at key is overwritten. size may be -1 when unknown.
func (d *Drive) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	start := d.now()
	if err := d.ready(); err != nil {
		return "", d.fail(ctx, UploadFailed, start, err, FieldKey.Field(key))
	}
	if err := ValidateFileKey(key); err != nil {
		return "", d.fail(ctx, UploadFailed, start, err, FieldKey.Field(key))
	}

	info := &ObjectInfo{Key: key, ContentType: contentType, Size: size}
	if err := d.provider.Put(ctx, key, body, info); err != nil {
		return "", d.fail(ctx, UploadFailed, start, fmt.Errorf("upload %q: %w", key, err), FieldKey.Field(key))
	}

	capitan.Emit(ctx, UploadCompleted,
		FieldKey.Field(key),
		FieldSize.Field(size),
		FieldDuration.Field(d.now().Sub(start)),
	)

	return d.URL(key), nil
}

// URL returns the deterministic public URL for key.
func (d *Drive) URL(key string) string {
	if d.publicBase != "" {
		return d.publicBase + "/" + EscapeKey(key)
	}
	if d.provider == nil {
		return ""
	}
	return d.provider.URL(key)
}

// Rename replaces the last segment of oldKey with newName and returns the
// new key. It copies then deletes; if the delete fails the object exists
// at both keys and a *DuplicateError is returned.
func (d *Drive) Rename(ctx context.Context, oldKey, newName string) (string, error) {
	start := d.now()
	if err := d.ready(); err != nil {
		return "", d.fail(ctx, RenameFailed, start, err, FieldKey.Field(oldKey))
	}
	if err := ValidateFileKey(oldKey); err != nil {
		return "", d.fail(ctx, RenameFailed, start, err, FieldKey.Field(oldKey))
	}
	if d.permissiveRename {
		if newName == "" {
			return "", d.fail(ctx, RenameFailed, start, fmt.Errorf("%w: empty name", ErrInvalidName), FieldKey.Field(oldKey))
		}
	} else if err := ValidateName(newName); err != nil {
		return "", d.fail(ctx, RenameFailed, start, err, FieldKey.Field(oldKey))
	}

	newKey := ReplaceBase(oldKey, newName)
	if err := ValidateFileKey(newKey); err != nil {
		return "", d.fail(ctx, RenameFailed, start, err, FieldKey.Field(oldKey), FieldDestination.Field(newKey))
	}
	if newKey == oldKey {
		return oldKey, nil
	}

	if err := d.relocate(ctx, oldKey, newKey); err != nil {
		return "", d.fail(ctx, RenameFailed, start, err, FieldKey.Field(oldKey), FieldDestination.Field(newKey))
	}

	capitan.Emit(ctx, RenameCompleted,
		FieldKey.Field(oldKey),
		FieldDestination.Field(newKey),
		FieldDuration.Field(d.now().Sub(start)),
	)
	return newKey, nil
}

// Move relocates the object at src to dst using copy then delete, with the
// same duplication failure mode as Rename.
func (d *Drive) Move(ctx context.Context, src, dst string) error {
	start := d.now()
	if err := d.ready(); err != nil {
		return d.fail(ctx, MoveFailed, start, err, FieldKey.Field(src), FieldDestination.Field(dst))
	}
	if err := ValidateFileKey(src); err != nil {
		return d.fail(ctx, MoveFailed, start, err, FieldKey.Field(src), FieldDestination.Field(dst))
	}
	if err := ValidateFileKey(dst); err != nil {
		return d.fail(ctx, MoveFailed, start, err, FieldKey.Field(src), FieldDestination.Field(dst))
	}
	if src == dst {
		return nil
	}

	if err := d.relocate(ctx, src, dst); err != nil {
		return d.fail(ctx, MoveFailed, start, err, FieldKey.Field(src), FieldDestination.Field(dst))
	}

	capitan.Emit(ctx, MoveCompleted,
		FieldKey.Field(src),
		FieldDestination.Field(dst),
		FieldDuration.Field(d.now().Sub(start)),
	)
	return nil
}

// MoveToFolder moves key into folder, keeping its name, and returns the
// new key. An empty folder means the root.
func (d *Drive) MoveToFolder(ctx context.Context, key, folder string) (string, error) {
	if err := ValidatePath(folder); err != nil {
		start := d.now()
		return "", d.fail(ctx, MoveFailed, start, err, FieldKey.Field(key), FieldPath.Field(folder))
	}
	dst := JoinKey(folder, Base(key))
	if err := d.Move(ctx, key, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// Delete removes the single object at key. Deleting a folder marker does
// not remove the objects under it.
func (d *Drive) Delete(ctx context.Context, key string) error {
	start := d.now()
	if err := d.ready(); err != nil {
		return d.fail(ctx, DeleteFailed, start, err, FieldKey.Field(key))
	}
	if err := ValidateKey(key); err != nil {
		return d.fail(ctx, DeleteFailed, start, err, FieldKey.Field(key))
	}

	if err := d.provider.Delete(ctx, key); err != nil {
		return d.fail(ctx, DeleteFailed, start, fmt.Errorf("delete %q: %w", key, err), FieldKey.Field(key))
	}

	capitan.Emit(ctx, DeleteCompleted,
		FieldKey.Field(key),
		FieldDuration.Field(d.now().Sub(start)),
	)
	return nil
}

// Stat returns the metadata of the object at key.
func (d *Drive) Stat(ctx context.Context, key string) (*StoredFile, error) {
	start := d.now()
	if err := d.ready(); err != nil {
		return nil, d.fail(ctx, StatFailed, start, err, FieldKey.Field(key))
	}
	if err := ValidateFileKey(key); err != nil {
		return nil, d.fail(ctx, StatFailed, start, err, FieldKey.Field(key))
	}

	info, err := d.provider.Head(ctx, key)
	if err != nil {
		return nil, d.fail(ctx, StatFailed, start, fmt.Errorf("stat %q: %w", key, err), FieldKey.Field(key))
	}
	if info.Key == "" {
		info.Key = key
	}

	capitan.Emit(ctx, StatCompleted,
		FieldKey.Field(key),
		FieldSize.Field(info.Size),
		FieldDuration.Field(d.now().Sub(start)),
	)

	file := fileFromInfo(*info)
	return &file, nil
}

// Open returns a reader over the object at key. The caller closes it.
func (d *Drive) Open(ctx context.Context, key string) (io.ReadCloser, *StoredFile, error) {
	start := d.now()
	if err := d.ready(); err != nil {
		return nil, nil, d.fail(ctx, OpenFailed, start, err, FieldKey.Field(key))
	}
	if err := ValidateFileKey(key); err != nil {
		return nil, nil, d.fail(ctx, OpenFailed, start, err, FieldKey.Field(key))
	}

	rc, info, err := d.provider.Get(ctx, key)
	if err != nil {
		return nil, nil, d.fail(ctx, OpenFailed, start, fmt.Errorf("open %q: %w", key, err), FieldKey.Field(key))
	}
	if info == nil {
		info = &ObjectInfo{Key: key, Size: -1}
	}
	if info.Key == "" {
		info.Key = key
	}

	capitan.Emit(ctx, OpenCompleted,
		FieldKey.Field(key),
		FieldSize.Field(info.Size),
		FieldDuration.Field(d.now().Sub(start)),
	)

	file := fileFromInfo(*info)
	return rc, &file, nil
}

// DownloadURL returns a GET URL for exactly key, valid for the configured
// expiry window.
func (d *Drive) DownloadURL(ctx context.Context, key string) (*PresignedURL, error) {
	return d.presign(ctx, key, MethodGet)
}

// UploadURL returns a PUT URL for exactly key, valid for the configured
// expiry window.
func (d *Drive) UploadURL(ctx context.Context, key string) (*PresignedURL, error) {
	return d.presign(ctx, key, MethodPut)
}

func (d *Drive) presign(ctx context.Context, key, method string) (*PresignedURL, error) {
	start := d.now()
	if err := d.ready(); err != nil {
		return nil, d.fail(ctx, PresignFailed, start, err, FieldKey.Field(key), FieldMethod.Field(method))
	}
	if err := ValidateFileKey(key); err != nil {
		return nil, d.fail(ctx, PresignFailed, start, err, FieldKey.Field(key), FieldMethod.Field(method))
	}

	raw, err := d.provider.Presign(ctx, key, method, d.expiry)
	if err != nil {
		return nil, d.fail(ctx, PresignFailed, start, fmt.Errorf("presign %s %q: %w", method, key, err),
			FieldKey.Field(key), FieldMethod.Field(method))
	}

	capitan.Emit(ctx, PresignCompleted,
		FieldKey.Field(key),
		FieldMethod.Field(method),
		FieldDuration.Field(d.now().Sub(start)),
	)

	return &PresignedURL{
		URL:       raw,
		Key:       key,
		Method:    method,
		ExpiresAt: start.Add(d.expiry),
	}, nil
}

// relocate copies src to dst and then deletes src.
func (d *Drive) relocate(ctx context.Context, src, dst string) error {
	if d.noClobber {
		_, err := d.provider.Head(ctx, dst)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %q", ErrConflict, dst)
		case !errors.Is(err, ErrNotFound):
			return fmt.Errorf("check %q: %w", dst, err)
		}
	}

	if err := d.provider.Copy(ctx, src, dst); err != nil {
		return fmt.Errorf("copy %q to %q: %w", src, dst, err)
	}

	if err := d.provider.Delete(ctx, src); err != nil {
		capitan.Emit(ctx, ObjectDuplicated,
			FieldKey.Field(src),
			FieldDestination.Field(dst),
			FieldError.Field(err),
		)
		return &DuplicateError{Source: src, Destination: dst, Err: err}
	}
	return nil
}

func (d *Drive) ready() error {
	if d.provider == nil {
		return ErrNotConfigured
	}
	return nil
}

// fail emits sig with err and the given fields, then returns err.
func (d *Drive) fail(ctx context.Context, sig capitan.Signal, start time.Time, err error, fields ...capitan.Field) error {
	fields = append(fields,
		FieldError.Field(err),
		FieldDuration.Field(d.now().Sub(start)),
	)
	capitan.Emit(ctx, sig, fields...)
	return err
}

// EscapeKey percent-encodes each segment of key, keeping separators.
func EscapeKey(key string) string {
	segments := strings.Split(key, Delimiter)
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, Delimiter)
}
