// Package minio provides a cubby BucketProvider implementation for MinIO.
package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/zoobzio/cubby"
)

// Provider implements cubby.BucketProvider for MinIO.
type Provider struct {
	client *minio.Client
	bucket string
}

// New creates a MinIO provider with the given client and bucket name.
func New(client *minio.Client, bucket string) *Provider {
	return &Provider{
		client: client,
		bucket: bucket,
	}
}

// Bucket returns the bucket name this provider addresses.
func (p *Provider) Bucket() string {
	return p.bucket
}

// Put stores body at key. A negative info.Size streams with an unknown
// length.
func (p *Provider) Put(ctx context.Context, key string, body io.Reader, info *cubby.ObjectInfo) error {
	opts := minio.PutObjectOptions{}
	size := int64(-1)
	if info != nil {
		if info.ContentType != "" {
			opts.ContentType = info.ContentType
		}
		if len(info.Metadata) > 0 {
			opts.UserMetadata = info.Metadata
		}
		size = info.Size
	}
	_, err := p.client.PutObject(ctx, p.bucket, key, body, size, opts)
	return mapError(err)
}

// Get opens the object at key.
func (p *Provider) Get(ctx context.Context, key string) (io.ReadCloser, *cubby.ObjectInfo, error) {
	obj, err := p.client.GetObject(ctx, p.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, mapError(err)
	}

	// GetObject is lazy; Stat performs the request.
	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, nil, mapError(err)
	}

	return obj, objectInfo(key, stat), nil
}

// Head returns metadata for the object at key.
func (p *Provider) Head(ctx context.Context, key string) (*cubby.ObjectInfo, error) {
	stat, err := p.client.StatObject(ctx, p.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, mapError(err)
	}
	return objectInfo(key, stat), nil
}

// Delete removes the object at key.
func (p *Provider) Delete(ctx context.Context, key string) error {
	// RemoveObject succeeds for missing keys.
	if _, err := p.Head(ctx, key); err != nil {
		return err
	}
	return mapError(p.client.RemoveObject(ctx, p.bucket, key, minio.RemoveObjectOptions{}))
}

// Copy duplicates src to dst with a server-side copy.
func (p *Provider) Copy(ctx context.Context, src, dst string) error {
	_, err := p.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: p.bucket, Object: dst},
		minio.CopySrcOptions{Bucket: p.bucket, Object: src},
	)
	return mapError(err)
}

// List returns the common prefixes and objects directly under prefix.
// minio-go only supports "/" as a delimiter; any non-empty delimiter is
// treated as "/", and an empty one lists recursively.
func (p *Provider) List(ctx context.Context, prefix, delimiter string) (*cubby.Listing, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: delimiter == "",
	}

	listing := &cubby.Listing{}
	for obj := range p.client.ListObjects(ctx, p.bucket, opts) {
		if obj.Err != nil {
			return nil, mapError(obj.Err)
		}
		// Non-recursive listings report common prefixes as entries whose key
		// ends in the delimiter. A key equal to prefix is the marker object.
		if !opts.Recursive && obj.Key != prefix && strings.HasSuffix(obj.Key, cubby.Delimiter) {
			listing.CommonPrefixes = append(listing.CommonPrefixes, obj.Key)
			continue
		}
		listing.Objects = append(listing.Objects, cubby.ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			ETag:         obj.ETag,
			LastModified: obj.LastModified,
		})
	}

	return listing, nil
}

// Presign returns a query-signed URL for method on key.
func (p *Provider) Presign(ctx context.Context, key, method string, expiry time.Duration) (string, error) {
	var (
		u   *url.URL
		err error
	)
	switch method {
	case cubby.MethodGet:
		u, err = p.client.PresignedGetObject(ctx, p.bucket, key, expiry, nil)
	case cubby.MethodPut:
		u, err = p.client.PresignedPutObject(ctx, p.bucket, key, expiry)
	default:
		return "", fmt.Errorf("%w: %s", cubby.ErrUnsupportedMethod, method)
	}
	if err != nil {
		return "", mapError(err)
	}
	return u.String(), nil
}

// URL returns the path-style object URL on the client's endpoint.
func (p *Provider) URL(key string) string {
	endpoint := p.client.EndpointURL()
	return fmt.Sprintf("%s://%s/%s/%s", endpoint.Scheme, endpoint.Host, p.bucket, cubby.EscapeKey(key))
}

func objectInfo(key string, stat minio.ObjectInfo) *cubby.ObjectInfo {
	return &cubby.ObjectInfo{
		Key:          key,
		Size:         stat.Size,
		ContentType:  stat.ContentType,
		ETag:         stat.ETag,
		LastModified: stat.LastModified,
		Metadata:     stat.UserMetadata,
	}
}

// Ensure Provider implements cubby.BucketProvider.
var _ cubby.BucketProvider = (*Provider)(nil)
