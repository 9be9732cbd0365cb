// Package gcs provides a cubby BucketProvider implementation for Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/zoobzio/cubby"
	"google.golang.org/api/iterator"
)

// PublicHost serves objects of publicly readable buckets.
const PublicHost = "https://storage.googleapis.com"

// Provider implements cubby.BucketProvider for Google Cloud Storage.
type Provider struct {
	client   *storage.Client
	bucket   string
	accessID string
	key      []byte
}

// Option configures a Provider.
type Option func(*Provider)

// WithSigner sets the service account used to sign URLs. Without it the
// client's own credentials are used, which must be able to sign.
func WithSigner(googleAccessID string, privateKey []byte) Option {
	return func(p *Provider) {
		p.accessID = googleAccessID
		p.key = privateKey
	}
}

// New creates a GCS provider with the given client and bucket name.
func New(client *storage.Client, bucket string, opts ...Option) *Provider {
	p := &Provider{
		client: client,
		bucket: bucket,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Bucket returns the bucket name this provider addresses.
func (p *Provider) Bucket() string {
	return p.bucket
}

// Put stores body at key. A failed body read aborts the upload, leaving
// any existing object at key untouched.
func (p *Provider) Put(ctx context.Context, key string, body io.Reader, info *cubby.ObjectInfo) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	obj := p.client.Bucket(p.bucket).Object(key)
	writer := obj.NewWriter(ctx)

	if info != nil {
		if info.ContentType != "" {
			writer.ContentType = info.ContentType
		}
		if len(info.Metadata) > 0 {
			writer.Metadata = info.Metadata
		}
	}

	if _, err := io.Copy(writer, body); err != nil {
		// Close would commit the bytes copied so far.
		cancel()
		return mapError(err)
	}

	return mapError(writer.Close())
}

// Get opens the object at key.
func (p *Provider) Get(ctx context.Context, key string) (io.ReadCloser, *cubby.ObjectInfo, error) {
	obj := p.client.Bucket(p.bucket).Object(key)

	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, nil, mapError(err)
	}

	reader, err := obj.Generation(attrs.Generation).NewReader(ctx)
	if err != nil {
		return nil, nil, mapError(err)
	}

	return reader, objectInfo(attrs), nil
}

// Head returns metadata for the object at key.
func (p *Provider) Head(ctx context.Context, key string) (*cubby.ObjectInfo, error) {
	attrs, err := p.client.Bucket(p.bucket).Object(key).Attrs(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return objectInfo(attrs), nil
}

// Delete removes the object at key.
func (p *Provider) Delete(ctx context.Context, key string) error {
	return mapError(p.client.Bucket(p.bucket).Object(key).Delete(ctx))
}

// Copy duplicates src to dst with a server-side rewrite.
func (p *Provider) Copy(ctx context.Context, src, dst string) error {
	bkt := p.client.Bucket(p.bucket)
	_, err := bkt.Object(dst).CopierFrom(bkt.Object(src)).Run(ctx)
	return mapError(err)
}

// List returns the common prefixes and objects directly under prefix.
func (p *Provider) List(ctx context.Context, prefix, delimiter string) (*cubby.Listing, error) {
	query := &storage.Query{Prefix: prefix, Delimiter: delimiter}
	it := p.client.Bucket(p.bucket).Objects(ctx, query)

	listing := &cubby.Listing{}
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapError(err)
		}

		// Synthetic prefix entries carry only Prefix.
		if attrs.Prefix != "" {
			listing.CommonPrefixes = append(listing.CommonPrefixes, attrs.Prefix)
			continue
		}
		listing.Objects = append(listing.Objects, *objectInfo(attrs))
	}

	return listing, nil
}

// Presign returns a V4 signed URL for method on key.
func (p *Provider) Presign(_ context.Context, key, method string, expiry time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Expires: time.Now().Add(expiry),
	}
	switch method {
	case cubby.MethodGet:
		opts.Method = http.MethodGet
	case cubby.MethodPut:
		opts.Method = http.MethodPut
	default:
		return "", fmt.Errorf("%w: %s", cubby.ErrUnsupportedMethod, method)
	}
	if p.accessID != "" {
		opts.GoogleAccessID = p.accessID
		opts.PrivateKey = p.key
	}

	u, err := p.client.Bucket(p.bucket).SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("%w: sign url: %w", cubby.ErrPermission, err)
	}
	return u, nil
}

// URL returns the public object URL.
func (p *Provider) URL(key string) string {
	return PublicHost + "/" + p.bucket + "/" + cubby.EscapeKey(key)
}

func objectInfo(attrs *storage.ObjectAttrs) *cubby.ObjectInfo {
	return &cubby.ObjectInfo{
		Key:          attrs.Name,
		ContentType:  attrs.ContentType,
		Size:         attrs.Size,
		ETag:         attrs.Etag,
		LastModified: attrs.Updated,
		Metadata:     attrs.Metadata,
	}
}

// Ensure Provider implements cubby.BucketProvider.
var _ cubby.BucketProvider = (*Provider)(nil)
