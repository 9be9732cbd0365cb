// Package s3 provides a cubby BucketProvider implementation for AWS S3.
package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/zoobzio/cubby"
)

// Provider implements cubby.BucketProvider for AWS S3.
type Provider struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	region    string
	endpoint  string
	pathStyle bool
}

// New creates an S3 provider with the given client and bucket name.
func New(client *s3.Client, bucket string) *Provider {
	opts := client.Options()
	return &Provider{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		region:    opts.Region,
		endpoint:  strings.TrimSuffix(aws.ToString(opts.BaseEndpoint), "/"),
		pathStyle: opts.UsePathStyle,
	}
}

// Bucket returns the bucket name this provider addresses.
func (p *Provider) Bucket() string {
	return p.bucket
}

// Put stores body at key.
func (p *Provider) Put(ctx context.Context, key string, body io.Reader, info *cubby.ObjectInfo) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if info != nil {
		if info.ContentType != "" {
			input.ContentType = aws.String(info.ContentType)
		}
		if info.Size >= 0 {
			input.ContentLength = aws.Int64(info.Size)
		}
		if len(info.Metadata) > 0 {
			input.Metadata = info.Metadata
		}
	}
	_, err := p.client.PutObject(ctx, input)
	return mapError(err)
}

// Get opens the object at key.
func (p *Provider) Get(ctx context.Context, key string) (io.ReadCloser, *cubby.ObjectInfo, error) {
	output, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, nil, mapError(err)
	}

	info := &cubby.ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(output.ContentLength),
		ContentType:  aws.ToString(output.ContentType),
		ETag:         strings.Trim(aws.ToString(output.ETag), `"`),
		LastModified: aws.ToTime(output.LastModified),
		Metadata:     output.Metadata,
	}

	return output.Body, info, nil
}

// Head returns metadata for the object at key.
func (p *Provider) Head(ctx context.Context, key string) (*cubby.ObjectInfo, error) {
	output, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &cubby.ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(output.ContentLength),
		ContentType:  aws.ToString(output.ContentType),
		ETag:         strings.Trim(aws.ToString(output.ETag), `"`),
		LastModified: aws.ToTime(output.LastModified),
		Metadata:     output.Metadata,
	}, nil
}

// Delete removes the object at key.
func (p *Provider) Delete(ctx context.Context, key string) error {
	// S3 DeleteObject doesn't return an error if the key doesn't exist.
	// Check existence first to maintain semantic consistency.
	if _, err := p.Head(ctx, key); err != nil {
		return err
	}

	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	return mapError(err)
}

// Copy duplicates src to dst with a server-side copy.
func (p *Provider) Copy(ctx context.Context, src, dst string) error {
	_, err := p.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(p.bucket),
		Key:        aws.String(dst),
		CopySource: aws.String(p.bucket + "/" + cubby.EscapeKey(src)),
	})
	return mapError(err)
}

// List returns the common prefixes and objects directly under prefix.
func (p *Provider) List(ctx context.Context, prefix, delimiter string) (*cubby.Listing, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(p.bucket),
		Prefix: aws.String(prefix),
	}
	if delimiter != "" {
		input.Delimiter = aws.String(delimiter)
	}

	listing := &cubby.Listing{}
	paginator := s3.NewListObjectsV2Paginator(p.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		for _, cp := range page.CommonPrefixes {
			listing.CommonPrefixes = append(listing.CommonPrefixes, aws.ToString(cp.Prefix))
		}
		for _, obj := range page.Contents {
			listing.Objects = append(listing.Objects, cubby.ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				ETag:         strings.Trim(aws.ToString(obj.ETag), `"`),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	return listing, nil
}

// Presign returns a SigV4 query-signed URL for method on key.
func (p *Provider) Presign(ctx context.Context, key, method string, expiry time.Duration) (string, error) {
	switch method {
	case cubby.MethodGet:
		req, err := p.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(p.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(expiry))
		if err != nil {
			return "", mapError(err)
		}
		return req.URL, nil
	case cubby.MethodPut:
		req, err := p.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(p.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(expiry))
		if err != nil {
			return "", mapError(err)
		}
		return req.URL, nil
	default:
		return "", fmt.Errorf("%w: %s", cubby.ErrUnsupportedMethod, method)
	}
}

// URL returns the public object URL. On AWS it is virtual-hosted; on a
// custom endpoint it follows the client's UsePathStyle setting.
func (p *Provider) URL(key string) string {
	escaped := cubby.EscapeKey(key)
	if p.endpoint == "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, escaped)
	}
	if !p.pathStyle {
		if u, err := url.Parse(p.endpoint); err == nil && u.Host != "" {
			u.Host = p.bucket + "." + u.Host
			return u.String() + "/" + escaped
		}
	}
	return p.endpoint + "/" + p.bucket + "/" + escaped
}

// Ensure Provider implements cubby.BucketProvider.
var _ cubby.BucketProvider = (*Provider)(nil)
