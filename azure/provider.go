// Package azure provides a cubby BucketProvider implementation for Azure Blob Storage.
package azure

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/zoobzio/cubby"
)

// Provider implements cubby.BucketProvider for Azure Blob Storage.
// Containers play the role of buckets.
type Provider struct {
	client        *azblob.Client
	container     *container.Client
	containerName string
}

// New creates an Azure Blob provider with the given client and container name.
func New(client *azblob.Client, containerName string) *Provider {
	return &Provider{
		client:        client,
		container:     client.ServiceClient().NewContainerClient(containerName),
		containerName: containerName,
	}
}

// Bucket returns the container name this provider addresses.
func (p *Provider) Bucket() string {
	return p.containerName
}

// Put stores body at key.
func (p *Provider) Put(ctx context.Context, key string, body io.Reader, info *cubby.ObjectInfo) error {
	opts := &azblob.UploadStreamOptions{}
	if info != nil {
		if info.ContentType != "" {
			opts.HTTPHeaders = &blob.HTTPHeaders{
				BlobContentType: to.Ptr(info.ContentType),
			}
		}
		if len(info.Metadata) > 0 {
			opts.Metadata = mapToPtrMap(info.Metadata)
		}
	}
	_, err := p.client.UploadStream(ctx, p.containerName, key, body, opts)
	return mapError(err)
}

// Get opens the blob at key.
func (p *Provider) Get(ctx context.Context, key string) (io.ReadCloser, *cubby.ObjectInfo, error) {
	resp, err := p.client.DownloadStream(ctx, p.containerName, key, nil)
	if err != nil {
		return nil, nil, mapError(err)
	}

	info := &cubby.ObjectInfo{
		Key:          key,
		ContentType:  deref(resp.ContentType),
		Size:         deref(resp.ContentLength),
		LastModified: deref(resp.LastModified),
		Metadata:     ptrMapToMap(resp.Metadata),
	}
	if resp.ETag != nil {
		info.ETag = strings.Trim(string(*resp.ETag), `"`)
	}

	return resp.Body, info, nil
}

// Head returns the properties of the blob at key.
func (p *Provider) Head(ctx context.Context, key string) (*cubby.ObjectInfo, error) {
	props, err := p.container.NewBlobClient(key).GetProperties(ctx, nil)
	if err != nil {
		return nil, mapError(err)
	}

	info := &cubby.ObjectInfo{
		Key:          key,
		ContentType:  deref(props.ContentType),
		Size:         deref(props.ContentLength),
		LastModified: deref(props.LastModified),
		Metadata:     ptrMapToMap(props.Metadata),
	}
	if props.ETag != nil {
		info.ETag = strings.Trim(string(*props.ETag), `"`)
	}
	return info, nil
}

// Delete removes the blob at key.
func (p *Provider) Delete(ctx context.Context, key string) error {
	_, err := p.client.DeleteBlob(ctx, p.containerName, key, nil)
	return mapError(err)
}

// Copy duplicates src to dst by streaming it through the client.
// Server-side copy from URL is asynchronous on Azure and needs a source
// credential, so the blob is re-uploaded with its headers and metadata.
func (p *Provider) Copy(ctx context.Context, src, dst string) error {
	rc, info, err := p.Get(ctx, src)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	return p.Put(ctx, dst, rc, info)
}

// List returns the blob prefixes and blobs directly under prefix.
func (p *Provider) List(ctx context.Context, prefix, delimiter string) (*cubby.Listing, error) {
	listing := &cubby.Listing{}

	if delimiter == "" {
		pager := p.container.NewListBlobsFlatPager(&container.ListBlobsFlatOptions{
			Prefix: to.Ptr(prefix),
		})
		for pager.More() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				return nil, mapError(err)
			}
			for _, item := range page.Segment.BlobItems {
				listing.Objects = append(listing.Objects, blobInfo(item))
			}
		}
		return listing, nil
	}

	pager := p.container.NewListBlobsHierarchyPager(delimiter, &container.ListBlobsHierarchyOptions{
		Prefix: to.Ptr(prefix),
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		for _, bp := range page.Segment.BlobPrefixes {
			listing.CommonPrefixes = append(listing.CommonPrefixes, deref(bp.Name))
		}
		for _, item := range page.Segment.BlobItems {
			listing.Objects = append(listing.Objects, blobInfo(item))
		}
	}

	return listing, nil
}

// Presign returns a blob SAS URL for method on key. The client must hold a
// shared key credential.
func (p *Provider) Presign(_ context.Context, key, method string, expiry time.Duration) (string, error) {
	var perms sas.BlobPermissions
	switch method {
	case cubby.MethodGet:
		perms.Read = true
	case cubby.MethodPut:
		perms.Create = true
		perms.Write = true
	default:
		return "", fmt.Errorf("%w: %s", cubby.ErrUnsupportedMethod, method)
	}

	u, err := p.container.NewBlobClient(key).GetSASURL(perms, time.Now().Add(expiry), nil)
	if err != nil {
		return "", fmt.Errorf("%w: sas: %w", cubby.ErrPermission, err)
	}
	return u, nil
}

// URL returns the blob URL.
func (p *Provider) URL(key string) string {
	return strings.TrimSuffix(p.container.URL(), "/") + "/" + cubby.EscapeKey(key)
}

func blobInfo(item *container.BlobItem) cubby.ObjectInfo {
	info := cubby.ObjectInfo{
		Key:      deref(item.Name),
		Metadata: ptrMapToMap(item.Metadata),
	}
	if props := item.Properties; props != nil {
		info.ContentType = deref(props.ContentType)
		info.Size = deref(props.ContentLength)
		info.LastModified = deref(props.LastModified)
		if props.ETag != nil {
			info.ETag = strings.Trim(string(*props.ETag), `"`)
		}
	}
	return info
}

func deref[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// ptrMapToMap converts map[string]*string to map[string]string.
func ptrMapToMap(m map[string]*string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	result := make(map[string]string, len(m))
	for k, v := range m {
		if v != nil {
			result[k] = *v
		}
	}
	return result
}

// mapToPtrMap converts map[string]string to map[string]*string.
func mapToPtrMap(m map[string]string) map[string]*string {
	if m == nil {
		return nil
	}
	result := make(map[string]*string, len(m))
	for k, v := range m {
		result[k] = to.Ptr(v)
	}
	return result
}

// Ensure Provider implements cubby.BucketProvider.
var _ cubby.BucketProvider = (*Provider)(nil)
