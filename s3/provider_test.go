//go:build integration

package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
	"github.com/zoobzio/cubby"
)

var testProvider *Provider
var testS3Client *s3.Client

const testBucket = "test-bucket"

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := localstack.Run(ctx,
		"localstack/localstack:latest",
		testcontainers.WithEnv(map[string]string{
			"SERVICES": "s3",
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start localstack container: %v\n", err)
		os.Exit(1)
	}

	endpoint, err := container.PortEndpoint(ctx, "4566/tcp", "http")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get localstack endpoint: %v\n", err)
		_ = testcontainers.TerminateContainer(container)
		os.Exit(1)
	}

	testS3Client, err = NewClient(ctx, Config{
		Region:          "us-east-1",
		Bucket:          testBucket,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Endpoint:        endpoint,
		UsePathStyle:    true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build s3 client: %v\n", err)
		_ = testcontainers.TerminateContainer(container)
		os.Exit(1)
	}

	if _, err = testS3Client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(testBucket),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create bucket: %v\n", err)
		_ = testcontainers.TerminateContainer(container)
		os.Exit(1)
	}

	testProvider = New(testS3Client, testBucket)

	code := m.Run()

	_ = testcontainers.TerminateContainer(container)

	os.Exit(code)
}

func clearBucket(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	output, err := testS3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(testBucket),
	})
	if err != nil {
		t.Fatalf("failed to list objects: %v", err)
	}

	for _, obj := range output.Contents {
		_, _ = testS3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(testBucket),
			Key:    obj.Key,
		})
	}
}

func put(t *testing.T, key, body string) {
	t.Helper()
	err := testProvider.Put(context.Background(), key, strings.NewReader(body), &cubby.ObjectInfo{
		ContentType: "text/plain",
		Size:        int64(len(body)),
	})
	if err != nil {
		t.Fatalf("Put %q failed: %v", key, err)
	}
}

func TestProvider_GetHead(t *testing.T) {
	clearBucket(t)
	ctx := context.Background()
	put(t, "key1", "test content")

	t.Run("existing key", func(t *testing.T) {
		rc, info, err := testProvider.Get(ctx, "key1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		if string(data) != "test content" {
			t.Errorf("unexpected value: %q", string(data))
		}
		if info.ContentType != "text/plain" {
			t.Errorf("unexpected content type: %q", info.ContentType)
		}

		head, err := testProvider.Head(ctx, "key1")
		if err != nil {
			t.Fatalf("Head failed: %v", err)
		}
		if head.Size != int64(len("test content")) {
			t.Errorf("unexpected size: %d", head.Size)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		if _, _, err := testProvider.Get(ctx, "nonexistent"); !errors.Is(err, cubby.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := testProvider.Head(ctx, "nonexistent"); !errors.Is(err, cubby.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestProvider_Delete(t *testing.T) {
	clearBucket(t)
	ctx := context.Background()

	put(t, "delete-me", "data")
	if err := testProvider.Delete(ctx, "delete-me"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := testProvider.Head(ctx, "delete-me"); !errors.Is(err, cubby.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := testProvider.Delete(ctx, "delete-me"); !errors.Is(err, cubby.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProvider_Copy(t *testing.T) {
	clearBucket(t)
	ctx := context.Background()

	put(t, "docs/a file.txt", "payload")
	if err := testProvider.Copy(ctx, "docs/a file.txt", "archive/a file.txt"); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if _, err := testProvider.Head(ctx, "archive/a file.txt"); err != nil {
		t.Errorf("copy destination missing: %v", err)
	}
	if _, err := testProvider.Head(ctx, "docs/a file.txt"); err != nil {
		t.Errorf("copy source removed: %v", err)
	}
	if err := testProvider.Copy(ctx, "nope", "x"); !errors.Is(err, cubby.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing source, got %v", err)
	}
}

func TestProvider_ListDelimiter(t *testing.T) {
	clearBucket(t)
	ctx := context.Background()

	put(t, "root.txt", "r")
	put(t, "photos/", "")
	put(t, "photos/a.jpg", "a")
	put(t, "photos/2024/b.jpg", "b")
	put(t, "docs/c.txt", "c")

	listing, err := testProvider.List(ctx, "", "/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listing.CommonPrefixes) != 2 {
		t.Errorf("expected 2 common prefixes, got %v", listing.CommonPrefixes)
	}
	if len(listing.Objects) != 1 || listing.Objects[0].Key != "root.txt" {
		t.Errorf("expected only root.txt, got %v", listing.Objects)
	}

	listing, err = testProvider.List(ctx, "photos/", "/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listing.CommonPrefixes) != 1 || listing.CommonPrefixes[0] != "photos/2024/" {
		t.Errorf("unexpected prefixes: %v", listing.CommonPrefixes)
	}
	// The marker itself is returned as an object; Drive filters it.
	if len(listing.Objects) != 2 {
		t.Errorf("expected marker and a.jpg, got %v", listing.Objects)
	}
}

func TestProvider_PresignRoundTrip(t *testing.T) {
	clearBucket(t)
	ctx := context.Background()

	putURL, err := testProvider.Presign(ctx, "signed.txt", cubby.MethodPut, time.Minute)
	if err != nil {
		t.Fatalf("Presign PUT failed: %v", err)
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodPut, putURL, bytes.NewReader([]byte("via url")))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status %d", resp.StatusCode)
	}

	getURL, err := testProvider.Presign(ctx, "signed.txt", cubby.MethodGet, time.Minute)
	if err != nil {
		t.Fatalf("Presign GET failed: %v", err)
	}
	resp, err = http.Get(getURL) //nolint:noctx // test helper
	if err != nil {
		t.Fatalf("GET request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "via url" {
		t.Errorf("unexpected body %q", string(body))
	}
}

func TestDrive_RenameAgainstS3(t *testing.T) {
	clearBucket(t)
	ctx := context.Background()
	drive := cubby.New(testProvider)

	put(t, "docs/old.txt", "x")
	newKey, err := drive.Rename(ctx, "docs/old.txt", "new.txt")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if newKey != "docs/new.txt" {
		t.Errorf("unexpected key %q", newKey)
	}

	result, err := drive.List(ctx, "docs")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(result.Files) != 1 || result.Files[0].Name != "new.txt" {
		t.Errorf("unexpected listing: %+v", result.Files)
	}
}
