package s3

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/zoobzio/cubby"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no such key", &types.NoSuchKey{}, cubby.ErrNotFound},
		{"head not found", &types.NotFound{}, cubby.ErrNotFound},
		{"no such bucket", &types.NoSuchBucket{}, cubby.ErrNotConfigured},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, cubby.ErrPermission},
		{"bad key id", &smithy.GenericAPIError{Code: "InvalidAccessKeyId"}, cubby.ErrPermission},
		{"slow down", &smithy.GenericAPIError{Code: "SlowDown"}, cubby.ErrTransient},
		{"deadline", context.DeadlineExceeded, cubby.ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.in)
			if !errors.Is(got, tt.want) {
				t.Errorf("mapError(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if !errors.Is(got, tt.in) {
				t.Errorf("mapError dropped the original error: %v", got)
			}
		})
	}
}

func TestMapError_Passthrough(t *testing.T) {
	if mapError(nil) != nil {
		t.Error("expected nil for nil input")
	}

	other := errors.New("boom")
	if got := mapError(other); got != other {
		t.Errorf("expected unclassified error unchanged, got %v", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{Region: "us-east-1", Bucket: "b", AccessKeyID: "id", SecretAccessKey: "secret"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string]func(*Config){
		"missing region": func(c *Config) { c.Region = "" },
		"missing bucket": func(c *Config) { c.Bucket = "" },
		"missing key id": func(c *Config) { c.AccessKeyID = "" },
		"missing secret": func(c *Config) { c.SecretAccessKey = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, cubby.ErrNotConfigured) {
				t.Errorf("expected ErrNotConfigured, got %v", err)
			}
		})
	}
}

func TestProvider_URL(t *testing.T) {
	ctx := context.Background()

	client, err := NewClient(ctx, Config{
		Region: "ap-south-1", Bucket: "drop", AccessKeyID: "id", SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	p := New(client, "drop")
	if got, want := p.URL("docs/a b.txt"), "https://drop.s3.ap-south-1.amazonaws.com/docs/a%20b.txt"; got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}

	client, err = NewClient(ctx, Config{
		Region: "us-east-1", Bucket: "drop", AccessKeyID: "id", SecretAccessKey: "secret",
		Endpoint: "http://localhost:4566/", UsePathStyle: true,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	p = New(client, "drop")
	if got, want := p.URL("x.txt"), "http://localhost:4566/drop/x.txt"; got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
	client, err = NewClient(ctx, Config{
		Region: "us-east-1", Bucket: "drop", AccessKeyID: "id", SecretAccessKey: "secret",
		Endpoint: "https://objects.example.com",
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	p = New(client, "drop")
	if got, want := p.URL("docs/a b.txt"), "https://drop.objects.example.com/docs/a%20b.txt"; got != want {
		t.Errorf("URL = %q, want %q", got, want)
	}
}

func TestProvider_PresignScopesKey(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, Config{
		Region: "us-east-1", Bucket: "drop", AccessKeyID: "id", SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	p := New(client, "drop")

	u, err := p.Presign(ctx, "docs/report.pdf", cubby.MethodGet, time.Hour)
	if err != nil {
		t.Fatalf("Presign failed: %v", err)
	}
	for _, want := range []string{"docs/report.pdf", "X-Amz-Expires=3600", "X-Amz-Signature="} {
		if !strings.Contains(u, want) {
			t.Errorf("presigned url %q missing %q", u, want)
		}
	}

	if _, err := p.Presign(ctx, "k", "DELETE", time.Hour); !errors.Is(err, cubby.ErrUnsupportedMethod) {
		t.Errorf("expected ErrUnsupportedMethod, got %v", err)
	}
}
