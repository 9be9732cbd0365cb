package gcs

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/zoobzio/cubby"
	"google.golang.org/api/option"
)

// Config holds the connection settings for a GCS bucket.
type Config struct {
	Bucket string
	// CredentialsJSON is a service account key. When empty, application
	// default credentials apply.
	CredentialsJSON string
	// Endpoint points the client at an emulator and disables auth.
	Endpoint string
	// GoogleAccessID and PrivateKey sign URLs without a signing-capable
	// credential.
	GoogleAccessID string
	PrivateKey     string
}

// Validate reports ErrNotConfigured when the bucket is missing.
func (c Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("%w: gcs bucket is required", cubby.ErrNotConfigured)
	}
	return nil
}

// NewClient builds a storage client from cfg.
func NewClient(ctx context.Context, cfg Config) (*storage.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []option.ClientOption
	switch {
	case cfg.Endpoint != "":
		opts = append(opts,
			option.WithEndpoint(strings.TrimSuffix(cfg.Endpoint, "/")+"/storage/v1/"),
			option.WithoutAuthentication(),
		)
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return client, nil
}

// Open validates cfg and returns a Provider for its bucket.
func Open(ctx context.Context, cfg Config) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var opts []Option
	if cfg.GoogleAccessID != "" && cfg.PrivateKey != "" {
		opts = append(opts, WithSigner(cfg.GoogleAccessID, []byte(cfg.PrivateKey)))
	}
	return New(client, cfg.Bucket, opts...), nil
}
