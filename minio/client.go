package minio

import (
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/zoobzio/cubby"
)

// Config holds the connection settings for a MinIO bucket.
type Config struct {
	// Endpoint is host:port without a scheme.
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Validate reports ErrNotConfigured when endpoint, bucket or credentials
// are missing.
func (c Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return fmt.Errorf("%w: minio endpoint is required", cubby.ErrNotConfigured)
	case c.Bucket == "":
		return fmt.Errorf("%w: minio bucket is required", cubby.ErrNotConfigured)
	case c.AccessKey == "" || c.SecretKey == "":
		return fmt.Errorf("%w: minio access key and secret key are required", cubby.ErrNotConfigured)
	}
	return nil
}

// NewClient builds a MinIO client from cfg with static V4 credentials.
func NewClient(cfg Config) (*minio.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return client, nil
}

// Open validates cfg and returns a Provider for its bucket.
func Open(cfg Config) (*Provider, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return New(client, cfg.Bucket), nil
}
