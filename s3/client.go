package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/zoobzio/cubby"
)

// Config holds the connection settings for an S3 bucket.
type Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// Endpoint overrides the AWS endpoint (LocalStack, MinIO, R2, ...).
	Endpoint     string
	UsePathStyle bool
}

// Validate reports ErrNotConfigured when region, bucket or credentials
// are missing.
func (c Config) Validate() error {
	switch {
	case c.Region == "":
		return fmt.Errorf("%w: s3 region is required", cubby.ErrNotConfigured)
	case c.Bucket == "":
		return fmt.Errorf("%w: s3 bucket is required", cubby.ErrNotConfigured)
	case c.AccessKeyID == "" || c.SecretAccessKey == "":
		return fmt.Errorf("%w: s3 access key id and secret access key are required", cubby.ErrNotConfigured)
	}
	return nil
}

// NewClient builds an S3 client from cfg with static credentials.
// SDK retries are disabled; failures surface on the first attempt.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			cfg.SessionToken,
		)),
		config.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// Open validates cfg and returns a Provider for its bucket.
func Open(ctx context.Context, cfg Config) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(client, cfg.Bucket), nil
}
