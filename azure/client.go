package azure

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/zoobzio/cubby"
)

// Config holds the connection settings for an Azure Blob container.
type Config struct {
	Container string
	// ConnectionString takes precedence over the account fields.
	ConnectionString string
	AccountName      string
	AccountKey       string
	// ServiceURL defaults to https://<account>.blob.core.windows.net/.
	ServiceURL string
}

// Validate reports ErrNotConfigured when the container or credentials are
// missing.
func (c Config) Validate() error {
	switch {
	case c.Container == "":
		return fmt.Errorf("%w: azure container is required", cubby.ErrNotConfigured)
	case c.ConnectionString == "" && (c.AccountName == "" || c.AccountKey == ""):
		return fmt.Errorf("%w: azure connection string or account name and key are required", cubby.ErrNotConfigured)
	}
	return nil
}

// NewClient builds a shared key client from cfg. Shared key credentials
// are required to sign SAS URLs.
func NewClient(cfg Config) (*azblob.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.ConnectionString != "" {
		client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("create azure client: %w", err)
		}
		return client, nil
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("create azure credential: %w", err)
	}
	serviceURL := cfg.ServiceURL
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create azure client: %w", err)
	}
	return client, nil
}

// Open validates cfg and returns a Provider for its container.
func Open(cfg Config) (*Provider, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return New(client, cfg.Container), nil
}
