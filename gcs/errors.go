package gcs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"cloud.google.com/go/storage"
	"github.com/zoobzio/cubby"
	"google.golang.org/api/googleapi"
)

// mapError translates storage client errors into cubby sentinel errors,
// keeping the original in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, storage.ErrObjectNotExist):
		return fmt.Errorf("%w: %w", cubby.ErrNotFound, err)
	case errors.Is(err, storage.ErrBucketNotExist):
		return fmt.Errorf("%w: %w", cubby.ErrNotConfigured, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch status := apiErr.Code; {
		case status == http.StatusNotFound:
			return fmt.Errorf("%w: %w", cubby.ErrNotFound, err)
		case status == http.StatusForbidden || status == http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", cubby.ErrPermission, err)
		case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %w", cubby.ErrTransient, err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", cubby.ErrTransient, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", cubby.ErrTransient, err)
	}

	return err
}
