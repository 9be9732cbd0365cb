package minio

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/zoobzio/cubby"
)

// mapError translates minio-go errors into cubby sentinel errors, keeping
// the original in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchObject":
		return fmt.Errorf("%w: %w", cubby.ErrNotFound, err)
	case "NoSuchBucket":
		return fmt.Errorf("%w: %w", cubby.ErrNotConfigured, err)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
		return fmt.Errorf("%w: %w", cubby.ErrPermission, err)
	case "SlowDown", "SlowDownRead", "SlowDownWrite", "RequestTimeout",
		"ServiceUnavailable", "InternalError", "XMinioServerNotInitialized":
		return fmt.Errorf("%w: %w", cubby.ErrTransient, err)
	}

	switch status := resp.StatusCode; {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %w", cubby.ErrNotFound, err)
	case status == http.StatusForbidden || status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", cubby.ErrPermission, err)
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %w", cubby.ErrTransient, err)
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
