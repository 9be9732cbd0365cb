package s3

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/zoobzio/cubby"
)

var (
	notFoundCodes = map[string]bool{
		"NoSuchKey": true,
		"NotFound":  true,
	}
	permissionCodes = map[string]bool{
		"AccessDenied":                 true,
		"AllAccessDisabled":            true,
		"InvalidAccessKeyId":           true,
		"SignatureDoesNotMatch":        true,
		"ExpiredToken":                 true,
		"InvalidToken":                 true,
		"AuthorizationHeaderMalformed": true,
	}
	transientCodes = map[string]bool{
		"SlowDown":             true,
		"Throttling":           true,
		"ThrottlingException":  true,
		"RequestLimitExceeded": true,
		"RequestTimeout":       true,
		"ServiceUnavailable":   true,
		"InternalError":        true,
	}
)

// statusCoder matches smithy and aws transport response errors.
type statusCoder interface {
	HTTPStatusCode() int
}

// mapError translates SDK errors into cubby sentinel errors, keeping the
// original in the chain.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return fmt.Errorf("%w: %w", cubby.ErrNotFound, err)
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return fmt.Errorf("%w: %w", cubby.ErrNotConfigured, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case notFoundCodes[code]:
			return fmt.Errorf("%w: %w", cubby.ErrNotFound, err)
		case code == "NoSuchBucket":
			return fmt.Errorf("%w: %w", cubby.ErrNotConfigured, err)
		case permissionCodes[code]:
			return fmt.Errorf("%w: %w", cubby.ErrPermission, err)
		case transientCodes[code]:
			return fmt.Errorf("%w: %w", cubby.ErrTransient, err)
		}
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		switch status := sc.HTTPStatusCode(); {
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
