package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zoobzio/cubby"
)

// Error codes that differ from the kind name.
const (
	CodeBadRequest         = "bad_request"
	CodeStoreMisconfigured = "store_misconfigured"
	CodeRateLimited        = "rate_limited"
	CodeTooLarge           = "too_large"
	CodeUnauthorized       = "unauthorized"
	CodeInternal           = "internal"
)

// Response is the JSON envelope of every /api reply.
type Response struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody names the error class and a stable code for clients.
type ErrorBody struct {
	Kind string `json:"kind"`
	Code string `json:"code"`
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(kind cubby.Kind) int {
	switch kind {
	case cubby.KindInvalid:
		return http.StatusBadRequest
	case cubby.KindNotFound:
		return http.StatusNotFound
	case cubby.KindConflict:
		return http.StatusConflict
	case cubby.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CodeFor returns the client-facing code for kind.
func CodeFor(kind cubby.Kind) string {
	switch kind {
	case cubby.KindPermission:
		return CodeStoreMisconfigured
	case cubby.KindUnknown:
		return CodeInternal
	default:
		return kind.String()
	}
}

func ok(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, kind cubby.Kind, code, message string) {
	failWith(c, status, kind, code, message, nil)
}

// failWith is fail carrying data, for errors that follow partial success.
func failWith(c *gin.Context, status int, kind cubby.Kind, code, message string, data any) {
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Message: message,
		Data:    data,
		Error:   &ErrorBody{Kind: kind.String(), Code: code},
	})
}

func badRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, cubby.KindInvalid, CodeBadRequest, message)
}

// driveError writes err using its kind. The message names the failed
// operation; store internals are not echoed for unknown or permission errors.
func (s *Server) driveError(c *gin.Context, op string, err error) {
	s.driveErrorWith(c, op, err, "", nil)
}

// driveErrorWith is driveError with a suffix appended to the message and
// data attached to the envelope.
func (s *Server) driveErrorWith(c *gin.Context, op string, err error, suffix string, data any) {
	kind := cubby.KindOf(err)
	message := op + " failed"
	switch kind {
	case cubby.KindInvalid, cubby.KindNotFound, cubby.KindConflict:
		message = err.Error()
	case cubby.KindDuplicate:
		var dup *cubby.DuplicateError
		if errors.As(err, &dup) {
			message = "object copied to " + dup.Destination + " but " + dup.Source + " was not removed"
		}
	}
	if kind == cubby.KindUnknown || kind == cubby.KindPermission {
		s.logger.ErrorContext(c.Request.Context(), op+" failed",
			"error", err,
			"request_id", c.GetString(requestIDKey),
		)
	}
	failWith(c, StatusFor(kind), kind, CodeFor(kind), message+suffix, data)
}
