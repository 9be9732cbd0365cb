package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zoobzio/cubby"
)

func blobKey(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("key"), "/")
}

// handleBlobGet serves a memory-provider download URL.
func (s *Server) handleBlobGet(c *gin.Context) {
	key := blobKey(c)
	if err := s.blobs.Verify(cubby.MethodGet, key, c.Request.URL.Query()); err != nil {
		fail(c, http.StatusForbidden, cubby.KindPermission, cubby.KindPermission.String(), err.Error())
		return
	}

	rc, file, err := s.drive.Open(c.Request.Context(), key)
	if err != nil {
		s.driveError(c, "download", err)
		return
	}
	defer rc.Close()

	contentType := file.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	headers := map[string]string{}
	if file.ETag != "" {
		headers["ETag"] = `"` + file.ETag + `"`
	}
	c.DataFromReader(http.StatusOK, file.Size, contentType, rc, headers)
}

// handleBlobPut stores the body of a memory-provider upload URL.
func (s *Server) handleBlobPut(c *gin.Context) {
	key := blobKey(c)
	if err := s.blobs.Verify(cubby.MethodPut, key, c.Request.URL.Query()); err != nil {
		fail(c, http.StatusForbidden, cubby.KindPermission, cubby.KindPermission.String(), err.Error())
		return
	}
	if limit := s.cfg.MaxUploadBytes; limit > 0 {
		if c.Request.ContentLength > limit {
			fail(c, http.StatusRequestEntityTooLarge, cubby.KindInvalid, CodeTooLarge, "upload exceeds size limit")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	contentType := c.ContentType()
	if contentType == "" {
		contentType = defaultContentType
	}
	if _, err := s.drive.Upload(c.Request.Context(), key, c.Request.Body, c.Request.ContentLength, contentType); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, cubby.KindInvalid, CodeTooLarge, "upload exceeds size limit")
			return
		}
		s.driveError(c, "upload", err)
		return
	}
	c.Status(http.StatusOK)
}
