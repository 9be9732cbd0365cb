package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zoobzio/cubby"
)

const defaultContentType = "application/octet-stream"

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateFolderRequest is the body of POST /api/folders.
type CreateFolderRequest struct {
	Name       string `json:"name"`
	ParentPath string `json:"parentPath"`
}

// UpdateFileRequest is the body of PUT /api/files. Action is "rename" or
// "move". A move goes to DestinationKey when set, otherwise into
// DestinationFolder keeping the file name.
type UpdateFileRequest struct {
	Action            string `json:"action"`
	Key               string `json:"key"`
	NewName           string `json:"newName"`
	DestinationKey    string `json:"destinationKey"`
	DestinationFolder string `json:"destinationFolder"`
}

// UploadURLRequest is the body of POST /api/files/upload-url.
type UploadURLRequest struct {
	FileName   string `json:"fileName"`
	FolderPath string `json:"folderPath"`
}

// UploadedFile describes one stored upload.
type UploadedFile struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	URL         string    `json:"url"`
	FolderPath  string    `json:"folderPath"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(s.cfg.AdminEmail)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.cfg.AdminPassword)) == 1
	if s.cfg.AdminEmail == "" || !emailOK || !passwordOK {
		fail(c, http.StatusUnauthorized, cubby.KindPermission, CodeUnauthorized, "invalid credentials")
		return
	}
	ok(c, "login successful", nil)
}

func (s *Server) handleList(c *gin.Context) {
	result, err := s.drive.List(c.Request.Context(), c.Query("path"))
	if err != nil {
		s.driveError(c, "list", err)
		return
	}
	ok(c, "", result)
}

func (s *Server) handleCreateFolder(c *gin.Context) {
	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := cubby.ValidateName(req.Name); err != nil {
		s.driveError(c, "create folder", err)
		return
	}
	if err := cubby.ValidatePath(req.ParentPath); err != nil {
		s.driveError(c, "create folder", err)
		return
	}

	folder, err := s.drive.CreateFolder(c.Request.Context(), cubby.JoinKey(req.ParentPath, req.Name))
	if err != nil {
		s.driveError(c, "create folder", err)
		return
	}
	ok(c, "folder created", folder)
}

func (s *Server) handleDeleteFolder(c *gin.Context) {
	folder := c.Query("path")
	if folder == "" {
		badRequest(c, "path is required")
		return
	}
	if err := s.drive.DeleteFolder(c.Request.Context(), folder); err != nil {
		s.driveError(c, "delete folder", err)
		return
	}
	ok(c, "folder deleted", nil)
}

func (s *Server) handleUpload(c *gin.Context) {
	if s.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, cubby.KindInvalid, CodeTooLarge, "upload exceeds size limit")
			return
		}
		badRequest(c, "invalid multipart form")
		return
	}

	files := append(form.File["files"], form.File["files[]"]...)
	if len(files) == 0 {
		badRequest(c, "no files provided")
		return
	}
	folder := c.PostForm("folderPath")
	if err := cubby.ValidatePath(folder); err != nil {
		s.driveError(c, "upload", err)
		return
	}

	uploaded := make([]UploadedFile, 0, len(files))
	for _, fh := range files {
		record, err := s.store(c, folder, fh)
		if err != nil {
			if len(uploaded) == 0 {
				s.driveError(c, "upload", err)
				return
			}
			suffix := fmt.Sprintf(" (%d file(s) stored before the failure)", len(uploaded))
			s.driveErrorWith(c, "upload", err, suffix, gin.H{"files": uploaded})
			return
		}
		uploaded = append(uploaded, *record)
	}
	ok(c, fmt.Sprintf("%d file(s) uploaded", len(uploaded)), gin.H{"files": uploaded})
}

func (s *Server) store(c *gin.Context, folder string, fh *multipart.FileHeader) (*UploadedFile, error) {
	name := path.Base(fh.Filename)
	if err := cubby.ValidateName(name); err != nil {
		return nil, err
	}
	now := s.now()
	stored := name
	if s.cfg.TimestampPrefix {
		stored = fmt.Sprintf("%d_%s", now.UnixMilli(), name)
	}
	key := cubby.JoinKey(folder, stored)

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()

	url, err := s.drive.Upload(c.Request.Context(), key, f, fh.Size, contentType)
	if err != nil {
		return nil, err
	}
	return &UploadedFile{
		ID:          uuid.NewString(),
		Key:         key,
		Name:        name,
		Size:        fh.Size,
		ContentType: contentType,
		URL:         url,
		FolderPath:  folder,
		UploadedAt:  now.UTC(),
	}, nil
}

func (s *Server) handleStat(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		badRequest(c, "key is required")
		return
	}
	file, err := s.drive.Stat(c.Request.Context(), key)
	if err != nil {
		s.driveError(c, "stat", err)
		return
	}
	ok(c, "", file)
}

func (s *Server) handleDelete(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		badRequest(c, "key is required")
		return
	}
	if err := s.drive.Delete(c.Request.Context(), key); err != nil {
		s.driveError(c, "delete", err)
		return
	}
	ok(c, "file deleted", nil)
}

func (s *Server) handleUpdate(c *gin.Context) {
	var req UpdateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Key == "" {
		badRequest(c, "key is required")
		return
	}

	ctx := c.Request.Context()
	var (
		newKey string
		err    error
	)
	switch req.Action {
	case "rename":
		if req.NewName == "" {
			badRequest(c, "newName is required for rename")
			return
		}
		newKey, err = s.drive.Rename(ctx, req.Key, req.NewName)
	case "move":
		if req.DestinationKey != "" {
			newKey = req.DestinationKey
			err = s.drive.Move(ctx, req.Key, req.DestinationKey)
		} else {
			newKey, err = s.drive.MoveToFolder(ctx, req.Key, req.DestinationFolder)
		}
	default:
		badRequest(c, "action must be rename or move")
		return
	}
	if err != nil {
		s.driveError(c, req.Action, err)
		return
	}
	ok(c, "file "+req.Action+"d", gin.H{"newKey": newKey})
}

func (s *Server) handleDownloadURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		badRequest(c, "key is required")
		return
	}
	signed, err := s.drive.DownloadURL(c.Request.Context(), key)
	if err != nil {
		s.driveError(c, "download url", err)
		return
	}
	ok(c, "", signed)
}

func (s *Server) handleUploadURL(c *gin.Context) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := cubby.ValidateName(req.FileName); err != nil {
		s.driveError(c, "upload url", err)
		return
	}
	if err := cubby.ValidatePath(req.FolderPath); err != nil {
		s.driveError(c, "upload url", err)
		return
	}

	signed, err := s.drive.UploadURL(c.Request.Context(), cubby.JoinKey(req.FolderPath, req.FileName))
	if err != nil {
		s.driveError(c, "upload url", err)
		return
	}
	ok(c, "", signed)
}
