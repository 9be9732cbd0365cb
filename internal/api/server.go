// Package api serves the cubby folder/file API over HTTP with gin.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zoobzio/cubby"
	"github.com/zoobzio/cubby/memory"
)

// Config controls the HTTP surface.
type Config struct {
	AdminEmail      string
	AdminPassword   string
	CORSOrigins     []string
	RateLimit       float64
	RateBurst       int
	MaxUploadBytes  int64
	TimestampPrefix bool
	// Metrics is mounted at MetricsPath when non-nil.
	Metrics     http.Handler
	MetricsPath string
}

// Server routes HTTP requests to a Drive.
type Server struct {
	drive  *cubby.Drive
	blobs  *memory.Provider
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
	router *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the time source for upload name prefixes and records.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer builds the router for drive. When the drive is backed by the
// memory provider, /blob/*key serves its signed URLs.
func NewServer(drive *cubby.Drive, cfg Config, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		drive:  drive,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if p, ok := drive.Provider().(*memory.Provider); ok {
		s.blobs = p
	}

	router := gin.New()
	router.Use(
		RequestID(),
		Logger(logger),
		Recovery(logger),
		CORS(cfg.CORSOrigins),
	)

	router.GET("/health", s.handleHealth)
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(cfg.Metrics))
	}

	apiGroup := router.Group("/api", RateLimit(cfg.RateLimit, cfg.RateBurst))
	apiGroup.POST("/auth/login", s.handleLogin)

	admin := apiGroup.Group("", AdminAuth(cfg.AdminEmail, cfg.AdminPassword))
	admin.GET("/entries", s.handleList)
	admin.POST("/folders", s.handleCreateFolder)
	admin.DELETE("/folders", s.handleDeleteFolder)
	admin.POST("/files", s.handleUpload)
	admin.GET("/files/info", s.handleStat)
	admin.DELETE("/files", s.handleDelete)
	admin.PUT("/files", s.handleUpdate)
	admin.GET("/files/download-url", s.handleDownloadURL)
	admin.POST("/files/upload-url", s.handleUploadURL)

	if s.blobs != nil {
		router.GET("/blob/*key", s.handleBlobGet)
		router.PUT("/blob/*key", s.handleBlobPut)
	}

	s.router = router
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router returns the underlying gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
