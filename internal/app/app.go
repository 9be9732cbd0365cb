// Package app wires configuration, the object store, the Drive and the
// HTTP server into one process.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zoobzio/cubby"
	"github.com/zoobzio/cubby/azure"
	"github.com/zoobzio/cubby/gcs"
	"github.com/zoobzio/cubby/internal/api"
	"github.com/zoobzio/cubby/internal/config"
	"github.com/zoobzio/cubby/internal/log"
	"github.com/zoobzio/cubby/internal/metrics"
	"github.com/zoobzio/cubby/memory"
	"github.com/zoobzio/cubby/minio"
	"github.com/zoobzio/cubby/s3"
)

// App is a configured cubby process.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Drive   *cubby.Drive
	Server  *api.Server
	bridge  *log.Bridge
	metrics *metrics.Recorder
	http    *http.Server
}

// New validates cfg, opens its store and builds the HTTP server. Logs go
// to w, or stdout when w is nil.
func New(ctx context.Context, cfg *config.Config, w io.Writer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := log.New(log.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, w)

	provider, err := NewProvider(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	drive := cubby.New(provider, cfg.Store.DriveOptions()...)

	a := &App{
		Config: cfg,
		Logger: logger,
		Drive:  drive,
		bridge: log.NewBridge(logger),
	}

	apiCfg := api.Config{
		AdminEmail:      cfg.Admin.Email,
		AdminPassword:   cfg.Admin.Password,
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
		TimestampPrefix: cfg.Upload.TimestampPrefix,
	}
	if cfg.Metrics.Enable {
		a.metrics = metrics.New()
		a.metrics.Listen()
		apiCfg.Metrics = a.metrics.Handler()
		apiCfg.MetricsPath = cfg.Metrics.Path
	}

	gin.SetMode(gin.ReleaseMode)
	a.Server = api.NewServer(drive, apiCfg, logger)
	a.http = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      a.Server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("cubby configured",
		"store", cfg.Store.Type,
		"bucket", cfg.Store.Bucket,
		"addr", cfg.Server.Addr,
		"metrics", cfg.Metrics.Enable,
	)
	return a, nil
}

// NewProvider opens the store named by cfg.Type.
func NewProvider(ctx context.Context, cfg config.StoreConfig) (cubby.BucketProvider, error) {
	switch cfg.Type {
	case config.StoreS3:
		p, err := s3.Open(ctx, cfg.S3())
		if err != nil {
			return nil, fmt.Errorf("open s3: %w", err)
		}
		return p, nil
	case config.StoreMinio:
		p, err := minio.Open(cfg.Minio())
		if err != nil {
			return nil, fmt.Errorf("open minio: %w", err)
		}
		return p, nil
	case config.StoreGCS:
		p, err := gcs.Open(ctx, cfg.GCSConfig())
		if err != nil {
			return nil, fmt.Errorf("open gcs: %w", err)
		}
		return p, nil
	case config.StoreAzure:
		p, err := azure.Open(cfg.AzureConfig())
		if err != nil {
			return nil, fmt.Errorf("open azure: %w", err)
		}
		return p, nil
	case config.StoreMemory:
		opts := []memory.Option{memory.WithBaseURL(cfg.Memory.BaseURL)}
		if cfg.Memory.Secret != "" {
			opts = append(opts, memory.WithSecret([]byte(cfg.Memory.Secret)))
		}
		return memory.New(opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown store type %q", cubby.ErrNotConfigured, cfg.Type)
	}
}

// Run serves HTTP until Shutdown. It returns nil after a clean shutdown.
func (a *App) Run() error {
	a.Logger.Info("http server listening", "addr", a.http.Addr)
	if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and flushes
// pending signal listeners.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.http.Shutdown(ctx)
	a.bridge.Close(ctx)
	if a.metrics != nil {
		a.metrics.Close(ctx)
	}
	return err
}
