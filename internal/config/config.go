// Package config loads cubby configuration from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/zoobzio/cubby"
	"github.com/zoobzio/cubby/azure"
	"github.com/zoobzio/cubby/gcs"
	"github.com/zoobzio/cubby/minio"
	"github.com/zoobzio/cubby/s3"
)

// EnvPrefix prefixes every environment override, e.g. CUBBY_SERVER_ADDR.
const EnvPrefix = "CUBBY"

// PathEnv names the environment variable holding the config file path.
const PathEnv = "CUBBY_CONFIG"

// Store types.
const (
	StoreS3     = "s3"
	StoreMinio  = "minio"
	StoreGCS    = "gcs"
	StoreAzure  = "azure"
	StoreMemory = "memory"
)

// Config is the full process configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// StoreConfig selects and configures the object store.
type StoreConfig struct {
	Type             string        `mapstructure:"type"`
	Bucket           string        `mapstructure:"bucket"`
	Region           string        `mapstructure:"region"`
	Endpoint         string        `mapstructure:"endpoint"`
	AccessKeyID      string        `mapstructure:"access_key_id"`
	SecretAccessKey  string        `mapstructure:"secret_access_key"`
	SessionToken     string        `mapstructure:"session_token"`
	UsePathStyle     bool          `mapstructure:"use_path_style"`
	UseSSL           bool          `mapstructure:"use_ssl"`
	PublicBaseURL    string        `mapstructure:"public_base_url"`
	PresignExpiry    time.Duration `mapstructure:"presign_expiry"`
	PermissiveRename bool          `mapstructure:"permissive_rename"`
	NoClobber        bool          `mapstructure:"no_clobber"`
	GCS              GCSOptions    `mapstructure:"gcs"`
	Azure            AzureOptions  `mapstructure:"azure"`
	Memory           MemoryOptions `mapstructure:"memory"`
}

// GCSOptions holds settings only the gcs store uses.
type GCSOptions struct {
	CredentialsJSON string `mapstructure:"credentials_json"`
	GoogleAccessID  string `mapstructure:"google_access_id"`
	PrivateKey      string `mapstructure:"private_key"`
}

// AzureOptions holds settings only the azure store uses. The container is
// Store.Bucket and the service URL is Store.Endpoint.
type AzureOptions struct {
	ConnectionString string `mapstructure:"connection_string"`
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
}

// MemoryOptions holds settings only the memory store uses.
type MemoryOptions struct {
	Secret  string `mapstructure:"secret"`
	BaseURL string `mapstructure:"base_url"`
}

// AdminConfig holds the single admin credential pair.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// UploadConfig controls multipart uploads.
type UploadConfig struct {
	// TimestampPrefix prepends "<unix millis>_" to uploaded file names.
	TimestampPrefix bool `mapstructure:"timestamp_prefix"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

var defaults = map[string]any{
	"server.addr":             ":8080",
	"server.read_timeout":     "30s",
	"server.write_timeout":    "5m",
	"server.shutdown_timeout": "15s",
	"server.cors_origins":     []string{"*"},
	"server.rate_limit":       20.0,
	"server.rate_burst":       40,
	"server.max_upload_bytes": int64(100 << 20),

	"store.type":              StoreS3,
	"store.bucket":            "",
	"store.region":            "",
	"store.endpoint":          "",
	"store.access_key_id":     "",
	"store.secret_access_key": "",
	"store.session_token":     "",
	"store.use_path_style":    false,
	"store.use_ssl":           true,
	"store.public_base_url":   "",
	"store.presign_expiry":    cubby.DefaultPresignExpiry.String(),
	"store.permissive_rename": false,
	"store.no_clobber":        false,

	"store.gcs.credentials_json": "",
	"store.gcs.google_access_id": "",
	"store.gcs.private_key":      "",

	"store.azure.connection_string": "",
	"store.azure.account_name":      "",
	"store.azure.account_key":       "",

	"store.memory.secret":   "",
	"store.memory.base_url": "http://localhost:8080",

	"admin.email":    "",
	"admin.password": "",

	"upload.timestamp_prefix": true,

	"log.level":  "info",
	"log.format": "json",

	"metrics.enable": true,
	"metrics.path":   "/metrics",
}

// Variable names accepted alongside the CUBBY_ ones.
var legacyEnv = map[string]string{
	"store.region":            "AWS_REGION",
	"store.access_key_id":     "AWS_ACCESS_KEY_ID",
	"store.secret_access_key": "AWS_SECRET_ACCESS_KEY",
	"store.session_token":     "AWS_SESSION_TOKEN",
	"store.bucket":            "S3_BUCKET_NAME",
	"admin.email":             "ADMIN_EMAIL",
	"admin.password":          "ADMIN_PASSWORD",
}

// Load reads the YAML file at path, or at $CUBBY_CONFIG when path is
// empty, and applies environment overrides. A missing path is not an
// error; an unreadable file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Store.Type = strings.ToLower(strings.TrimSpace(cfg.Store.Type))
	return &cfg, nil
}

// Validate fails when the selected store lacks its region, bucket or
// credentials, or when the admin credentials are missing.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Admin.Email == "" || c.Admin.Password == "" {
		return errors.New("admin.email and admin.password are required")
	}

	var err error
	switch c.Store.Type {
	case StoreS3:
		err = c.Store.S3().Validate()
	case StoreMinio:
		err = c.Store.Minio().Validate()
	case StoreGCS:
		err = c.Store.GCSConfig().Validate()
	case StoreAzure:
		err = c.Store.AzureConfig().Validate()
	case StoreMemory:
	default:
		err = fmt.Errorf("%w: unknown store type %q", cubby.ErrNotConfigured, c.Store.Type)
	}
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

// DriveOptions returns the Drive options the store section selects.
func (s StoreConfig) DriveOptions() []cubby.Option {
	opts := []cubby.Option{cubby.WithPresignExpiry(s.PresignExpiry)}
	if s.PublicBaseURL != "" {
		opts = append(opts, cubby.WithPublicBaseURL(s.PublicBaseURL))
	}
	if s.PermissiveRename {
		opts = append(opts, cubby.WithPermissiveRename())
	}
	if s.NoClobber {
		opts = append(opts, cubby.WithNoClobber())
	}
	return opts
}

// S3 returns the s3 provider configuration.
func (s StoreConfig) S3() s3.Config {
	return s3.Config{
		Region:          s.Region,
		Bucket:          s.Bucket,
		AccessKeyID:     s.AccessKeyID,
		SecretAccessKey: s.SecretAccessKey,
		SessionToken:    s.SessionToken,
		Endpoint:        s.Endpoint,
		UsePathStyle:    s.UsePathStyle,
	}
}

// Minio returns the minio provider configuration. The endpoint is
// host:port; a scheme, if present, is stripped.
func (s StoreConfig) Minio() minio.Config {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(s.Endpoint, "https://"), "http://")
	return minio.Config{
		Endpoint:  strings.TrimSuffix(endpoint, "/"),
		Bucket:    s.Bucket,
		AccessKey: s.AccessKeyID,
		SecretKey: s.SecretAccessKey,
		Region:    s.Region,
		UseSSL:    s.UseSSL,
	}
}

// GCSConfig returns the gcs provider configuration.
func (s StoreConfig) GCSConfig() gcs.Config {
	return gcs.Config{
		Bucket:          s.Bucket,
		CredentialsJSON: s.GCS.CredentialsJSON,
		Endpoint:        s.Endpoint,
		GoogleAccessID:  s.GCS.GoogleAccessID,
		PrivateKey:      s.GCS.PrivateKey,
	}
}

// AzureConfig returns the azure provider configuration.
func (s StoreConfig) AzureConfig() azure.Config {
	return azure.Config{
		Container:        s.Bucket,
		ConnectionString: s.Azure.ConnectionString,
		AccountName:      s.Azure.AccountName,
		AccountKey:       s.Azure.AccountKey,
		ServiceURL:       s.Endpoint,
	}
}
