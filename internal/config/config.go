// Package config provides configuration management for mediadesk.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/distrohub/mediadesk/internal/constants"
)

// EnvPrefix is the prefix for environment overrides, e.g. MEDIADESK_API_BASE_URL.
const EnvPrefix = "MEDIADESK"

// Config is the full client configuration.
//
// Config file location (INI format):
//   - Windows: %USERPROFILE%\.config\mediadesk\config.ini
//   - Unix: ~/.config/mediadesk/config.ini
//
// Example:
//
//	[api]
//	base_url = https://api.example.com/api
//	timeout_seconds = 30
//
//	[session]
//	user_id = 64f1c0ffee
//
//	[upload]
//	provider = hosted
//	hosted_url = https://api.cloudinary.com/v1_1/demo/auto/upload
//	upload_preset = unsigned_media
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Session   SessionConfig   `mapstructure:"session"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Proxy     ProxyConfig     `mapstructure:"proxy"`
	Media     MediaConfig     `mapstructure:"media"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Log       LogConfig       `mapstructure:"log"`
	Notify    NotifyConfig    `mapstructure:"notify"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MaxRetries     int     `mapstructure:"max_retries"`
	RatePerSecond  float64 `mapstructure:"rate_per_second"`
	Burst          float64 `mapstructure:"burst"`
}

// Timeout returns the per-request timeout.
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return constants.DefaultAPITimeout
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// SessionConfig identifies the acting user. Token is optional; when set and
// UserID is empty the user id is read from the token claims.
type SessionConfig struct {
	UserID        string `mapstructure:"user_id"`
	DistributorID string `mapstructure:"distributor_id"`
	Token         string `mapstructure:"token"`
}

// UploadConfig selects and configures the hosted media provider.
type UploadConfig struct {
	Provider string `mapstructure:"provider"` // "hosted", "s3", "azure"

	// hosted (multipart form + unsigned upload preset)
	HostedURL    string `mapstructure:"hosted_url"`
	UploadPreset string `mapstructure:"upload_preset"`
	HostedFolder string `mapstructure:"hosted_folder"`

	// s3
	S3Bucket        string `mapstructure:"s3_bucket"`
	S3Region        string `mapstructure:"s3_region"`
	S3Endpoint      string `mapstructure:"s3_endpoint"` // MinIO, R2; enables path-style
	S3Prefix        string `mapstructure:"s3_prefix"`
	S3PublicBaseURL string `mapstructure:"s3_public_base_url"`
	S3AccessKeyID   string `mapstructure:"s3_access_key_id"`
	S3SecretKey     string `mapstructure:"s3_secret_access_key"`

	// azure
	AzureContainerURL     string `mapstructure:"azure_container_url"` // SAS URL of the container
	AzureConnectionString string `mapstructure:"azure_connection_string"`
	AzureContainer        string `mapstructure:"azure_container"`
	AzurePublicBaseURL    string `mapstructure:"azure_public_base_url"`
}

// ProxyConfig holds outbound proxy settings.
type ProxyConfig struct {
	Mode     string `mapstructure:"mode"` // "no-proxy", "system", "basic", "ntlm"
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	NoProxy  string `mapstructure:"no_proxy"` // Comma-separated hosts to bypass
	Warmup   bool   `mapstructure:"warmup"`
}

// MediaConfig holds library browsing defaults.
type MediaConfig struct {
	PageLimit int    `mapstructure:"page_limit"`
	SortBy    string `mapstructure:"sort_by"`
	SortOrder string `mapstructure:"sort_order"`
	View      string `mapstructure:"view"` // "grid" or "list"
}

// DashboardConfig holds settings for `mediadesk serve`.
type DashboardConfig struct {
	Addr        string `mapstructure:"addr"`
	CORSOrigins string `mapstructure:"cors_origins"` // Comma-separated
}

// Origins splits CORSOrigins into a list.
func (d DashboardConfig) Origins() []string {
	var origins []string
	for _, o := range strings.Split(d.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// NotifyConfig controls where bus notifications are shown. Terminal
// output is always on; Desktop adds system notifications for finished
// uploads and failures.
type NotifyConfig struct {
	Desktop bool `mapstructure:"desktop"`
}

// Validation errors
var (
	ErrMissingBaseURL       = errors.New("api.base_url is required")
	ErrInvalidBaseURL       = errors.New("api.base_url must be an absolute http(s) URL")
	ErrInvalidPageLimit     = fmt.Errorf("media.page_limit must be between 1 and %d", constants.MaxPageLimit)
	ErrInvalidSortOrder     = errors.New("media.sort_order must be asc or desc")
	ErrInvalidView          = errors.New("media.view must be grid or list")
	ErrUnknownProvider      = errors.New("upload.provider must be hosted, s3 or azure")
	ErrMissingHostedURL     = errors.New("upload.hosted_url is required for the hosted provider")
	ErrMissingUploadPreset  = errors.New("upload.upload_preset is required for the hosted provider")
	ErrMissingS3Bucket      = errors.New("upload.s3_bucket is required for the s3 provider")
	ErrMissingAzureTarget   = errors.New("upload.azure_container_url or azure_connection_string+azure_container is required for the azure provider")
	ErrUnsupportedProxyMode = errors.New("proxy.mode must be no-proxy, system, basic or ntlm")
)

// DefaultConfigPath returns the default path for the config file.
func DefaultConfigPath() (string, error) {
	var configDir string

	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", errors.New("USERPROFILE environment variable not set")
		}
		configDir = filepath.Join(userProfile, ".config", "mediadesk")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", "mediadesk")
	}

	return filepath.Join(configDir, "config.ini"), nil
}

// New returns a Config populated with defaults.
func New() *Config {
	v := newViper()
	cfg := &Config{}
	// Defaults only; cannot fail.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load reads configuration from the INI file at path (default path when
// empty), then applies .env and MEDIADESK_* environment overrides.
// A missing file is not an error: defaults plus environment are returned.
func Load(path string) (*Config, error) {
	// .env in the working directory feeds the environment, like a frontend's env file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path == "" {
		p, err := DefaultConfigPath()
		if err == nil {
			path = p
		}
	}

	v := newViper()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("ini")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.timeout_seconds", int(constants.DefaultAPITimeout/time.Second))
	v.SetDefault("api.max_retries", constants.DefaultAPIRetries)
	v.SetDefault("api.rate_per_second", constants.DefaultRatePerSecond)
	v.SetDefault("api.burst", constants.DefaultBurst)

	v.SetDefault("session.user_id", "")
	v.SetDefault("session.distributor_id", "")
	v.SetDefault("session.token", "")

	v.SetDefault("upload.provider", "hosted")
	v.SetDefault("upload.hosted_url", "")
	v.SetDefault("upload.upload_preset", "")
	v.SetDefault("upload.hosted_folder", "")
	v.SetDefault("upload.s3_bucket", "")
	v.SetDefault("upload.s3_region", "us-east-1")
	v.SetDefault("upload.s3_endpoint", "")
	v.SetDefault("upload.s3_prefix", "media")
	v.SetDefault("upload.s3_public_base_url", "")
	v.SetDefault("upload.s3_access_key_id", "")
	v.SetDefault("upload.s3_secret_access_key", "")
	v.SetDefault("upload.azure_container_url", "")
	v.SetDefault("upload.azure_connection_string", "")
	v.SetDefault("upload.azure_container", "")
	v.SetDefault("upload.azure_public_base_url", "")

	v.SetDefault("proxy.mode", "no-proxy")
	v.SetDefault("proxy.host", "")
	v.SetDefault("proxy.port", 0)
	v.SetDefault("proxy.user", "")
	v.SetDefault("proxy.password", "")
	v.SetDefault("proxy.no_proxy", "")
	v.SetDefault("proxy.warmup", false)

	v.SetDefault("media.page_limit", constants.DefaultPageLimit)
	v.SetDefault("media.sort_by", "createdAt")
	v.SetDefault("media.sort_order", "desc")
	v.SetDefault("media.view", "grid")

	v.SetDefault("dashboard.addr", constants.DefaultDashboardAddr)
	v.SetDefault("dashboard.cors_origins", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("notify.desktop", false)
}

func (c *Config) normalize() {
	c.API.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.API.BaseURL), "/")
	c.Upload.Provider = strings.ToLower(strings.TrimSpace(c.Upload.Provider))
	c.Proxy.Mode = strings.ToLower(strings.TrimSpace(c.Proxy.Mode))
	c.Media.SortOrder = strings.ToLower(strings.TrimSpace(c.Media.SortOrder))
	c.Media.View = strings.ToLower(strings.TrimSpace(c.Media.View))
	if c.Session.DistributorID == "" {
		c.Session.DistributorID = c.Session.UserID
	}
}

// Validate checks the settings every command needs (backend connection and
// browsing defaults). Upload settings are checked by ValidateUpload.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return ErrMissingBaseURL
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}
	if c.Media.PageLimit < 1 || c.Media.PageLimit > constants.MaxPageLimit {
		return ErrInvalidPageLimit
	}
	if c.Media.SortOrder != "asc" && c.Media.SortOrder != "desc" {
		return ErrInvalidSortOrder
	}
	if c.Media.View != "grid" && c.Media.View != "list" {
		return ErrInvalidView
	}
	switch c.Proxy.Mode {
	case "", "no-proxy", "system", "basic", "ntlm":
	default:
		return ErrUnsupportedProxyMode
	}
	return nil
}

// ValidateUpload checks the settings of the selected upload provider.
func (c *Config) ValidateUpload() error {
	switch c.Upload.Provider {
	case "hosted", "":
		if strings.TrimSpace(c.Upload.HostedURL) == "" {
			return ErrMissingHostedURL
		}
		if strings.TrimSpace(c.Upload.UploadPreset) == "" {
			return ErrMissingUploadPreset
		}
	case "s3":
		if strings.TrimSpace(c.Upload.S3Bucket) == "" {
			return ErrMissingS3Bucket
		}
	case "azure":
		if c.Upload.AzureContainerURL == "" &&
			(c.Upload.AzureConnectionString == "" || c.Upload.AzureContainer == "") {
			return ErrMissingAzureTarget
		}
	default:
		return ErrUnknownProvider
	}
	return nil
}

// Save writes the configuration as INI to path (default path when empty).
// The file holds secrets (session token, proxy password) and is written 0600.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("ini")
	for key, value := range cfg.flatten() {
		v.Set(key, value)
	}

	// Temporary file + rename for atomicity; keep the extension so the
	// encoder is picked from it.
	ext := filepath.Ext(path)
	if ext == "" {
		ext = ".ini"
	}
	tmpPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".tmp" + ext
	if err := v.WriteConfigAs(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func (c *Config) flatten() map[string]interface{} {
	return map[string]interface{}{
		"api.base_url":        c.API.BaseURL,
		"api.timeout_seconds": c.API.TimeoutSeconds,
		"api.max_retries":     c.API.MaxRetries,
		"api.rate_per_second": c.API.RatePerSecond,
		"api.burst":           c.API.Burst,

		"session.user_id":        c.Session.UserID,
		"session.distributor_id": c.Session.DistributorID,
		"session.token":          c.Session.Token,

		"upload.provider":                c.Upload.Provider,
		"upload.hosted_url":              c.Upload.HostedURL,
		"upload.upload_preset":           c.Upload.UploadPreset,
		"upload.hosted_folder":           c.Upload.HostedFolder,
		"upload.s3_bucket":               c.Upload.S3Bucket,
		"upload.s3_region":               c.Upload.S3Region,
		"upload.s3_endpoint":             c.Upload.S3Endpoint,
		"upload.s3_prefix":               c.Upload.S3Prefix,
		"upload.s3_public_base_url":      c.Upload.S3PublicBaseURL,
		"upload.s3_access_key_id":        c.Upload.S3AccessKeyID,
		"upload.s3_secret_access_key":    c.Upload.S3SecretKey,
		"upload.azure_container_url":     c.Upload.AzureContainerURL,
		"upload.azure_connection_string": c.Upload.AzureConnectionString,
		"upload.azure_container":         c.Upload.AzureContainer,
		"upload.azure_public_base_url":   c.Upload.AzurePublicBaseURL,

		"proxy.mode":     c.Proxy.Mode,
		"proxy.host":     c.Proxy.Host,
		"proxy.port":     c.Proxy.Port,
		"proxy.user":     c.Proxy.User,
		"proxy.password": c.Proxy.Password,
		"proxy.no_proxy": c.Proxy.NoProxy,
		"proxy.warmup":   c.Proxy.Warmup,

		"media.page_limit": c.Media.PageLimit,
		"media.sort_by":    c.Media.SortBy,
		"media.sort_order": c.Media.SortOrder,
		"media.view":       c.Media.View,

		"dashboard.addr":         c.Dashboard.Addr,
		"dashboard.cors_origins": c.Dashboard.CORSOrigins,

		"log.level": c.Log.Level,
		"log.json":  c.Log.JSON,

		"notify.desktop": c.Notify.Desktop,
	}
}
