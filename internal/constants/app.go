// Package constants holds tunables shared across mediadesk packages.
package constants

import "time"

// Pagination defaults for the media library and report pages.
const (
	// DefaultPageLimit is the number of media items requested per page.
	DefaultPageLimit = 20

	// MaxPageLimit caps the page size accepted from flags/config.
	MaxPageLimit = 200

	// DefaultReportPageLimit is the number of report rows requested per page.
	DefaultReportPageLimit = 10

	// MaxPaginationPages bounds "all pages" walks (report export, CLI listing)
	// so a misbehaving backend that never reports a last page cannot loop forever.
	MaxPaginationPages = 1000
)

// Folder tree
const (
	// RootFolderName is the display name of the synthetic root node.
	RootFolderName = "All Media"
)

// Event bus configuration
const (
	// EventBusDefaultBuffer is the default per-subscriber channel buffer.
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer caps the per-subscriber buffer.
	EventBusMaxBuffer = 4096
)

// Progress reporting
const (
	// ProgressUpdateInterval throttles progress bar refreshes.
	ProgressUpdateInterval = 250 * time.Millisecond
)

// API client
const (
	// DefaultAPITimeout is the per-request timeout when the config does not set one.
	DefaultAPITimeout = 30 * time.Second

	// DefaultAPIRetries is the retry budget for idempotent GET requests.
	// Mutations are never retried automatically.
	DefaultAPIRetries = 3

	// RetryWaitMin / RetryWaitMax bound the transport's backoff between GET retries.
	RetryWaitMin = 500 * time.Millisecond
	RetryWaitMax = 5 * time.Second

	// DefaultRatePerSecond and DefaultBurst configure the API token bucket.
	DefaultRatePerSecond = 10.0
	DefaultBurst         = 20.0

	// RateLimitWarningThreshold is the wait after which the limiter logs a warning.
	RateLimitWarningThreshold = 2 * time.Second

	// RateLimitWarningInterval throttles repeated rate-limit warnings.
	RateLimitWarningInterval = 10 * time.Second
)

// Upload / download
const (
	// UploadOperationTimeout bounds a single file's hosted upload.
	UploadOperationTimeout = 30 * time.Minute

	// DownloadOperationTimeout bounds a single media download.
	DownloadOperationTimeout = 30 * time.Minute

	// DownloadMaxRetries is the retry budget for hosted media downloads.
	DownloadMaxRetries = 5

	// RetryInitialDelay / RetryMaxDelay drive ExecuteWithRetry backoff.
	RetryInitialDelay = 200 * time.Millisecond
	RetryMaxDelay     = 15 * time.Second

	// MIMESniffBytes is how much of a file is read to detect its MIME type.
	MIMESniffBytes = 3072
)

// HTTP transport settings
const (
	HTTPIdleConnTimeout       = 90 * time.Second
	HTTPTLSHandshakeTimeout   = 30 * time.Second
	HTTPExpectContinueTimeout = 1 * time.Second
	HTTPDialTimeout           = 30 * time.Second
	HTTPDialKeepAlive         = 30 * time.Second
	ProxyWarmupTimeout        = 15 * time.Second
)

// Dashboard server
const (
	DefaultDashboardAddr  = "127.0.0.1:8088"
	DashboardReadTimeout  = 15 * time.Second
	DashboardWriteTimeout = 60 * time.Second
	DashboardIdleTimeout  = 120 * time.Second
	ShutdownTimeout       = 10 * time.Second
)
