// Package download fetches hosted media files to local disk.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/distrohub/mediadesk/internal/cloud"
	"github.com/distrohub/mediadesk/internal/cloud/storage"
	"github.com/distrohub/mediadesk/internal/constants"
	"github.com/distrohub/mediadesk/internal/http"
	"github.com/distrohub/mediadesk/internal/logging"
	"github.com/distrohub/mediadesk/internal/metrics"
	"github.com/distrohub/mediadesk/internal/progress"
	"github.com/distrohub/mediadesk/internal/util/buffers"
)

// partSuffix marks an incomplete download. A retry resumes from its size.
const partSuffix = ".part"

// Options tunes a download. The zero value uses the default retry policy.
type Options struct {
	Retry    http.RetryConfig
	Reporter progress.Reporter
	Logger   *logging.Logger
	// OnRetry is called before each retry with the attempt number.
	OnRetry func(attempt int, err error)
	// Resume continues a part file left by an earlier run. Without it the
	// first attempt starts from zero.
	Resume bool
}

// Media downloads rawURL to localPath and returns the number of bytes
// written. Data lands in localPath+".part" first and is renamed into place
// once complete; an interrupted attempt resumes with a Range request.
func Media(ctx context.Context, client *nethttp.Client, rawURL, localPath string, opts Options) (int64, error) {
	if client == nil {
		client = nethttp.DefaultClient
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.NewNoOpProgress()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	retry := opts.Retry
	if retry.MaxRetries == 0 {
		retry = http.DefaultRetryConfig()
	}
	retry.OnRetry = func(attempt int, err error, errType http.ErrorType) {
		opts.Logger.Warn().Err(err).Int("attempt", attempt).
			Str("class", http.ErrorTypeName(errType)).Msg("download failed, retrying")
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DownloadOperationTimeout)
	defer cancel()

	if dir := filepath.Dir(localPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	timer := cloud.StartTimer(os.Stderr, "download "+filepath.Base(localPath))
	partPath := localPath + partSuffix
	started := false
	var total int64

	err := http.ExecuteWithRetry(ctx, retry, func() error {
		n, err := fetch(ctx, client, rawURL, partPath, opts.Reporter, !started && !opts.Resume)
		started = true
		total = n
		return err
	})
	if err != nil {
		metrics.RecordDownload(false)
		opts.Reporter.Error(err)
		if storage.IsDiskFullError(err) {
			return 0, fmt.Errorf("%w: %v", storage.ErrInsufficientSpace, err)
		}
		return 0, err
	}

	if err := os.Rename(partPath, localPath); err != nil {
		metrics.RecordDownload(false)
		return 0, fmt.Errorf("failed to move download into place: %w", err)
	}
	opts.Reporter.Finish()
	timer.StopWithThroughput(total)
	metrics.RecordDownload(true)
	opts.Logger.Debug().Str("path", localPath).Int64("bytes", total).Msg("download complete")
	return total, nil
}

// fetch runs one attempt. It resumes an existing part file unless fresh is
// set; a server that ignores the Range header restarts the file.
func fetch(ctx context.Context, client *nethttp.Client, rawURL, partPath string, reporter progress.Reporter, fresh bool) (int64, error) {
	var offset int64
	if !fresh {
		if fi, err := os.Stat(partPath); err == nil {
			offset = fi.Size()
		}
	}

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("invalid download URL: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", "bytes="+strconv.FormatInt(offset, 10)+"-")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	flags := os.O_CREATE | os.O_WRONLY
	switch {
	case resp.StatusCode == nethttp.StatusPartialContent && offset > 0:
		flags |= os.O_APPEND
	case resp.StatusCode == nethttp.StatusRequestedRangeNotSatisfiable && offset > 0:
		// Part file already holds everything.
		return offset, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		flags |= os.O_TRUNC
		offset = 0
	default:
		return 0, &http.StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	f, err := os.OpenFile(partPath, flags, 0o644)
	if err != nil {
		return 0, err
	}

	size := resp.ContentLength
	if size >= 0 {
		size += offset
	}
	reporter.Start(size, path.Base(req.URL.Path))
	reporter.Update(offset)

	n, copyErr := buffers.Copy(f, progress.NewProgressReader(resp.Body, offset, reporter))
	closeErr := f.Close()
	if copyErr != nil {
		return offset + n, copyErr
	}
	if closeErr != nil {
		return offset + n, closeErr
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return offset + n, fmt.Errorf("short read: got %d of %d bytes: %w", n, resp.ContentLength, io.ErrUnexpectedEOF)
	}
	return offset + n, nil
}

// PartialPath returns where an unfinished download of localPath is kept.
func PartialPath(localPath string) string {
	return localPath + partSuffix
}

// LocalName picks a file name for a media item: its name when set,
// otherwise the last segment of its URL.
func LocalName(name, rawURL string) string {
	if name != "" {
		return cloud.SanitizeName(name)
	}
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
			return cloud.SanitizeName(base)
		}
	}
	return "media"
}

// IsRetryable reports whether err is worth another manual attempt.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	switch http.ClassifyError(err) {
	case http.ErrorTypeNetwork, http.ErrorTypeRetryable:
		return true
	}
	return false
}
