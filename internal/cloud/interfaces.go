// Package cloud defines the contract shared by the hosted media providers
// (hosted upload service, S3, Azure Blob) and the uploader driving them.
package cloud

import (
	"context"
	"io"
	"path"
	"strings"
	"sync/atomic"
)

// ProgressFunc receives the number of bytes sent so far.
type ProgressFunc func(sent int64)

// Object is one local file handed to a provider.
type Object struct {
	// Key is a unique, provider-safe identifier for the upload (the
	// candidate id). Providers derive object names from it.
	Key string

	Name   string
	MIME   string
	Size   int64
	Body   io.Reader
	Folder string
}

// UploadResult is what a provider reports back after storing the file.
type UploadResult struct {
	URL          string
	PublicID     string
	Bytes        int64
	Width        int
	Height       int
	Format       string
	ResourceType string
}

// Provider stores media somewhere reachable by URL.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Upload streams obj and reports progress through onProgress (may be
	// nil). It must honor ctx cancellation.
	Upload(ctx context.Context, obj Object, onProgress ProgressFunc) (*UploadResult, error)
}

// ProgressReader counts bytes read through it.
type ProgressReader struct {
	r          io.Reader
	read       int64
	onProgress ProgressFunc
}

// NewProgressReader wraps r. onProgress may be nil.
func NewProgressReader(r io.Reader, onProgress ProgressFunc) *ProgressReader {
	return &ProgressReader{r: r, onProgress: onProgress}
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		total := atomic.AddInt64(&pr.read, int64(n))
		if pr.onProgress != nil {
			pr.onProgress(total)
		}
	}
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (pr *ProgressReader) BytesRead() int64 {
	return atomic.LoadInt64(&pr.read)
}

// ObjectName builds "<prefix>/<folder>/<key>-<name>" with empty segments
// dropped and unsafe characters in name replaced.
func ObjectName(prefix, folder, key, name string) string {
	base := SanitizeName(name)
	if key != "" {
		base = key + "-" + base
	}
	var parts []string
	for _, p := range []string{prefix, folder} {
		if p = strings.Trim(p, "/ "); p != "" {
			parts = append(parts, p)
		}
	}
	parts = append(parts, base)
	return path.Join(parts...)
}

// SanitizeName keeps letters, digits, dot, dash and underscore.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 || name == "." || name == "/" {
		return "file"
	}
	return b.String()
}

// ResourceType maps a MIME type to the hosted service's resource bucket.
func ResourceType(mime string) string {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return "image"
	case strings.HasPrefix(mime, "video/"):
		return "video"
	default:
		return "raw"
	}
}
