package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/distrohub/mediadesk/internal/cloud"
	"github.com/distrohub/mediadesk/internal/logging"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		key  string
		want string
	}{
		{"virtual hosted", Options{Bucket: "media", Region: "eu-west-1"}, "media/a b.png", "https://media.s3.eu-west-1.amazonaws.com/media/a%20b.png"},
		{"public base", Options{Bucket: "media", PublicBaseURL: "https://cdn.example/"}, "k/a.png", "https://cdn.example/k/a.png"},
		{"custom endpoint", Options{Bucket: "media", Endpoint: "http://minio:9000"}, "k/a.png", "http://minio:9000/media/k/a.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Provider{opts: tt.opts}
			if got := p.PublicURL(tt.key); got != tt.want {
				t.Errorf("PublicURL(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), nil, Options{}, nil); err == nil {
		t.Error("New without bucket succeeded")
	}
}

// TestUploadAgainstPathStyleEndpoint runs a single-part upload against a
// fake S3-compatible endpoint.
func TestUploadAgainstPathStyleEndpoint(t *testing.T) {
	var (
		mu      sync.Mutex
		gotPath string
		gotType string
		gotBody string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody = string(data)
		mu.Unlock()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, err := New(context.Background(), srv.Client(), Options{
		Bucket:      "media",
		Region:      "us-east-1",
		Prefix:      "uploads",
		Endpoint:    srv.URL,
		AccessKeyID: "AKID",
		SecretKey:   "SECRET",
	}, logging.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var last int64
	res, err := p.Upload(context.Background(), cloud.Object{
		Key: "c1", Name: "doc.pdf", MIME: "application/pdf", Folder: "f1",
		Size: 5, Body: strings.NewReader("hello"),
	}, func(sent int64) { last = sent })
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotPath != "/media/uploads/f1/c1-doc.pdf" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotType != "application/pdf" {
		t.Errorf("Content-Type = %q", gotType)
	}
	if !strings.Contains(gotBody, "hello") {
		t.Errorf("body = %q, want the file content", gotBody)
	}
	if res.URL != srv.URL+"/media/uploads/f1/c1-doc.pdf" || res.Format != "pdf" || res.ResourceType != "raw" {
		t.Errorf("result = %+v", res)
	}
	if last != 5 || res.Bytes != 5 {
		t.Errorf("progress = %d, bytes = %d, want 5", last, res.Bytes)
	}
}
