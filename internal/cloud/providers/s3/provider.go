// Package s3 uploads media to an S3 (or S3-compatible) bucket and serves
// it from the bucket's public URL.
package s3

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/distrohub/mediadesk/internal/cloud"
	"github.com/distrohub/mediadesk/internal/logging"
)

// Options configures a Provider.
type Options struct {
	Bucket        string
	Region        string
	Prefix        string
	Endpoint      string // custom endpoint (MinIO, R2); enables path-style addressing
	PublicBaseURL string
	AccessKeyID   string
	SecretKey     string
}

// Provider uploads through the S3 transfer manager.
type Provider struct {
	uploader *manager.Uploader
	opts     Options
	logger   *logging.Logger
}

// New loads the AWS configuration (static keys when given, the default
// credential chain otherwise) and routes requests through httpClient so
// proxy settings apply.
func New(ctx context.Context, httpClient *nethttp.Client, opts Options, logger *logging.Logger) (*Provider, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	if logger == nil {
		logger = logging.Nop()
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if httpClient != nil {
		loadOpts = append(loadOpts, awsconfig.WithHTTPClient(httpClient))
	}
	if opts.AccessKeyID != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Provider{
		uploader: manager.NewUploader(client),
		opts:     opts,
		logger:   logger.Component("s3"),
	}, nil
}

// Name implements cloud.Provider.
func (p *Provider) Name() string { return "s3" }

// Upload implements cloud.Provider.
func (p *Provider) Upload(ctx context.Context, obj cloud.Object, onProgress cloud.ProgressFunc) (*cloud.UploadResult, error) {
	key := cloud.ObjectName(p.opts.Prefix, obj.Folder, obj.Key, obj.Name)
	contentType := obj.MIME
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body := cloud.NewProgressReader(obj.Body, onProgress)
	out, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.opts.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 upload of %s failed: %w", obj.Name, err)
	}

	p.logger.Debug().Str("bucket", p.opts.Bucket).Str("key", key).Str("location", out.Location).Msg("S3 upload complete")

	return &cloud.UploadResult{
		URL:          p.PublicURL(key),
		PublicID:     key,
		Bytes:        body.BytesRead(),
		Format:       strings.TrimPrefix(path.Ext(key), "."),
		ResourceType: cloud.ResourceType(contentType),
	}, nil
}

// PublicURL returns the URL media at key is served from.
func (p *Provider) PublicURL(key string) string {
	escaped := escapeKey(key)
	if base := strings.TrimSuffix(p.opts.PublicBaseURL, "/"); base != "" {
		return base + "/" + escaped
	}
	if p.opts.Endpoint != "" {
		return strings.TrimSuffix(p.opts.Endpoint, "/") + "/" + p.opts.Bucket + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.opts.Bucket, p.opts.Region, escaped)
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
