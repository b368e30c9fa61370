// Package providers selects the hosted media provider named by the
// [upload] configuration section.
package providers

import (
	"context"
	"fmt"
	nethttp "net/http"

	"github.com/distrohub/mediadesk/internal/cloud"
	"github.com/distrohub/mediadesk/internal/cloud/providers/azure"
	"github.com/distrohub/mediadesk/internal/cloud/providers/hosted"
	"github.com/distrohub/mediadesk/internal/cloud/providers/s3"
	"github.com/distrohub/mediadesk/internal/config"
	"github.com/distrohub/mediadesk/internal/http"
	"github.com/distrohub/mediadesk/internal/logging"
)

// New validates the upload settings and builds the configured provider.
// httpClient may be nil, in which case a proxy-aware transfer client is
// created from cfg.
func New(ctx context.Context, cfg *config.Config, httpClient *nethttp.Client, logger *logging.Logger) (cloud.Provider, error) {
	if err := cfg.ValidateUpload(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		c, err := http.CreateTransferClient(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create transfer client: %w", err)
		}
		httpClient = c
	}

	up := cfg.Upload
	switch up.Provider {
	case "hosted", "":
		return hosted.New(httpClient, hosted.Options{
			Endpoint:     up.HostedURL,
			UploadPreset: up.UploadPreset,
			Folder:       up.HostedFolder,
		}, logger)
	case "s3":
		return s3.New(ctx, httpClient, s3.Options{
			Bucket:        up.S3Bucket,
			Region:        up.S3Region,
			Prefix:        up.S3Prefix,
			Endpoint:      up.S3Endpoint,
			PublicBaseURL: up.S3PublicBaseURL,
			AccessKeyID:   up.S3AccessKeyID,
			SecretKey:     up.S3SecretKey,
		}, logger)
	case "azure":
		return azure.New(httpClient, azure.Options{
			ContainerURL:     up.AzureContainerURL,
			ConnectionString: up.AzureConnectionString,
			Container:        up.AzureContainer,
			PublicBaseURL:    up.AzurePublicBaseURL,
		}, logger)
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownProvider, up.Provider)
	}
}
