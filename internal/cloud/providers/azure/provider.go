// Package azure uploads media to an Azure Blob Storage container.
package azure

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/distrohub/mediadesk/internal/cloud"
	"github.com/distrohub/mediadesk/internal/logging"
)

// Options configures a Provider. Either ContainerURL (a SAS URL of the
// container) or ConnectionString+Container must be set.
type Options struct {
	ContainerURL     string
	ConnectionString string
	Container        string
	Prefix           string
	PublicBaseURL    string
}

// Provider uploads blobs with UploadStream.
type Provider struct {
	client *container.Client
	opts   Options
	logger *logging.Logger
}

// New creates the container client. httpClient carries the proxy settings
// and is shared by every request of the SDK pipeline.
func New(httpClient *nethttp.Client, opts Options, logger *logging.Logger) (*Provider, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	clientOpts := &container.ClientOptions{}
	if httpClient != nil {
		clientOpts.ClientOptions = azcore.ClientOptions{Transport: httpClient}
	}

	var (
		client *container.Client
		err    error
	)
	switch {
	case opts.ContainerURL != "":
		client, err = container.NewClientWithNoCredential(opts.ContainerURL, clientOpts)
	case opts.ConnectionString != "" && opts.Container != "":
		client, err = container.NewClientFromConnectionString(opts.ConnectionString, opts.Container, clientOpts)
	default:
		return nil, errors.New("azure container URL or connection string and container are required")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	return &Provider{client: client, opts: opts, logger: logger.Component("azure")}, nil
}

// Name implements cloud.Provider.
func (p *Provider) Name() string { return "azure" }

// Upload implements cloud.Provider.
func (p *Provider) Upload(ctx context.Context, obj cloud.Object, onProgress cloud.ProgressFunc) (*cloud.UploadResult, error) {
	name := cloud.ObjectName(p.opts.Prefix, obj.Folder, obj.Key, obj.Name)
	contentType := obj.MIME
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	blockBlobClient := p.client.NewBlockBlobClient(name)
	body := cloud.NewProgressReader(obj.Body, onProgress)
	_, err := blockBlobClient.UploadStream(ctx, body, &blockblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
	})
	if err != nil {
		return nil, fmt.Errorf("azure upload of %s failed: %w", obj.Name, err)
	}

	url := p.publicURL(name, blockBlobClient.URL())
	p.logger.Debug().Str("blob", name).Msg("Azure upload complete")

	format := ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		format = name[i+1:]
	}
	return &cloud.UploadResult{
		URL:          url,
		PublicID:     name,
		Bytes:        body.BytesRead(),
		Format:       format,
		ResourceType: cloud.ResourceType(contentType),
	}, nil
}

// publicURL prefers the configured base URL and otherwise returns the blob
// URL without its SAS query.
func (p *Provider) publicURL(name, blobURL string) string {
	if base := strings.TrimSuffix(p.opts.PublicBaseURL, "/"); base != "" {
		return base + "/" + name
	}
	if i := strings.IndexByte(blobURL, '?'); i >= 0 {
		return blobURL[:i]
	}
	return blobURL
}
