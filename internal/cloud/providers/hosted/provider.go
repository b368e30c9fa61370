// Package hosted uploads media to a hosted image/video service that
// accepts unsigned multipart uploads with an upload preset.
package hosted

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/textproto"
	"strings"

	"github.com/distrohub/mediadesk/internal/cloud"
	"github.com/distrohub/mediadesk/internal/http"
	"github.com/distrohub/mediadesk/internal/logging"
	"github.com/distrohub/mediadesk/internal/util/buffers"
)

const maxErrorBody = 4096

// Provider posts files to the hosted upload endpoint.
type Provider struct {
	client   *nethttp.Client
	endpoint string
	preset   string
	folder   string
	logger   *logging.Logger
}

// Options configures a Provider.
type Options struct {
	Endpoint     string
	UploadPreset string
	// Folder is the optional hosted-side folder all uploads go to.
	Folder string
}

// New creates a hosted provider sending through client.
func New(client *nethttp.Client, opts Options, logger *logging.Logger) (*Provider, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, errors.New("hosted upload endpoint is required")
	}
	if strings.TrimSpace(opts.UploadPreset) == "" {
		return nil, errors.New("hosted upload preset is required")
	}
	if client == nil {
		client = nethttp.DefaultClient
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Provider{
		client:   client,
		endpoint: opts.Endpoint,
		preset:   opts.UploadPreset,
		folder:   opts.Folder,
		logger:   logger.Component("hosted"),
	}, nil
}

// Name implements cloud.Provider.
func (p *Provider) Name() string { return "hosted" }

// response is the hosted service's upload answer.
type response struct {
	SecureURL    string `json:"secure_url"`
	URL          string `json:"url"`
	PublicID     string `json:"public_id"`
	Bytes        int64  `json:"bytes"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Format       string `json:"format"`
	ResourceType string `json:"resource_type"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload streams obj as multipart/form-data through an io.Pipe, so the
// file is never buffered in memory.
func (p *Provider) Upload(ctx context.Context, obj cloud.Object, onProgress cloud.ProgressFunc) (*cloud.UploadResult, error) {
	pr, pw := io.Pipe()
	// Unblocks the writer if the server answers before reading the whole form.
	defer pr.Close()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(p.writeForm(mw, obj, onProgress))
	}()

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, p.endpoint, pr)
	if err != nil {
		pr.CloseWithError(err)
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		return nil, fmt.Errorf("upload of %s failed: %w", obj.Name, err)
	}
	defer resp.Body.Close()

	var body response
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	decodeErr := json.Unmarshal(data, &body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := resp.Status
		if decodeErr == nil && body.Error != nil && body.Error.Message != "" {
			msg = body.Error.Message
		} else if len(data) > 0 && len(data) <= maxErrorBody {
			msg = strings.TrimSpace(string(data))
		}
		return nil, fmt.Errorf("upload of %s rejected: %s: %w", obj.Name, msg,
			&http.StatusError{StatusCode: resp.StatusCode, Status: resp.Status})
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", decodeErr)
	}

	url := body.SecureURL
	if url == "" {
		url = body.URL
	}
	if url == "" {
		return nil, fmt.Errorf("upload of %s returned no URL", obj.Name)
	}

	p.logger.Debug().Str("name", obj.Name).Str("public_id", body.PublicID).Msg("Hosted upload complete")

	bytes := body.Bytes
	if bytes == 0 {
		bytes = obj.Size
	}
	return &cloud.UploadResult{
		URL:          url,
		PublicID:     body.PublicID,
		Bytes:        bytes,
		Width:        body.Width,
		Height:       body.Height,
		Format:       body.Format,
		ResourceType: body.ResourceType,
	}, nil
}

func (p *Provider) writeForm(mw *multipart.Writer, obj cloud.Object, onProgress cloud.ProgressFunc) error {
	if err := mw.WriteField("upload_preset", p.preset); err != nil {
		return err
	}
	if p.folder != "" {
		if err := mw.WriteField("folder", p.folder); err != nil {
			return err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(obj.Name)))
	contentType := obj.MIME
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := buffers.Copy(part, cloud.NewProgressReader(obj.Body, onProgress)); err != nil {
		return err
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
