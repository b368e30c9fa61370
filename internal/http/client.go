// Package http builds the outbound HTTP clients used by mediadesk: the
// proxy-aware base client, the media transfer client and the retrying API
// transport.
package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/distrohub/mediadesk/internal/config"
	"github.com/distrohub/mediadesk/internal/logging"
)

// CreateTransferClient creates the client used for hosted uploads and media
// downloads. It shares the proxy configuration of API calls and tunes the
// transport for large bodies:
//   - HTTP/2 when talking directly to the media host
//   - HTTP/1.1 through proxies, which often break multiplexed streams
//   - compression disabled (media is already compressed)
//
// Set DISABLE_HTTP2=true to force HTTP/1.1.
func CreateTransferClient(cfg *config.Config, logger *logging.Logger) (*nethttp.Client, error) {
	var baseClient *nethttp.Client
	if cfg != nil {
		c, err := ConfigureHTTPClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		baseClient = c
	} else {
		baseClient = &nethttp.Client{Transport: newTransport()}
	}

	tr, ok := baseClient.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM wraps the transport; use it as configured.
		baseClient.Timeout = 0
		return baseClient, nil
	}

	tr.MaxIdleConnsPerHost = 16
	tr.MaxConnsPerHost = 16
	tr.DisableCompression = true
	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	if os.Getenv("DISABLE_HTTP2") == "true" || (proxyActive(cfg) && os.Getenv("FORCE_HTTP2") != "true") {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	baseClient.Transport = tr
	baseClient.Timeout = 0 // each transfer bounds itself with a context
	return baseClient, nil
}

// proxyActive trusts the configured mode first and only looks at the
// environment for "system" mode or when there is no config.
func proxyActive(cfg *config.Config) bool {
	envProxy := os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
		os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	if cfg == nil {
		return envProxy
	}
	switch cfg.Proxy.Mode {
	case "no-proxy", "":
		return false
	case "system":
		return envProxy
	default:
		return true
	}
}
