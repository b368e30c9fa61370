// Package api is the client for the distributor platform's REST backend:
// media records, folders, library stats and the deal reports.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/distrohub/mediadesk/internal/config"
	"github.com/distrohub/mediadesk/internal/constants"
	"github.com/distrohub/mediadesk/internal/http"
	"github.com/distrohub/mediadesk/internal/logging"
	"github.com/distrohub/mediadesk/internal/metrics"
	"github.com/distrohub/mediadesk/internal/ratelimit"
	"github.com/distrohub/mediadesk/internal/session"
)

// maxErrorBody caps how much of a failed response is kept in APIError.
const maxErrorBody = 4096

// Client talks to the backend on behalf of an explicit session.
type Client struct {
	httpClient *nethttp.Client
	config     *config.Config
	baseURL    string
	timeout    time.Duration
	limiter    *ratelimit.RateLimiter
	logger     *logging.Logger
}

// NewClient creates a new API client from cfg. GET requests are retried
// by the transport; mutations are sent once.
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	if cfg == nil || strings.TrimSpace(cfg.API.BaseURL) == "" {
		return nil, config.ErrMissingBaseURL
	}
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.Component("api")

	base, err := http.ConfigureHTTPClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	limiter := ratelimit.NewRateLimiter(cfg.API.RatePerSecond, cfg.API.Burst)
	limiter.SetLogger(logger)

	return &Client{
		httpClient: http.NewRetryingClient(base, cfg.API.MaxRetries, logger),
		config:     cfg,
		baseURL:    strings.TrimSuffix(cfg.API.BaseURL, "/"),
		timeout:    cfg.API.Timeout(),
		limiter:    limiter,
		logger:     logger,
	}, nil
}

// GetConfig returns the configuration used by this client. Upload and
// download code reuses it to build proxy-aware transfer clients.
func (c *Client) GetConfig() *config.Config {
	return c.config
}

// BaseURL returns the backend root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doJSON sends one request and decodes a 2xx JSON body into out (when out
// is non-nil). Non-2xx responses become *APIError.
func (c *Client) doJSON(ctx context.Context, sess *session.Session, op, method, path string, query url.Values, body, out interface{}) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter cancelled: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if method == nethttp.MethodGet {
		ctx = http.MarkIdempotent(ctx)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth := sess.AuthHeader(); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPIRequest(op, 0, time.Since(start))
		c.logger.Debug().Err(err).Str("op", op).Str("path", path).Msg("API request failed")
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	metrics.RecordAPIRequest(op, resp.StatusCode, time.Since(start))
	c.logger.Debug().
		Str("op", op).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("API request")

	if resp.StatusCode == nethttp.StatusTooManyRequests {
		c.backOff(resp)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %s: %w", ErrBadResponse, op, err)
	}
	return nil
}

// backOff drains the local bucket after the server throttled us and
// honors Retry-After when present.
func (c *Client) backOff(resp *nethttp.Response) {
	metrics.RecordRateLimitHit()
	c.limiter.Drain()

	cooldown := constants.RetryWaitMax
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			cooldown = time.Duration(secs) * time.Second
		}
	}
	c.limiter.SetCooldown(cooldown)
	c.logger.Warn().Dur("cooldown", cooldown).Msg("Backend rate limit hit, cooling down")
}

// userPath joins a resource prefix with the session user and optional ids.
func userPath(prefix, userID string, ids ...string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('/')
	b.WriteString(url.PathEscape(userID))
	for _, id := range ids {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(id))
	}
	return b.String()
}
