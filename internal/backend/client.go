// Package backend is the REST client for the marketplace backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/modelhub/portal/internal/metrics"
	"github.com/modelhub/portal/internal/model"
)

const maxResponseSize = 4 << 20

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RPS       float64
	Burst     int
	Transport http.RoundTripper
	Logger    *slog.Logger
	Metrics   metrics.Recorder
}

// Client calls the marketplace backend on behalf of a signed-in user.
type Client struct {
	baseURL *url.URL
	timeout time.Duration
	base    http.RoundTripper
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics metrics.Recorder
}

// New creates a backend client.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", opts.BaseURL)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}

	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL: u,
		timeout: opts.Timeout,
		base:    opts.Transport,
		limiter: rate.NewLimiter(limit, burst),
		logger:  opts.Logger.With("component", "backend"),
		metrics: opts.Metrics,
	}, nil
}

// httpClient returns a client that attaches token as a bearer credential.
func (c *Client) httpClient(token string) *http.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &http.Client{
		Timeout:   c.timeout,
		Transport: &oauth2.Transport{Source: src, Base: c.base},
	}
}

// do performs one request and decodes the envelope's data into out.
// There are no retries: a failure is returned to the caller as is.
func (c *Client) do(ctx context.Context, op, token, method, path string, body, out any) error {
	if token == "" {
		return ErrNoToken
	}

	// Wait until allowed. Context cancellation will abort this.
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("backend rate limiter wait: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient(token).Do(req)
	if err != nil {
		c.metrics.ObserveBackendCall(op, 0, time.Since(start))
		c.logger.WarnContext(ctx, "backend request failed", "operation", op, "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	c.metrics.ObserveBackendCall(op, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, raw)
		c.logger.InfoContext(ctx, "backend returned error",
			"operation", op,
			"status_code", resp.StatusCode,
			"message", apiErr.Message,
		)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var env model.Envelope[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode %s envelope: %w", op, err)
	}
	if !env.Success && env.Message != "" {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", op, err)
	}
	return nil
}

// Ping checks that the backend is reachable. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL.String()+"/", nil)
	if err != nil {
		return err
	}
	resp, err := (&http.Client{Timeout: c.timeout, Transport: c.base}).Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return errors.New(resp.Status)
	}
	return nil
}
