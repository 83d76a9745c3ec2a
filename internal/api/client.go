// Package api talks to the stats server over HTTP and classifies every
// response into the dockstat error taxonomy.
package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/rileyhilliard/dockstat/internal/errors"
	"github.com/rileyhilliard/dockstat/internal/logger"
	"github.com/rileyhilliard/dockstat/internal/stats"
)

// Endpoint paths, relative to the configured base URL.
const (
	SnapshotPath = "/metrics/snapshot"
	RefreshPath  = "/metrics/refresh"
	SystemPath   = "/metrics/system"
)

// maxDetailLen caps how much of an unstructured error body is kept.
const maxDetailLen = 200

// Config holds the settings for a Client.
type Config struct {
	BaseURL string
	Token   string

	// Timeout bounds every request made through the default HTTP client.
	// Ignored when HTTPClient is set.
	Timeout time.Duration

	HTTPClient *http.Client
	Logger     logger.Logger

	// Now stamps SystemMetric.CapturedAt. Defaults to time.Now.
	Now func() time.Time
}

// Client is the stats server client. Safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        logger.Logger
	now        func() time.Time
}

// New creates a client for the server at cfg.BaseURL.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: httpClient,
		log:        logger.OrDefault(cfg.Logger),
		now:        now,
	}
}

// BaseURL returns the server address this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Snapshot fetches the cached metrics snapshot.
func (c *Client) Snapshot(ctx context.Context) (stats.Snapshot, error) {
	body, err := c.do(ctx, http.MethodGet, SnapshotPath)
	if err != nil {
		return stats.Snapshot{}, err
	}
	return decodeSnapshot(body)
}

// TriggerRefresh asks the server to recompute its snapshot. The server does
// the work asynchronously; the response body is ignored.
func (c *Client) TriggerRefresh(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, RefreshPath)
	return err
}

// System fetches the aggregate host metrics.
func (c *Client) System(ctx context.Context) (stats.SystemMetric, error) {
	body, err := c.do(ctx, http.MethodGet, SystemPath)
	if err != nil {
		return stats.SystemMetric{}, err
	}
	metric, err := decodeSystem(body)
	if err != nil {
		return stats.SystemMetric{}, err
	}
	metric.CapturedAt = c.now()
	return metric, nil
}

// do performs one request and returns the body of a 2xx response. Any other
// outcome comes back as a classified *errors.Error.
func (c *Client) do(ctx context.Context, method, path string) ([]byte, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Invalid request for %s", url),
			"Check server.url in .dockstat.yaml")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.log.Debug("%s %s", method, url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, err)
	}
	c.log.Debug("%s %s -> %d (%d bytes)", method, url, resp.StatusCode, len(body))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, statusError(resp.StatusCode, body)
}

func (c *Client) transportError(ctx context.Context, err error) error {
	switch {
	case stderrors.Is(ctx.Err(), context.Canceled):
		return errors.WrapWithCode(err, errors.ErrCancelled, "Request canceled", "")
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded), isTimeout(err):
		return errors.WrapWithCode(err, errors.ErrTimeout,
			"Request timed out",
			"The stats server may be overloaded. The next scheduled check will retry.")
	default:
		return errors.WrapWithCode(err, errors.ErrNetwork,
			fmt.Sprintf("Cannot connect to stats server at %s", c.baseURL),
			"Check that the server is running and server.url is correct")
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// errorPayload is the error body shape the server uses.
type errorPayload struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func statusError(status int, body []byte) error {
	detail := errorDetail(body)

	switch status {
	case http.StatusUnauthorized:
		return errors.New(errors.ErrUnauthorized,
			"Session expired",
			"Sign in again, then press p to resume system metrics").WithDetail(detail)
	case http.StatusTooManyRequests:
		return errors.New(errors.ErrRateLimited,
			"Too many requests", "").WithDetail(detail)
	default:
		return errors.New(errors.ErrServer,
			fmt.Sprintf("Stats server returned status %d", status), "").WithDetail(detail)
	}
}

// errorDetail extracts a readable message from an error body, preferring the
// structured payload and falling back to the raw text.
func errorDetail(body []byte) string {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		if payload.Details != "" {
			return payload.Error + " (" + payload.Details + ")"
		}
		return payload.Error
	}

	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "<") {
		return ""
	}
	if len(text) > maxDetailLen {
		text = text[:maxDetailLen] + "..."
	}
	return text
}
