package nodedata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/nodecfg/internal/logging"
	"github.com/muurk/nodecfg/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retries for failed reads
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the default delay before the first retry
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay caps the exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second

	// maxBodySize bounds how much of a response is read
	maxBodySize = 1 << 20
)

// Request describes one call to the node.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Transport performs requests against a node and returns the response body.
// Failures are returned as *NodeError.
type Transport interface {
	Do(ctx context.Context, req *Request) ([]byte, error)
}

// Ensure Client implements Transport at compile time.
var _ Transport = (*Client)(nil)

// Client is the HTTP Transport for a node's web client
type Client struct {
	// BaseURL is the node's web client root (e.g., "http://100.64.0.1:5252")
	BaseURL *url.URL

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// UserAgent is sent with every request
	UserAgent string

	// MaxRetries is the maximum number of retries for GET requests.
	// Other methods are never retried.
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff doubles RetryDelay after each attempt
	UseExponentialBackoff bool

	// Logger receives request/response debug logs (nil uses the global logger)
	Logger *zap.Logger
}

// NewClient creates a client for the node at rawURL. A bare host or
// host:port is accepted and given an http scheme.
func NewClient(rawURL string) (*Client, error) {
	base, err := ParseBaseURL(rawURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		BaseURL:               base,
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		UserAgent:             version.UserAgent(),
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
	}, nil
}

// ParseBaseURL normalizes a node address into a base URL.
func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("node URL is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid node URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q (use http or https)", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("node URL %q has no host", raw)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior for reads
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Do sends req and returns the response body. GET requests are retried on
// retryable errors with exponential backoff; everything else gets one attempt.
func (c *Client) Do(ctx context.Context, req *Request) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}

	attempts := 1
	if req.Method == http.MethodGet && c.MaxRetries > 0 {
		attempts += c.MaxRetries
	}

	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, NewNetworkError("request cancelled while waiting to retry", ctx.Err())
			case <-time.After(currentDelay):
			}

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if c.MaxRetryDelay > 0 && currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		body, err := c.doAttempt(ctx, req)
		if err == nil {
			return body, nil
		}

		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// doAttempt performs a single request
func (c *Client) doAttempt(ctx context.Context, req *Request) ([]byte, error) {
	target := c.resolve(req.Path, req.Query)

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, NewNetworkError(fmt.Sprintf("failed to create %s request", req.Method), err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}

	logging.LogRequest(c.Logger, req.Method, target, len(req.Body))
	start := time.Now()

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, NewNetworkError(fmt.Sprintf("%s request failed", req.Method), err)
	}
	defer func() { _ = resp.Body.Close() }()

	logging.LogResponse(c.Logger, req.Method, target, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewHTTPError(resp.StatusCode, data)
	}

	return data, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.BaseURL
	u.Path = c.BaseURL.Path + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}
