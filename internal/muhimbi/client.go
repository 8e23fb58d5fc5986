// Package muhimbi is a client for the Muhimbi PDF Online OCR operation.
//
// A document is submitted to v1/operations/ocr_pdf either synchronously or
// with the service's async pattern, in which case the returned task is polled
// through v1/operations/action_task until it reaches a terminal state.
package muhimbi

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL      = "https://api.muhimbi.com/api/"
	DefaultTimeout      = 15 * time.Minute
	DefaultPollInterval = 5 * time.Second

	apiKeyHeader   = "api_key"
	ocrPdfPath     = "v1/operations/ocr_pdf"
	actionTaskPath = "v1/operations/action_task"
)

// Client talks to the OCR endpoints. It is safe for concurrent use; the
// underlying connection pool is the only shared state.
type Client struct {
	baseURL      *url.URL
	apiKey       string
	httpClient   *http.Client
	transport    *http.Transport
	pollInterval time.Duration

	closeOnce sync.Once
	closed    atomic.Bool
}

type settings struct {
	baseURL            string
	timeout            time.Duration
	insecureSkipVerify bool
	pollInterval       time.Duration
	httpClient         *http.Client
}

// Option configures a Client
type Option func(*settings)

// WithBaseURL points the client at another API root
func WithBaseURL(baseURL string) Option {
	return func(s *settings) {
		s.baseURL = baseURL
	}
}

// WithTimeout bounds a single HTTP request, not a whole polling sequence
func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate validation.
// UNSAFE: it exposes the API key and the documents to interception. Only use
// it against test endpoints.
func WithInsecureSkipVerify(skip bool) Option {
	return func(s *settings) {
		s.insecureSkipVerify = skip
	}
}

// WithPollInterval sets the wait between two task status checks
func WithPollInterval(interval time.Duration) Option {
	return func(s *settings) {
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// WithHTTPClient replaces the TLS-pinned client built by New. The timeout and
// certificate options are then ignored.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		s.httpClient = client
	}
}

// New creates a client authenticated with apiKey.
func New(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("muhimbi: API key is required")
	}

	s := &settings{
		baseURL:      DefaultBaseURL,
		timeout:      DefaultTimeout,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	base, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("muhimbi: invalid base URL: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	if s.httpClient != nil {
		return &Client{
			baseURL:      base,
			apiKey:       apiKey,
			httpClient:   s.httpClient,
			pollInterval: s.pollInterval,
		}, nil
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		MaxVersion:         tls.VersionTLS13,
		InsecureSkipVerify: s.insecureSkipVerify, // #nosec G402 -- explicit opt-in
	}
	if s.insecureSkipVerify {
		log.Warn().Str("base_url", base.String()).Msg("TLS certificate validation is disabled")
	}

	return &Client{
		baseURL:      base,
		apiKey:       apiKey,
		httpClient:   &http.Client{Transport: transport, Timeout: s.timeout},
		transport:    transport,
		pollInterval: s.pollInterval,
	}, nil
}

// Close releases the connection pool. Calling it more than once is harmless.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.httpClient.CloseIdleConnections()
	})
	return nil
}

// PollInterval returns the configured wait between status checks
func (c *Client) PollInterval() time.Duration {
	return c.pollInterval
}

// do sends one request and returns the raw body of a 2xx answer.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body io.Reader) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.requestError(ctx, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.requestError(ctx, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Reason:     reasonPhrase(resp),
			Body:       string(raw),
		}
	}
	return raw, nil
}

func (c *Client) requestError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &CancelledError{Err: ctxErr}
	}
	return newTransportError(op, err)
}

func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
