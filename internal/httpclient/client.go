package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stablehop/stablehop/logger"
)

// maxErrorBody caps how much of an error response is kept in memory.
const maxErrorBody = 64 << 10

// RequestOption represents a function that can modify an HTTP request
type RequestOption func(*http.Request)

// ClientOption represents a function that can modify the HTTP client
type ClientOption func(*HTTPClient)

// HTTPError is a non-2xx response. The body is retained for callers that
// parse provider error payloads but is not part of Error().
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
	Method     string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d", e.Method, e.URL, e.StatusCode)
}

// AsHTTPError unwraps err into an *HTTPError.
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	ok := errors.As(err, &httpErr)
	return httpErr, ok
}

// HTTPClient is a JSON client with retries on transient statuses.
type HTTPClient struct {
	httpClient     *http.Client
	baseURL        string
	defaultHeaders map[string]string
	retryConfig    *RetryConfig
	logger         logger.Logger
}

// RetryConfig configures the retry behavior
type RetryConfig struct {
	MaxRetries           int
	InitialInterval      time.Duration
	MaxInterval          time.Duration
	Multiplier           float64
	MaxElapsedTime       time.Duration
	RetryableStatusCodes []int
}

// DefaultRetryConfig keeps retries short enough to fit inside a per-provider
// quote deadline.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:           2,
		InitialInterval:      100 * time.Millisecond,
		MaxInterval:          time.Second,
		Multiplier:           2.0,
		MaxElapsedTime:       4 * time.Second,
		RetryableStatusCodes: []int{408, 429, 500, 502, 503, 504},
	}
}

// NewHTTPClient creates a new HTTPClient with the given options
func NewHTTPClient(options ...ClientOption) *HTTPClient {
	client := &HTTPClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		defaultHeaders: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
		},
		retryConfig: DefaultRetryConfig(),
		logger:      logger.NoopLogger{},
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// WithBaseURL sets the base URL for all requests
func WithBaseURL(baseURL string) ClientOption {
	return func(c *HTTPClient) {
		c.baseURL = baseURL
	}
}

// WithDefaultHeader adds a default header to all requests
func WithDefaultHeader(key, value string) ClientOption {
	return func(c *HTTPClient) {
		c.defaultHeaders[key] = value
	}
}

// WithTimeout sets the timeout for all requests
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.httpClient.Timeout = timeout
	}
}

// WithRetryConfig sets the retry configuration. nil disables retries.
func WithRetryConfig(config *RetryConfig) ClientOption {
	return func(c *HTTPClient) {
		c.retryConfig = config
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *HTTPClient) {
		c.httpClient.Transport = rt
	}
}

func WithLogger(l logger.Logger) ClientOption {
	return func(c *HTTPClient) {
		c.logger = logger.OrNoop(l)
	}
}

// WithHeader adds a header to the request
func WithHeader(key, value string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

// WithQueryParam adds a query parameter to the request
func WithQueryParam(key, value string) RequestOption {
	return func(req *http.Request) {
		q := req.URL.Query()
		q.Add(key, value)
		req.URL.RawQuery = q.Encode()
	}
}

// WithBearerToken adds bearer token authentication to the request
func WithBearerToken(token string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// Get performs an HTTP GET request
func (c *HTTPClient) Get(ctx context.Context, path string, options ...RequestOption) (*http.Response, error) {
	return c.DoRequest(ctx, http.MethodGet, path, nil, options...)
}

// Post performs an HTTP POST request with a JSON body
func (c *HTTPClient) Post(ctx context.Context, path string, body interface{}, options ...RequestOption) (*http.Response, error) {
	return c.DoRequest(ctx, http.MethodPost, path, body, options...)
}

func (c *HTTPClient) resolve(path string) (string, error) {
	if c.baseURL == "" {
		if _, err := url.ParseRequestURI(path); err != nil {
			return "", fmt.Errorf("invalid path used without base URL: %s, error: %w", path, err)
		}
		return path, nil
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimSuffix(c.baseURL, "/") + path, nil
}

// DoRequest performs a request. On a status >= 400 it returns the response
// with a re-readable body together with an *HTTPError.
func (c *HTTPClient) DoRequest(ctx context.Context, method, path string, body interface{}, options ...RequestOption) (*http.Response, error) {
	start := time.Now()

	fullURL, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	newRequest := func() (*http.Request, error) {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		for key, value := range c.defaultHeaders {
			req.Header.Set(key, value)
		}
		for _, option := range options {
			option(req)
		}
		return req, nil
	}

	var resp *http.Response
	operation := func() error {
		req, err := newRequest()
		if err != nil {
			return backoff.Permanent(err)
		}
		// nolint:bodyclose // closed on retry or handed to the caller
		resp, err = c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		if c.retryable(resp.StatusCode) {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			return fmt.Errorf("retryable status code: %d", resp.StatusCode)
		}
		return nil
	}

	var requestErr error
	if c.retryConfig != nil && c.retryConfig.MaxRetries > 0 {
		expBackoff := backoff.NewExponentialBackOff()
		expBackoff.InitialInterval = c.retryConfig.InitialInterval
		expBackoff.MaxInterval = c.retryConfig.MaxInterval
		expBackoff.Multiplier = c.retryConfig.Multiplier
		expBackoff.MaxElapsedTime = c.retryConfig.MaxElapsedTime

		policy := backoff.WithContext(
			backoff.WithMaxRetries(expBackoff, uint64(c.retryConfig.MaxRetries)), ctx)
		requestErr = backoff.Retry(operation, policy)
	} else {
		requestErr = operation()
	}

	duration := time.Since(start)

	if requestErr != nil {
		// Exhausted retries on a retryable status: the last body is gone.
		c.logger.Warn("HTTP request failed", map[string]any{
			"method":   method,
			"url":      fullURL,
			"error":    requestErr,
			"duration": duration.String(),
		})
		return nil, fmt.Errorf("http request failed: %w", requestErr)
	}

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		c.logger.Debug("HTTP error response", map[string]any{
			"method":   method,
			"url":      fullURL,
			"status":   resp.StatusCode,
			"duration": duration.String(),
		})

		return resp, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        fullURL,
			Method:     method,
			Body:       bodyBytes,
		}
	}

	c.logger.Debug("HTTP request successful", map[string]any{
		"method":   method,
		"url":      fullURL,
		"status":   resp.StatusCode,
		"duration": duration.String(),
	})

	return resp, nil
}

func (c *HTTPClient) retryable(status int) bool {
	if c.retryConfig == nil {
		return false
	}
	for _, code := range c.retryConfig.RetryableStatusCodes {
		if status == code {
			return true
		}
	}
	return false
}

// DecodeJSON decodes a successful response body into target and closes it.
func DecodeJSON(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetJSON performs a GET and decodes the response into target.
func (c *HTTPClient) GetJSON(ctx context.Context, path string, target interface{}, options ...RequestOption) error {
	resp, err := c.Get(ctx, path, options...)
	if err != nil {
		return err
	}
	return DecodeJSON(resp, target)
}

// PostJSON performs a POST and decodes the response into target.
func (c *HTTPClient) PostJSON(ctx context.Context, path string, body, target interface{}, options ...RequestOption) error {
	resp, err := c.Post(ctx, path, body, options...)
	if err != nil {
		return err
	}
	return DecodeJSON(resp, target)
}

func (c *HTTPClient) GetBaseURL() string {
	return c.baseURL
}
