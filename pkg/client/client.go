// Package client provides the GitHub REST transport with authentication,
// rate limit tracking, circuit breaking and error classification.
//
// The transport never retries: retry behaviour belongs to the query cache,
// which applies it per key family.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/git-notes/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
)

// Prometheus metrics for GitHub requests.
var (
	githubRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gitnotes_github_requests_total",
		Help: "Total GitHub API requests by method and status",
	}, []string{"method", "status"})

	githubRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gitnotes_github_request_duration_seconds",
		Help:    "GitHub API request duration in seconds by method",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method"})

	githubErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gitnotes_github_errors_total",
		Help: "Total GitHub API errors by class",
	}, []string{"class"})
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com/"

	// MediaType is sent as Accept on every API request.
	MediaType = "application/vnd.github.v3+json"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10
)

// ErrNoToken is returned, possibly wrapped, by a token source that holds no
// credential. Requests are then sent anonymously.
var ErrNoToken = errors.New("no access token")

// Config holds the client configuration.
type Config struct {
	// BaseURL of the REST API (default: https://api.github.com/)
	BaseURL string

	// User-Agent header (REQUIRED by GitHub)
	UserAgent string

	// Per-request timeout
	Timeout time.Duration

	// Tokens supplies the bearer token; nil sends every request anonymously.
	Tokens oauth2.TokenSource

	// Circuit breaker: consecutive-window failure ratio that opens the
	// circuit, and how long it stays open.
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:             DefaultBaseURL,
		UserAgent:           userAgent,
		Timeout:             30 * time.Second,
		BreakerFailureRatio: 0.6,
		BreakerOpenTimeout:  30 * time.Second,
	}
}

// Client is the GitHub REST client.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	rateLimiter *ratelimit.Tracker
	breaker     *gobreaker.CircuitBreaker
	config      Config
	logger      zerolog.Logger
}

// New creates a new GitHub client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http(s) (got %q)", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BreakerFailureRatio <= 0 || cfg.BreakerFailureRatio > 1 {
		cfg.BreakerFailureRatio = 0.6
	}
	if cfg.BreakerOpenTimeout <= 0 {
		cfg.BreakerOpenTimeout = 30 * time.Second
	}

	logger := log.With().Str("component", "github-client").Logger()

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "github",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= cfg.BreakerFailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
		},
	})

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     base,
		rateLimiter: ratelimit.NewTracker(logger),
		breaker:     breaker,
		config:      cfg,
		logger:      logger,
	}, nil
}

// Do performs an API request with authentication, rate limiting and error
// classification. Responses with status >= 400 are returned as *APIError
// with the body already closed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	method := req.Method

	startTime := time.Now()
	defer func() {
		githubRequestDuration.WithLabelValues(method).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check Rate Limit
	if !c.rateLimiter.ShouldAllowRequest() {
		state := c.rateLimiter.GetState()
		c.logger.Warn().
			Str("path", req.URL.Path).
			Time("reset_at", state.ResetAt).
			Msg("Request blocked by rate limiter")
		githubRequestsTotal.WithLabelValues(method, "rate_limited").Inc()
		return nil, &APIError{
			StatusCode: http.StatusForbidden,
			ErrorClass: ErrorClassRateLimit,
			Message:    fmt.Sprintf("rate limit exhausted until %s", state.ResetAt.Format(time.RFC3339)),
			Err:        ratelimit.ErrRateLimited,
		}
	}

	// Step 2: Headers
	req.Header.Set("User-Agent", c.config.UserAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", MediaType)
	}
	if c.config.Tokens != nil {
		token, err := c.config.Tokens.Token()
		switch {
		case err == nil:
			token.SetAuthHeader(req)
		case !errors.Is(err, ErrNoToken):
			githubRequestsTotal.WithLabelValues(method, "token_error").Inc()
			return nil, fmt.Errorf("access token: %w", err)
		}
	}

	c.logger.Debug().
		Str("path", req.URL.Path).
		Str("method", method).
		Msg("Executing GitHub request")

	// Step 3: Execute through the circuit breaker. Only network and 5xx
	// failures count against the circuit.
	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, reqErr := c.httpClient.Do(req)
		if reqErr != nil {
			return nil, reqErr
		}

		if err := c.rateLimiter.UpdateFromHeaders(resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}

		if resp.StatusCode >= 500 {
			return nil, c.responseError(resp)
		}
		return resp, nil
	})

	if err != nil {
		var apiErr *APIError
		switch {
		case errors.As(err, &apiErr):
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			apiErr = &APIError{
				ErrorClass: ErrorClassServer,
				Message:    "github api unavailable",
				Err:        fmt.Errorf("%w: %v", ErrCircuitOpen, err),
			}
		default:
			apiErr = &APIError{
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        err,
			}
		}
		c.recordError(req, apiErr)
		return nil, apiErr
	}

	resp := result.(*http.Response)
	if resp.StatusCode >= 400 {
		apiErr := c.responseError(resp)
		c.recordError(req, apiErr)
		return nil, apiErr
	}

	githubRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	return resp, nil
}

// GetJSON performs a GET against path (relative to the base URL) and decodes
// the JSON body into out. The response headers are returned for pagination.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) (http.Header, error) {
	u := c.resolve(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.doJSON(req, out)
}

// SendJSON performs a mutating request. body (when non-nil) is encoded as
// JSON; out (when non-nil) receives the decoded response. 204 responses
// leave out untouched.
func (c *Client) SendJSON(ctx context.Context, method, path string, body, out any) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path).String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	} else if method == http.MethodPut {
		// GitHub requires an explicit zero length for empty PUTs.
		req.ContentLength = 0
		req.Header.Set("Content-Length", "0")
	}
	return c.doJSON(req, out)
}

// GetRaw downloads the text at an absolute URL, such as a gist file's
// raw_url. The request is a plain GET without API headers or credentials.
func (c *Client) GetRaw(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", &APIError{ErrorClass: ErrorClassClient, Message: fmt.Sprintf("invalid raw url %q", rawURL), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	githubRequestDuration.WithLabelValues("RAW").Observe(time.Since(start).Seconds())
	if err != nil {
		apiErr := &APIError{ErrorClass: ErrorClassNetwork, Message: "failed to fetch file content", Err: err}
		c.recordError(req, apiErr)
		return "", apiErr
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: classifyStatus(resp),
			Message:    "failed to fetch file content: " + resp.Status,
		}
		c.recordError(req, apiErr)
		return "", apiErr
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read file content: %w", err)
	}
	githubRequestsTotal.WithLabelValues("RAW", strconv.Itoa(resp.StatusCode)).Inc()
	return string(content), nil
}

// RateLimit returns the most recent rate limit state.
func (c *Client) RateLimit() ratelimit.RateLimitState {
	return c.rateLimiter.GetState()
}

// BreakerState returns the circuit breaker state ("closed", "half-open", "open").
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) doJSON(req *http.Request, out any) (http.Header, error) {
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.Header, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.Header, fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp.Header, nil
}

// resolve joins path onto the base URL.
func (c *Client) resolve(path string) *url.URL {
	return c.baseURL.JoinPath(strings.TrimPrefix(path, "/"))
}

// responseError builds an APIError from a failed response and closes its body.
func (c *Client) responseError(resp *http.Response) *APIError {
	defer resp.Body.Close()

	message := resp.Status
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		message = payload.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		ErrorClass: classifyStatus(resp),
		Message:    message,
	}
}

func (c *Client) recordError(req *http.Request, apiErr *APIError) {
	status := strconv.Itoa(apiErr.StatusCode)
	if apiErr.StatusCode == 0 {
		status = string(apiErr.ErrorClass)
	}
	githubRequestsTotal.WithLabelValues(req.Method, status).Inc()
	githubErrorsTotal.WithLabelValues(string(apiErr.ErrorClass)).Inc()

	event := c.logger.Warn()
	if apiErr.ErrorClass == ErrorClassClient {
		event = c.logger.Debug()
	}
	event.
		Str("path", req.URL.Path).
		Int("status", apiErr.StatusCode).
		Str("error_class", string(apiErr.ErrorClass)).
		Msg("GitHub request error")
}
