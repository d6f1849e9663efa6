// Package leankit provides the LeanKit HTTP client with basic auth, request
// pacing, envelope decoding and reply code checking.
package leankit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/leankit-activity/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SearchPath is the card search endpoint relative to the API base URL.
const SearchPath = "/v1/card/search"

// Prometheus metrics for LeanKit client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leankit_requests_total",
		Help: "Total LeanKit requests by method and status",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leankit_request_duration_seconds",
		Help:    "LeanKit request duration in seconds by method",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"method"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leankit_errors_total",
		Help: "Total LeanKit errors by class",
	}, []string{"class"})
)

// Config holds the connector configuration.
type Config struct {
	// Account is the LeanKit account name, the subdomain of leankitkanban.com.
	Account string

	// BaseURL overrides the URL derived from Account (mock servers, proxies).
	BaseURL string

	// Basic auth credentials. Attached only when both are set.
	Username string
	Password string

	// MinInterval is the minimum gap between request initiations.
	MinInterval time.Duration

	// HTTPTimeout bounds each HTTP exchange. 0 means no timeout.
	HTTPTimeout time.Duration

	// HTTPClient replaces the default client; HTTPTimeout is ignored when set.
	HTTPClient *http.Client

	// PacingStore holds the last-request timestamp (default in-memory).
	PacingStore ratelimit.StateStore

	// PacerOptions are passed to the pacer (clock and sleep injection).
	PacerOptions []ratelimit.Option
}

// DefaultConfig returns the conventional report configuration:
// one request per second, no timeout, unauthenticated.
func DefaultConfig(account string) Config {
	return Config{
		Account:     account,
		MinInterval: 1 * time.Second,
	}
}

// AccountURL returns the API base URL of a hosted LeanKit account.
func AccountURL(account string) string {
	return "https://" + account + ".leankitkanban.com/Kanban/Api"
}

// Connector is a paced, optionally authenticated LeanKit API client.
// It issues one request at a time per pacer.
type Connector struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
	pacer      *ratelimit.Pacer
	logger     zerolog.Logger
}

// New creates a connector.
func New(cfg Config) (*Connector, error) {
	if cfg.Account == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("account or base url is required")
	}

	if cfg.MinInterval < 0 {
		return nil, fmt.Errorf("min_interval must be >= 0 (got %s)", cfg.MinInterval)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = AccountURL(cfg.Account)
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	logger := log.With().Str("component", "leankit-client").Logger()

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	pacer := ratelimit.NewPacer(cfg.MinInterval, cfg.PacingStore, logger, cfg.PacerOptions...)

	c := &Connector{
		httpClient: httpClient,
		baseURL:    baseURL,
		pacer:      pacer,
		logger:     logger,
	}
	if cfg.Username != "" && cfg.Password != "" {
		c.username = cfg.Username
		c.password = cfg.Password
	}

	return c, nil
}

// BaseURL returns the API base URL requests are sent to.
func (c *Connector) BaseURL() string {
	return c.baseURL
}

// Authenticated reports whether requests carry basic auth credentials.
func (c *Connector) Authenticated() bool {
	return c.username != ""
}

// RequestOption changes how a single request is handled.
type RequestOption func(*requestOptions)

type requestOptions struct {
	checkReply bool
}

// WithoutReplyCheck returns the envelope even when its reply code is a
// failure, leaving the check to the caller. Transport failures still fail.
func WithoutReplyCheck() RequestOption {
	return func(o *requestOptions) { o.checkReply = false }
}

// Get performs a paced GET request and decodes the reply envelope.
func (c *Connector) Get(ctx context.Context, path string, opts ...RequestOption) (*Envelope, error) {
	return c.do(ctx, http.MethodGet, path, nil, opts...)
}

// Post JSON-encodes body and performs a paced POST request.
func (c *Connector) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Envelope, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, data, opts...)
}

// Search runs one page of a card search.
func (c *Connector) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	env, err := c.Post(ctx, SearchPath, params)
	if err != nil {
		return nil, err
	}

	var pages []SearchResult
	if err := json.Unmarshal(env.ReplyData, &pages); err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, fmt.Errorf("%w: search reply data: %v", ErrMalformedResponse, err)
	}
	if len(pages) == 0 {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, fmt.Errorf("%w: search reply data is empty", ErrMalformedResponse)
	}

	return &pages[0], nil
}

// do paces, sends and classifies a single request.
func (c *Connector) do(ctx context.Context, method, path string, body []byte, opts ...RequestOption) (*Envelope, error) {
	o := requestOptions{checkReply: true}
	for _, opt := range opts {
		opt(&o)
	}

	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Authenticated() {
		req.SetBasicAuth(c.username, c.password)
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return nil, fmt.Errorf("pace request: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Msg("Executing LeanKit request")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	requestDuration.WithLabelValues(method).Observe(time.Since(startTime).Seconds())
	if err != nil {
		terr := &TransportError{Method: method, URL: url, Err: err}
		errorsTotal.WithLabelValues(string(terr.Class())).Inc()
		requestsTotal.WithLabelValues(method, "network_error").Inc()
		c.logger.Error().Err(err).Str("path", path).Msg("HTTP request failed")
		return nil, terr
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	if !isSuccessStatus(resp.StatusCode) {
		terr := &TransportError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
		errorsTotal.WithLabelValues(string(terr.Class())).Inc()
		c.logger.Warn().
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("LeanKit transport error")
		return nil, terr
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, fmt.Errorf("%w: decode %s %s: %v", ErrMalformedResponse, method, path, err)
	}

	if o.checkReply && !env.ReplyCode.IsSuccess() {
		errorsTotal.WithLabelValues(string(ErrorClassReply)).Inc()
		c.logger.Warn().
			Str("path", path).
			Int("reply_code", int(env.ReplyCode)).
			Str("reply_text", env.ReplyText).
			Msg("LeanKit reply error")
		return nil, &ApplicationError{Code: env.ReplyCode, Text: env.ReplyText}
	}

	return &env, nil
}

// Close releases idle connections.
func (c *Connector) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
