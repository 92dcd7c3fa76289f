// Package client talks to a storybridge server the way a preview tool
// does: it renders components, caches the markup, lists components and
// reads their metadata. Network calls go through a circuit breaker so a
// server that is down fails fast instead of stalling every story.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/conneroisu/storybridge/internal/inspector"
	"github.com/conneroisu/storybridge/internal/logging"
	"github.com/conneroisu/storybridge/internal/metrics"
	"github.com/conneroisu/storybridge/internal/renderer"
	"github.com/conneroisu/storybridge/internal/validation"
)

const (
	defaultRoutePrefix = "storybook"
	defaultTimeout     = 10 * time.Second
	maxResponseBody    = 4 << 20

	breakerFailures = 5
	breakerTimeout  = 30 * time.Second
)

// RenderContext is the preview state sent with a render. Empty fields are
// filled with the server defaults.
type RenderContext struct {
	Theme    string `json:"theme"`
	Viewport string `json:"viewport"`
}

func (rc RenderContext) withDefaults() RenderContext {
	if rc.Theme == "" {
		rc.Theme = renderer.DefaultTheme
	}
	if rc.Viewport == "" {
		rc.Viewport = renderer.DefaultViewport
	}
	return rc
}

// Health is the body of the health endpoint.
type Health struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// ErrUnavailable wraps requests refused by the open circuit breaker.
var ErrUnavailable = stderrors.New("server unavailable")

// Client is a storybridge HTTP client.
type Client struct {
	baseURL    string
	prefix     string
	httpClient *http.Client
	cache      *Cache
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     logging.Logger
	metrics    *metrics.Metrics

	breakerFailures uint32
	breakerTimeout  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithCache sets the render cache. A nil cache disables caching.
func WithCache(cache *Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithRoutePrefix sets the prefix the server mounts its routes under.
func WithRoutePrefix(prefix string) Option {
	return func(c *Client) {
		if p := strings.Trim(prefix, "/"); p != "" {
			c.prefix = p
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics counts breaker rejections on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithBreaker sets how many consecutive failures open the breaker and how
// long it stays open before probing again.
func WithBreaker(failures uint32, openFor time.Duration) Option {
	return func(c *Client) {
		if failures > 0 {
			c.breakerFailures = failures
		}
		if openFor > 0 {
			c.breakerTimeout = openFor
		}
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if err := validation.ValidateURL(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	c := &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		prefix:          defaultRoutePrefix,
		httpClient:      &http.Client{Timeout: defaultTimeout},
		cache:           NewCache(DefaultCacheCapacity, DefaultCacheTTL),
		logger:          logging.NewNopLogger(),
		breakerFailures: breakerFailures,
		breakerTimeout:  breakerTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("client")

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "storybridge:" + c.baseURL,
		MaxRequests: 1,
		Timeout:     c.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.breakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Info(context.Background(), "Circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
		// Client errors mean the server answered; only transport failures
		// and 5xx responses count against it.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if stderrors.As(err, &se) {
				return se.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
	})

	return c, nil
}

// Render renders component id with args. Markup for a request that failed
// is a client-side error card returned together with the error; server
// fallback cards are returned without error and are never cached.
func (c *Client) Render(ctx context.Context, id string, args map[string]any, rc RenderContext) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	rc = rc.withDefaults()

	key := CacheKey(id, args, rc)
	if c.cache != nil && key != "" {
		if markup, ok := c.cache.Get(key); ok {
			return markup, nil
		}
	}

	payload, err := json.Marshal(struct {
		Args    map[string]any `json:"args"`
		Context RenderContext  `json:"context"`
	}{args, rc})
	if err != nil {
		err = fmt.Errorf("failed to encode render request: %w", err)
		return errorCard(id, err, args), err
	}

	body, err := c.do(ctx, http.MethodPost, "render/"+id, payload, "text/html")
	if err != nil {
		c.logger.Warn(ctx, err, "Failed to render component", "component", id)
		return errorCard(id, err, args), err
	}

	markup := string(body)
	if c.cache != nil && key != "" && !IsErrorCard(markup) {
		c.cache.Set(key, markup)
	}

	return markup, nil
}

// Components returns the identifiers the server discovers.
func (c *Client) Components(ctx context.Context) ([]string, error) {
	var resp struct {
		Components []string `json:"components"`
	}
	if err := c.getJSON(ctx, "components", &resp); err != nil {
		return nil, err
	}
	if resp.Components == nil {
		resp.Components = []string{}
	}
	return resp.Components, nil
}

// Metadata describes component id.
func (c *Client) Metadata(ctx context.Context, id string) (inspector.Metadata, error) {
	var md inspector.Metadata
	err := c.getJSON(ctx, "components/"+id+"/metadata", &md)
	return md, err
}

// Health checks the server.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.getJSON(ctx, "health", &h)
	return h, err
}

// ClearCache drops every cached render.
func (c *Client) ClearCache() {
	if c.cache != nil {
		c.cache.Clear()
		c.logger.Debug(context.Background(), "Render cache cleared")
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return c.baseURL + "/" + c.prefix + "/" + strings.Join(segments, "/")
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, accept string) ([]byte, error) {
	target := c.endpoint(path)

	body, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", accept)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if id := logging.RequestIDFromContext(ctx); id != "" {
			req.Header.Set("X-Request-ID", id)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, target, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
			return nil, &StatusError{Method: method, URL: target, StatusCode: resp.StatusCode}
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		return data, nil
	})

	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		c.metrics.IncBreakerRejections()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return body, err
}
