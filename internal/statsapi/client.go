package statsapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/five82/statdeck/internal/logging"
	"github.com/five82/statdeck/internal/metrics"
	"github.com/five82/statdeck/internal/scope"
)

// Fetcher is what the sync coordinator needs from the backend. It is
// implemented by *Client and faked in tests.
type Fetcher interface {
	Fetch(ctx context.Context, key scope.Key, params Params) (Snapshot, error)
	Invalidate(ctx context.Context, kind scope.Kind) error
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// Params tune a single fetch.
type Params struct {
	// Force asks the backend to bypass its own cache where supported.
	Force bool
}

// Client talks to the statistics backend.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	breaker   *gobreaker.CircuitBreaker[[]byte]
	now       func() time.Time
}

const (
	defaultBaseURL    = "http://127.0.0.1:8080/api"
	defaultUserAgent  = "statdeck/0.1"
	invalidateTimeout = 10 * time.Second
	maxBodyBytes      = 32 << 20

	breakerMaxFailures = 5
	breakerOpenFor     = 30 * time.Second
)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Per-request deadlines
// still come from the scope policy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// WithClock overrides the clock used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient builds a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = newBreaker("statsapi")
	return c, nil
}

func newBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	metrics.BreakerState.Set(0)
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     breakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerMaxFailures
		},
		IsSuccessful: func(err error) bool {
			// Only an unhealthy backend should trip the breaker; bad requests,
			// malformed bodies and abandoned calls say nothing about it.
			var apiErr *Error
			if err == nil || !errors.As(err, &apiErr) {
				return err == nil
			}
			switch apiErr.Kind {
			case KindHTTP:
				return apiErr.Status < 500
			case KindDecode, KindCanceled:
				return true
			default:
				return false
			}
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("backend breaker transition")
			metrics.BreakerState.Set(breakerStateValue(to))
		},
	})
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Fetch retrieves the document behind key. The kind's policy bounds the call.
func (c *Client) Fetch(ctx context.Context, key scope.Key, params Params) (Snapshot, error) {
	if c == nil {
		return Snapshot{}, fmt.Errorf("client is nil")
	}
	rel, err := endpointFor(key, params)
	if err != nil {
		return Snapshot{}, err
	}
	body, err := c.call(ctx, http.MethodGet, rel, key.Policy().Timeout, string(key.Kind))
	if err != nil {
		return Snapshot{}, err
	}
	if !json.Valid(body) {
		return Snapshot{}, &Error{Kind: KindDecode, Op: "GET " + rel.Path, Err: fmt.Errorf("response is not valid JSON")}
	}
	return Snapshot{Key: key.String(), FetchedAt: c.now(), Body: body}, nil
}

// Invalidate asks the backend to drop its cache for kind. Kinds without a
// server-side cache are a no-op.
func (c *Client) Invalidate(ctx context.Context, kind scope.Kind) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var path string
	switch kind {
	case scope.Recordings:
		path = "recordings/cache-clear"
	case scope.Dashboard, scope.Weekly, scope.Personal:
		path = "cache-clear"
	default:
		return nil
	}
	_, err := c.call(ctx, http.MethodPost, &url.URL{Path: path}, invalidateTimeout, "invalidate")
	return err
}

// VideoStreamURL returns the transcoded stream URL of one recorded hour.
func (c *Client) VideoStreamURL(group, username, date, part string) string {
	return c.videoURL("recordings/stream-converted", group, username, date, part)
}

// VideoDirectURL returns the original file URL of one recorded hour.
func (c *Client) VideoDirectURL(group, username, date, part string) string {
	return c.videoURL("recordings/video-url", group, username, date, part)
}

func (c *Client) videoURL(path, group, username, date, part string) string {
	values := url.Values{}
	values.Set("group", group)
	values.Set("username", username)
	values.Set("date", date)
	values.Set("part", part)
	rel := &url.URL{Path: path, RawQuery: values.Encode()}
	return c.baseURL.ResolveReference(rel).String()
}

func endpointFor(key scope.Key, params Params) (*url.URL, error) {
	values := url.Values{}
	var path string
	switch key.Kind {
	case scope.Dashboard:
		path = "dashboard"
		if key.ID != "" {
			values.Set("date", key.ID)
		}
		if params.Force {
			values.Set("force", "true")
		}
	case scope.Weekly:
		path = "weekly-stats"
		if params.Force {
			values.Set("force", "true")
		}
	case scope.Personal:
		path = "personal-stats"
		values.Set("group", key.ID)
	case scope.Recordings:
		path = "recordings/team"
		values.Set("group", key.ID)
	case scope.Status:
		path = "status"
	case scope.Settings:
		path = "settings"
	case scope.CacheStats:
		path = "cache-stats"
	default:
		return nil, fmt.Errorf("unknown scope kind %q", key.Kind)
	}
	if key.Policy().RequiresID && key.ID == "" {
		return nil, fmt.Errorf("scope %s requires an id", key.Kind)
	}
	return &url.URL{Path: path, RawQuery: values.Encode()}, nil
}

func (c *Client) call(ctx context.Context, method string, rel *url.URL, timeout time.Duration, label string) ([]byte, error) {
	op := method + " " + rel.Path
	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, method, rel, timeout, op)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &Error{Kind: KindNetwork, Op: op, Err: fmt.Errorf("%w: %w", ErrBackendUnavailable, err)}
	}
	metrics.RecordFetch(label, time.Since(start), string(KindOf(err)))
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method string, rel *url.URL, timeout time.Duration, op string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(reqCtx, method, reqURL.String(), nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(ctx, reqCtx, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &Error{Kind: KindHTTP, Status: resp.StatusCode, Op: op}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classify(ctx, reqCtx, op, err)
	}
	return body, nil
}

// classify maps a transport error onto an ErrorKind. parent is the caller's
// context, reqCtx the one carrying the per-kind deadline.
func classify(parent, reqCtx context.Context, op string, err error) *Error {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return &Error{Kind: KindCanceled, Op: op, Err: err}
	case errors.Is(reqCtx.Err(), context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
