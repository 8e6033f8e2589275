// Package httpclient implements the envelope-aware request client shared by
// every surface: header injection, correlation ids, idempotency keys,
// response classification, session invalidation on auth failure, and
// last-event diagnostics. It performs no retries; callers own retry policy.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/healthmall/client-core/internal/core/domain"
	"github.com/healthmall/client-core/internal/core/ports"
	"github.com/healthmall/client-core/internal/infrastructure/diag"
	"github.com/healthmall/client-core/internal/metrics"
	"github.com/healthmall/client-core/pkg/envelope"
	"github.com/healthmall/client-core/pkg/idempotency"
)

const (
	defaultTimeout             = 15 * time.Second
	defaultRedirectDelay       = 1500 * time.Millisecond
	defaultSilentRedirectDelay = 100 * time.Millisecond

	headerRequestID      = "X-Request-Id"
	headerIdempotencyKey = "Idempotency-Key"
)

// Config captures the per-surface settings of the client.
type Config struct {
	// BaseURL is the API origin, without a trailing slash. Empty means the
	// client is not configured and every request fails with ErrNotConfigured.
	BaseURL string
	// Timeout bounds each network wait. Defaults to 15s.
	Timeout time.Duration
	// RequestIDPrefix tags generated correlation ids (e.g. "mp", "admin").
	RequestIDPrefix string
	// IdempotencyPrefix qualifies generated idempotency keys.
	IdempotencyPrefix string
	// SignInTarget is where an authentication failure redirects to.
	SignInTarget string
	// RedirectDelay leaves the sign-in toast visible before redirecting.
	// SilentRedirectDelay applies when the request was silent.
	RedirectDelay       time.Duration
	SilentRedirectDelay time.Duration
}

// Deps are the collaborators of the client. Nil Notifier, Navigator and
// Recorder are replaced by no-ops.
type Deps struct {
	Creds     ports.CredentialSource
	Notifier  ports.Notifier
	Navigator ports.Navigator
	Recorder  *diag.Recorder
	HTTP      *http.Client
	Log       zerolog.Logger
}

// Client is the concrete ports.APIClient.
type Client struct {
	cfg      Config
	creds    ports.CredentialSource
	notifier ports.Notifier
	nav      ports.Navigator
	recorder *diag.Recorder
	http     *http.Client
	log      zerolog.Logger
}

var _ ports.APIClient = (*Client)(nil)

// NormalizeBaseURL trims whitespace and a trailing slash, falling back when
// the raw value is empty.
func NormalizeBaseURL(raw, fallback string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		v = fallback
	}
	return strings.TrimSuffix(v, "/")
}

// New builds a Client. The zero values of cfg pick sane defaults.
func New(cfg Config, deps Deps) *Client {
	cfg.BaseURL = NormalizeBaseURL(cfg.BaseURL, "")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RedirectDelay <= 0 {
		cfg.RedirectDelay = defaultRedirectDelay
	}
	if cfg.SilentRedirectDelay <= 0 {
		cfg.SilentRedirectDelay = defaultSilentRedirectDelay
	}

	httpc := deps.HTTP
	if httpc == nil {
		httpc = &http.Client{}
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	nav := deps.Navigator
	if nav == nil {
		nav = nopNavigator{}
	}
	creds := deps.Creds
	if creds == nil {
		creds = nopCreds{}
	}

	return &Client{
		cfg:      cfg,
		creds:    creds,
		notifier: notifier,
		nav:      nav,
		recorder: deps.Recorder,
		http:     httpc,
		log:      deps.Log,
	}
}

// Get issues a GET request. GET never carries an idempotency key.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any, opts *ports.RequestOptions) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, opts)
}

// Post issues a POST with a JSON body and a fresh idempotency key.
func (c *Client) Post(ctx context.Context, path string, body any, out any, opts *ports.RequestOptions) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out, opts)
}

// Put issues a PUT with a JSON body and a fresh idempotency key.
func (c *Client) Put(ctx context.Context, path string, body any, out any, opts *ports.RequestOptions) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out, opts)
}

// Delete issues a DELETE, optionally with a JSON body.
func (c *Client) Delete(ctx context.Context, path string, body any, out any, opts *ports.RequestOptions) error {
	return c.do(ctx, http.MethodDelete, path, nil, body, out, opts)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any, opts *ports.RequestOptions) error {
	if opts == nil {
		opts = &ports.RequestOptions{}
	}

	var reader io.Reader
	contentType := "application/json"
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("httpclient: encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	return c.dispatch(ctx, method, method, path, query, reader, contentType, out, opts)
}

// dispatch is the single path every request takes: one URL builder, one
// timeout wrapper, one header set, one classification of the outcome.
// label names the attempt in diagnostics/metrics ("UPLOAD" differs from the
// underlying POST).
func (c *Client) dispatch(ctx context.Context, label, method, path string, query url.Values, body io.Reader, contentType string, out any, opts *ports.RequestOptions) error {
	if c.cfg.BaseURL == "" && !strings.HasPrefix(path, "http") {
		if !opts.Silent {
			c.notifier.Modal("API base URL is not configured")
		}
		return domain.ErrNotConfigured
	}

	fullURL := path
	if !strings.HasPrefix(path, "http") {
		fullURL = c.cfg.BaseURL + path
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(fullURL, "?") {
			sep = "&"
		}
		fullURL += sep + query.Encode()
	}

	requestID := opts.RequestID
	if requestID == "" {
		requestID = idempotency.NewRequestID(c.cfg.RequestIDPrefix)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("httpclient: build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set(headerRequestID, requestID)
	if mutating(method) {
		key := opts.IdempotencyKey
		if key == "" {
			key = idempotency.NewKey(c.cfg.IdempotencyPrefix)
		}
		req.Header.Set(headerIdempotencyKey, key)
	}
	if !opts.NoAuth {
		if tok := c.creds.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	// Caller headers win over the standard set.
	for k, vs := range opts.Headers {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return c.networkFailure(label, fullURL, requestID, start, err, opts)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.networkFailure(label, fullURL, requestID, start, err, opts)
	}

	return c.classify(label, fullURL, requestID, start, resp.StatusCode, raw, out, opts)
}

func (c *Client) classify(label, fullURL, requestID string, start time.Time, status int, raw []byte, out any, opts *ports.RequestOptions) error {
	duration := time.Since(start)
	res := envelope.Decode(status, raw)

	switch {
	case res.Kind == envelope.KindOK:
		c.observe(label, "ok", duration)
		c.record(domain.APIEvent{
			OK: true, At: time.Now(), Method: label, URL: fullURL,
			StatusCode: status, DurationMs: duration.Milliseconds(),
			RequestID: requestID, ResponseRequestID: res.RequestID,
		})
		if out != nil && !res.IsNull() {
			if err := json.Unmarshal(res.Data, out); err != nil {
				return fmt.Errorf("httpclient: decode data: %w", err)
			}
		}
		return nil

	case res.Code == domain.CodeUnauthenticated || status == http.StatusUnauthorized:
		return c.authFailure(label, fullURL, requestID, status, duration, res, opts)

	case res.Kind == envelope.KindBusinessError:
		c.observe(label, "business_error", duration)
		c.record(domain.APIEvent{
			OK: false, At: time.Now(), Method: label, URL: fullURL,
			StatusCode: status, DurationMs: duration.Milliseconds(),
			Code: res.Code, Message: res.Message,
			RequestID: requestID, ResponseRequestID: res.RequestID,
		})
		if !opts.Silent {
			c.notifier.Toast(res.Message)
		}
		return &domain.APIError{
			Code: res.Code, Message: res.Message, Status: status,
			RequestID: requestID, ResponseRequestID: res.RequestID,
		}

	default:
		msg := res.Detail
		c.observe(label, "network_error", duration)
		c.record(domain.APIEvent{
			OK: false, At: time.Now(), Method: label, URL: fullURL,
			StatusCode: status, DurationMs: duration.Milliseconds(),
			Code: domain.CodeNetworkError, Message: msg,
			RequestID: requestID,
		})
		if !opts.Silent {
			c.notifier.Toast(msg)
		}
		return &domain.APIError{
			Code: domain.CodeNetworkError, Message: msg, Status: status,
			RequestID: requestID,
		}
	}
}

// authFailure is the one place the session is invalidated from. The
// invalidation is global regardless of which caller issued the request.
func (c *Client) authFailure(label, fullURL, requestID string, status int, duration time.Duration, res envelope.Result, opts *ports.RequestOptions) error {
	c.creds.Clear()
	metrics.AuthFailuresTotal.Inc()
	c.observe(label, "auth_error", duration)

	msg := res.Message
	if msg == "" {
		msg = "please sign in again"
	}
	c.record(domain.APIEvent{
		OK: false, At: time.Now(), Method: label, URL: fullURL,
		StatusCode: status, DurationMs: duration.Milliseconds(),
		Code: domain.CodeUnauthenticated, Message: msg,
		RequestID: requestID, ResponseRequestID: res.RequestID,
	})

	delay := c.cfg.RedirectDelay
	if opts.Silent {
		delay = c.cfg.SilentRedirectDelay
	} else {
		c.notifier.Toast("please sign in again")
	}
	if c.cfg.SignInTarget != "" {
		c.nav.ScheduleRedirect(c.cfg.SignInTarget, delay)
	}

	return &domain.APIError{
		Code: domain.CodeUnauthenticated, Message: msg, Status: status,
		RequestID: requestID, ResponseRequestID: res.RequestID,
	}
}

func (c *Client) networkFailure(label, fullURL, requestID string, start time.Time, err error, opts *ports.RequestOptions) error {
	duration := time.Since(start)
	msg := networkMessage(err)

	c.observe(label, "network_error", duration)
	c.record(domain.APIEvent{
		OK: false, At: time.Now(), Method: label, URL: fullURL,
		StatusCode: 0, DurationMs: duration.Milliseconds(),
		Code: domain.CodeNetworkError, Message: msg,
		RequestID: requestID,
	})
	if !opts.Silent {
		c.notifier.Toast(msg)
	}
	c.log.Debug().Err(err).Str("url", fullURL).Str("requestId", requestID).Msg("network failure")

	return &domain.APIError{Code: domain.CodeNetworkError, Message: msg, RequestID: requestID}
}

func (c *Client) observe(label, outcome string, duration time.Duration) {
	metrics.RequestsTotal.WithLabelValues(label, outcome).Inc()
	metrics.RequestDuration.WithLabelValues(label).Observe(duration.Seconds())
}

func (c *Client) record(evt domain.APIEvent) {
	if c.recorder != nil {
		c.recorder.Record(evt)
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

type nopNotifier struct{}

func (nopNotifier) Toast(string) {}
func (nopNotifier) Modal(string) {}

type nopNavigator struct{}

func (nopNavigator) ScheduleRedirect(string, time.Duration) {}

type nopCreds struct{}

func (nopCreds) Token() string { return "" }
func (nopCreds) Clear()        {}
