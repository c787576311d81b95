package backend

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

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"mainichinihongo.app/web/internal/observability"
)

const (
	// DefaultTimeout bounds a single backend call.
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 1 << 16
)

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to the newsletter backend API and normalizes its failures into *Error.
type Client struct {
	base    *url.URL
	client  HTTPClient
	timeout time.Duration
	logger  *zap.Logger
}

// Option customises Client construction.
type Option func(*Client)

// WithHTTPClient overrides the transport used for requests.
func WithHTTPClient(c HTTPClient) Option {
	return func(cl *Client) {
		if c != nil {
			cl.client = c
		}
	}
}

// WithTimeout overrides the per-request timeout. Streaming calls are not bounded by it.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// WithLogger sets the fallback logger used when the request context carries none.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// NewClient constructs a Client for baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend: base URL is required")
	}
	parsed, err := url.Parse(baseURL + "/")
	if err != nil {
		return nil, fmt.Errorf("backend: parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("backend: base URL %q must be absolute", baseURL)
	}
	c := &Client{
		base:    parsed,
		client:  &http.Client{},
		timeout: DefaultTimeout,
		logger:  observability.NoopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.base.String(), "/")
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.execute(ctx, http.MethodGet, path, query, nil, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewMalformedError(fmt.Errorf("backend: decode %s: %w", path, err))
	}
	return nil
}

// PostJSON sends payload as JSON and returns the raw response body.
func (c *Client) PostJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("backend: encode payload: %w", err)
	}

	resp, err := c.execute(ctx, http.MethodPost, path, nil, &buf, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: MessageNetwork, Err: err}
	}
	return body, nil
}

// GetText issues a GET with the given Accept header and returns the body decoded to UTF-8
// according to the response charset.
func (c *Client) GetText(ctx context.Context, path string, accept string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.execute(ctx, http.MethodGet, path, nil, nil, accept)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if errors.Is(err, io.EOF) {
		return "", nil
	}
	if err != nil {
		return "", NewMalformedError(fmt.Errorf("backend: detect charset: %w", err))
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Message: MessageNetwork, Err: err}
	}
	return string(body), nil
}

// Stream issues a GET and hands the open body to the caller, who must close it.
// The request is bounded only by ctx.
func (c *Client) Stream(ctx context.Context, path string, query url.Values) (io.ReadCloser, string, error) {
	resp, err := c.execute(ctx, http.MethodGet, path, query, nil, "*/*")
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// execute sends the request and returns the response only for 2xx statuses.
func (c *Client) execute(ctx context.Context, method, path string, query url.Values, body io.Reader, accept string) (*http.Response, error) {
	route := routeLabel(path)
	ctx, span := observability.StartClientSpan(ctx, method, route)

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		observability.EndSpan(span, 0, err)
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	logger := observability.FromContext(ctx)
	if logger == observability.NoopLogger() {
		logger = c.logger
	}
	logger.Debug("backend request",
		zap.String("method", method),
		zap.String("url", req.URL.String()),
	)

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		observability.RecordBackend(method, route, string(KindNetwork), elapsed.Seconds())
		observability.EndSpan(span, 0, err)
		logger.Warn("backend request failed",
			zap.String("method", method),
			zap.String("url", req.URL.String()),
			zap.Duration("latency", elapsed),
			zap.Error(err),
		)
		return nil, &Error{Kind: KindNetwork, Message: MessageNetwork, Err: err}
	}

	logger.Info("backend response",
		zap.String("method", method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", elapsed),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		observability.RecordBackend(method, route, "ok", elapsed.Seconds())
		observability.EndSpan(span, resp.StatusCode, nil)
		return resp, nil
	}

	bErr := errorFromResponse(resp)
	observability.RecordBackend(method, route, string(bErr.Kind), elapsed.Seconds())
	observability.EndSpan(span, resp.StatusCode, bErr)
	return nil, bErr
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.resolve(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) resolve(path string) *url.URL {
	trimmed := strings.TrimPrefix(path, "/")
	return c.base.ResolveReference(&url.URL{Path: trimmed})
}

// errorFromResponse drains a non-2xx response into *Error and closes its body.
func errorFromResponse(resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()

	status := resp.StatusCode
	if status >= 500 {
		return &Error{Kind: KindServer, Status: status, Message: MessageServer}
	}
	return &Error{Kind: KindClient, Status: status, Message: clientMessage(body)}
}

// clientMessage extracts the server-supplied message from a 4xx body.
func clientMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return MessageGeneric
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
	}
	var text string
	if err := json.Unmarshal(body, &text); err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return MessageGeneric
	}
	return trimmed
}

// routeLabel collapses identifier-like path segments so metrics stay low-cardinality.
func routeLabel(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if seg != "" && isIdentifier(seg) {
			segments[i] = "{id}"
		}
	}
	return "/" + strings.Join(segments, "/")
}

func isIdentifier(seg string) bool {
	digits := 0
	for _, r := range seg {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-':
		default:
			return false
		}
	}
	return digits > 0
}
