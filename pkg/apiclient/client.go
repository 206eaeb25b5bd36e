// Package apiclient is the single chokepoint for outbound calls to the Q&A
// REST backend. It builds requests, injects the bearer credential supplied by
// a TokenSource, decodes responses and normalises failures into APIError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"semicolon/internal/util"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:8000/api/v1"

	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"

	instrumentationName = "semicolon/apiclient"
)

// TokenSource supplies the current bearer credential. An empty string means
// the request is sent without an Authorization header.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Client calls the backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	tracer     trace.Tracer
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is used
// as-is, without the request id and logging layers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTokenSource injects the session provider consulted on every request.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithTimeout sets the per-request timeout of the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithTransport wraps the current transport, e.g. to add tracing or test
// doubles. Wrappers apply in the order given.
func WithTransport(wrap func(http.RoundTripper) http.RoundTripper) Option {
	return func(c *Client) {
		if wrap == nil {
			return
		}
		next := c.httpClient.Transport
		if next == nil {
			next = http.DefaultTransport
		}
		c.httpClient.Transport = wrap(next)
	}
}

// New constructs a client for baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: util.WithRequestID(util.WithRequestLog("apiclient", http.DefaultTransport)),
		},
		tracer: otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// RequestOptions describes a single request.
type RequestOptions struct {
	Method string
	Header http.Header
	Body   io.Reader
	// Token overrides the TokenSource for this request when non-empty.
	Token string
	// Anonymous suppresses the Authorization header entirely.
	Anonymous bool
}

// Result is a decoded 2xx response.
type Result struct {
	Status      int
	ContentType string
	// Data is the JSON-decoded body, or the raw body as a string when the
	// response is not JSON.
	Data any
	Raw  []byte
}

// Request sends a request to endpoint (a path relative to the base URL).
// Transport failures are returned unmodified; non-2xx responses yield
// *APIError; bodies that cannot be decoded yield *DecodeError.
func (c *Client) Request(ctx context.Context, endpoint string, opts RequestOptions) (*Result, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	token := c.credential(opts)

	ctx, span := c.tracer.Start(ctx, "apiclient.request", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", endpoint),
		))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, opts.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	for key, values := range opts.Header {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	contentType := resp.Header.Get("Content-Type")
	data, err := decodeBody(contentType, raw)
	if err != nil {
		derr := &DecodeError{Status: resp.StatusCode, ContentType: contentType, Raw: raw, Err: err}
		span.SetStatus(codes.Error, derr.Error())
		return nil, derr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(data, resp.StatusCode),
			Body:    data,
			Raw:     raw,
		}
		span.SetStatus(codes.Error, apiErr.Message)
		return nil, apiErr
	}
	return &Result{Status: resp.StatusCode, ContentType: contentType, Data: data, Raw: raw}, nil
}

// Get sends a GET with params encoded as a query string in the given order.
func (c *Client) Get(ctx context.Context, endpoint string, params Params) (*Result, error) {
	if q := params.Encode(); q != "" {
		endpoint = endpoint + "?" + q
	}
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodGet})
}

// Post sends body as JSON.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (*Result, error) {
	return c.sendJSON(ctx, http.MethodPost, endpoint, body)
}

// Put sends body as JSON.
func (c *Client) Put(ctx context.Context, endpoint string, body any) (*Result, error) {
	return c.sendJSON(ctx, http.MethodPut, endpoint, body)
}

// Delete sends a DELETE without a body.
func (c *Client) Delete(ctx context.Context, endpoint string) (*Result, error) {
	return c.Request(ctx, endpoint, RequestOptions{Method: http.MethodDelete})
}

// PostForm sends fields form-url-encoded, in order. opts may set Token or
// Anonymous; its Method, Body and Content-Type are replaced.
func (c *Client) PostForm(ctx context.Context, endpoint string, fields Params, opts RequestOptions) (*Result, error) {
	header := opts.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Type", contentTypeForm)
	opts.Method = http.MethodPost
	opts.Header = header
	opts.Body = strings.NewReader(fields.Encode())
	return c.Request(ctx, endpoint, opts)
}

func (c *Client) sendJSON(ctx context.Context, method, endpoint string, body any) (*Result, error) {
	opts := RequestOptions{Method: method}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		opts.Body = bytes.NewReader(data)
	}
	return c.Request(ctx, endpoint, opts)
}

func (c *Client) credential(opts RequestOptions) string {
	if opts.Anonymous {
		return ""
	}
	if token := strings.TrimSpace(opts.Token); token != "" {
		return token
	}
	if c.tokens == nil {
		return ""
	}
	return strings.TrimSpace(c.tokens.Token())
}

func decodeBody(contentType string, raw []byte) (any, error) {
	if !isJSON(contentType) {
		return string(raw), nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), contentTypeJSON)
}
