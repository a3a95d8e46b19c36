// Package http provides a fluent, retry-aware HTTP client for the inventory API.
//
// Usage:
//
//	api := http.NewClient(config.APIBaseURL(), config.APIToken())
//
//	var page models.ProductPage
//	resp, err := api.Get("/product/list/").Query("page", "1").WithContext(ctx).Send()
//	if err == nil {
//	    err = resp.Throw()
//	}
//
//	// Path arguments are formatted into the template; metrics are labelled
//	// with the template so ids do not explode cardinality.
//	resp, err := api.Post("/product/variant-list/%d/", productID).Body(mutation).Send()
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	gohttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shashiranjanraj/stockdesk/pkg/logger"
	"github.com/shashiranjanraj/stockdesk/pkg/metrics"
	"github.com/shashiranjanraj/stockdesk/pkg/reqid"
)

// defaultTransport is the connection-pooled transport used in production.
var defaultTransport = &gohttp.Transport{
	MaxIdleConns:        50,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     90 * time.Second,
}

// DefaultClient is the shared transport holder for every Client built with
// NewClient. Tests swap its Transport to intercept calls:
//
//	http.DefaultClient.Transport = mock
//	defer http.ResetTransport()
var DefaultClient = &gohttp.Client{
	Transport: defaultTransport,
}

// ResetTransport restores the production transport on DefaultClient.
func ResetTransport() {
	DefaultClient.Transport = defaultTransport
}

// ------------------- Client -------------------

// Client binds requests to one API base URL and bearer token.
type Client struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
	HTTP      *gohttp.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Token:     token,
		Timeout:   30 * time.Second,
		Retries:   1,
		RetryWait: 500 * time.Millisecond,
	}
}

func (c *Client) Get(path string, args ...any) *Request {
	return c.newRequest(gohttp.MethodGet, path, args)
}

func (c *Client) Post(path string, args ...any) *Request {
	return c.newRequest(gohttp.MethodPost, path, args)
}

func (c *Client) Put(path string, args ...any) *Request {
	return c.newRequest(gohttp.MethodPut, path, args)
}

func (c *Client) Delete(path string, args ...any) *Request {
	return c.newRequest(gohttp.MethodDelete, path, args)
}

func (c *Client) newRequest(method, path string, args []any) *Request {
	full := path
	if len(args) > 0 {
		full = fmt.Sprintf(path, args...)
	}
	r := &Request{
		client:    c,
		method:    method,
		url:       c.BaseURL + full,
		endpoint:  path,
		query:     url.Values{},
		headers:   map[string]string{"Accept": "application/json"},
		timeout:   c.Timeout,
		retries:   c.Retries,
		retryWait: c.RetryWait,
		ctx:       context.Background(),
	}
	if c.Token != "" {
		r.Bearer(c.Token)
	}
	return r
}

func (c *Client) httpClient() *gohttp.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return DefaultClient
}

// ------------------- Request -------------------

// Request is a fluent HTTP request builder.
type Request struct {
	client    *Client
	method    string
	url       string
	endpoint  string
	query     url.Values
	headers   map[string]string
	body      interface{}
	form      *Form
	timeout   time.Duration
	retries   int
	retryWait time.Duration
	ctx       context.Context
}

// Header adds a single header to the request.
func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

// Bearer sets the Authorization: Bearer <token> header.
func (r *Request) Bearer(token string) *Request {
	return r.Header("Authorization", "Bearer "+token)
}

// Query adds a query parameter. Empty values are skipped.
func (r *Request) Query(key, value string) *Request {
	if value != "" {
		r.query.Add(key, value)
	}
	return r
}

// Body sets a JSON request body. Pass a string or []byte to send raw bodies.
func (r *Request) Body(v interface{}) *Request {
	r.body = v
	r.form = nil
	return r
}

// Multipart sends f as multipart/form-data. The form is re-encoded on every
// attempt, so file openers must be repeatable.
func (r *Request) Multipart(f *Form) *Request {
	r.form = f
	r.body = nil
	return r
}

// Timeout sets the per-attempt timeout.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Retry configures automatic retries on transport failure.
// n is total attempts (1 = no retry), wait is the initial backoff (doubles each attempt).
func (r *Request) Retry(n int, wait time.Duration) *Request {
	r.retries = n
	r.retryWait = wait
	return r
}

// WithContext sets the request context. Cancelling it aborts the in-flight
// attempt and any pending retry.
func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

// URL returns the full request URL including the encoded query.
func (r *Request) URL() string {
	if len(r.query) == 0 {
		return r.url
	}
	return r.url + "?" + r.query.Encode()
}

// ------------------- Send -------------------

// Send executes the request. Only transport failures are retried; any HTTP
// status is returned as a Response for the caller to inspect or Throw.
func (r *Request) Send() (*Response, error) {
	var lastErr error
	attempts := r.retries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := r.do()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if r.ctx.Err() != nil {
			break
		}
		if attempt < attempts {
			backoff := time.Duration(float64(r.retryWait) * math.Pow(2, float64(attempt-1)))
			logger.WithCtx(r.ctx).Warn("http: request failed, retrying",
				"url", r.url, "attempt", attempt, "backoff", backoff, "error", err)
			select {
			case <-time.After(backoff):
			case <-r.ctx.Done():
				return nil, fmt.Errorf("http: %s %s: %w", r.method, r.url, r.ctx.Err())
			}
		}
	}

	return nil, fmt.Errorf("http: all %d attempts failed for %s %s: %w", attempts, r.method, r.url, lastErr)
}

func (r *Request) do() (*Response, error) {
	body, ct, err := r.buildBody()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	req, err := gohttp.NewRequestWithContext(ctx, r.method, r.URL(), body)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	if id := reqid.FromCtx(r.ctx); id != "" && req.Header.Get(reqid.Header) == "" {
		req.Header.Set(reqid.Header, id)
	}

	start := time.Now()
	resp, err := r.client.httpClient().Do(req)
	if err != nil {
		metrics.ObserveAPI(r.method, r.endpoint, 0, start)
		return nil, fmt.Errorf("http: send: %w", err)
	}

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	metrics.ObserveAPI(r.method, r.endpoint, resp.StatusCode, start)
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}

	logger.WithCtx(r.ctx).Debug("http: api call",
		"method", r.method, "endpoint", r.endpoint, "status", resp.StatusCode, "duration", time.Since(start))

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Raw:        raw,
		method:     r.method,
		url:        r.url,
	}, nil
}

func (r *Request) buildBody() (io.Reader, string, error) {
	if r.form != nil {
		return r.form.encode()
	}
	if r.body == nil {
		return nil, "", nil
	}
	switch v := r.body.(type) {
	case string:
		return bytes.NewBufferString(v), "text/plain", nil
	case []byte:
		return bytes.NewReader(v), "application/octet-stream", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("http: marshal body: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	}
}

// ------------------- Response -------------------

// Response wraps the HTTP response with convenience methods.
type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
	method     string
	url        string
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON unmarshals the response body into dest.
func (r *Response) JSON(dest interface{}) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

// Text returns the response body as a string.
func (r *Response) Text() string {
	return string(r.Raw)
}

// Header returns a single response header value.
func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

// StatusError is returned by Throw for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http: %s %s failed with status %d: %s", e.Method, e.URL, e.StatusCode, truncate(e.Body, 256))
}

// Throw returns a *StatusError if the response status is not 2xx.
func (r *Response) Throw() error {
	if !r.OK() {
		return &StatusError{Method: r.method, URL: r.url, StatusCode: r.StatusCode, Body: r.Raw}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
