// Package http builds and dispatches LibCal API requests.
package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"golang.org/x/net/http/httpguts"

	"github.com/fivetwenty-io/libcal/internal/constants"
	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

// Static errors for err113 compliance.
var (
	ErrInvalidHeaderName  = errors.New("invalid header name")
	ErrInvalidHeaderValue = errors.New("invalid header value")
	ErrNoAuthorizer       = errors.New("request needs authorization but no authorizer is configured")
	ErrInvalidJSON        = errors.New("response body is not valid JSON")
)

// Authorizer supplies the Authorization header value for API requests.
type Authorizer interface {
	Authorization(ctx context.Context) (string, error)
}

// Client sends requests relative to a base URL.
type Client struct {
	baseURL    string
	authorizer Authorizer
	httpClient libcal.HTTPDoer
	userAgent  string
	logger     libcal.Logger
	debug      bool
	chain      *libcal.InterceptorChain

	timeout      time.Duration
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	rateLimit    float64
	metrics      *libcal.Metrics
	interceptors []libcal.RequestInterceptor
}

// Option configures the HTTP client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger libcal.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug logs every request and response.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithHTTPClient replaces the default transport. Retry and timeout options
// do not apply to a caller supplied transport.
func WithHTTPClient(doer libcal.HTTPDoer) Option {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithTimeout sets the per request timeout of the default transport.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRetryConfig enables retries on connection errors, 429 and 5xx
// responses. Requests are sent once by default.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.retryMax = retryMax

		if waitMin > 0 {
			c.retryWaitMin = waitMin
		}

		if waitMax > 0 {
			c.retryWaitMax = waitMax
		}
	}
}

// WithRateLimit throttles outgoing requests to rps per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.rateLimit = rps
	}
}

// WithMetrics records every round trip.
func WithMetrics(metrics *libcal.Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithInterceptors appends request interceptors after the built-in ones.
func WithInterceptors(interceptors ...libcal.RequestInterceptor) Option {
	return func(c *Client) {
		c.interceptors = append(c.interceptors, interceptors...)
	}
}

// NewClient creates a client for baseURL. authorizer may be nil for a
// client that only sends unauthenticated requests.
func NewClient(baseURL string, authorizer Authorizer, opts ...Option) *Client {
	client := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		authorizer:   authorizer,
		userAgent:    constants.DefaultUserAgent,
		logger:       libcal.NoOpLogger{},
		timeout:      constants.DefaultHTTPTimeout,
		retryMax:     constants.DefaultRetryMax,
		retryWaitMin: constants.DefaultRetryWaitMin,
		retryWaitMax: constants.DefaultRetryWaitMax,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		client.httpClient = client.newRetryableClient()
	}

	client.chain = client.newChain()

	return client
}

// BaseURL returns the URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRetryableClient() *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = c.retryMax
	retryClient.RetryWaitMin = c.retryWaitMin
	retryClient.RetryWaitMax = c.retryWaitMax
	retryClient.HTTPClient.Timeout = c.timeout
	retryClient.Logger = &leveledLogger{logger: c.logger}
	// Hand the final response back unchanged so its status and body reach
	// the dispatcher.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return retryClient.StandardClient()
}

func (c *Client) newChain() *libcal.InterceptorChain {
	chain := libcal.NewInterceptorChain()

	if c.rateLimit > 0 {
		chain.AddRequestInterceptor(libcal.RateLimitInterceptor(c.rateLimit, 1))
	}

	chain.AddRequestInterceptor(libcal.RequestIDInterceptor())
	chain.AddRequestInterceptor(libcal.MetricsRequestInterceptor())
	chain.AddResponseInterceptor(libcal.MetricsResponseInterceptor(c.metrics))

	if c.debug {
		chain.AddRequestInterceptor(libcal.LoggingInterceptor(c.logger))
		chain.AddResponseInterceptor(libcal.LoggingResponseInterceptor(c.logger))
	}

	for _, interceptor := range c.interceptors {
		chain.AddRequestInterceptor(interceptor)
	}

	return chain
}

// Get sends an authorized GET and returns the response body.
func (c *Client) Get(ctx context.Context, uri string) (string, error) {
	return c.Send(ctx, NewRequest(http.MethodGet, uri).Authorized())
}

// PostJSON sends an authorized POST with a JSON body.
func (c *Client) PostJSON(ctx context.Context, uri string, body []byte) (string, error) {
	return c.Send(ctx, NewRequest(http.MethodPost, uri).Authorized().WithJSON(body))
}

// PostForm sends an unauthenticated form POST.
func (c *Client) PostForm(ctx context.Context, uri string, values url.Values) (string, error) {
	return c.Send(ctx, NewRequest(http.MethodPost, uri).WithForm(values))
}

// Send dispatches req and returns the body of a 200 response. A 404 is a
// not found error, any other status a response error, and failures to send
// or read are transport errors.
func (c *Client) Send(ctx context.Context, req *Request) (string, error) {
	intercepted := &libcal.Request{
		Method:   req.Method,
		Path:     req.URI,
		Headers:  req.Headers.Clone(),
		Body:     req.Body,
		Metadata: make(map[string]interface{}),
	}

	if intercepted.Headers == nil {
		intercepted.Headers = make(http.Header)
	}

	err := c.chain.ExecuteRequestInterceptors(ctx, intercepted)
	if err != nil {
		return "", libcal.NewTransportError("HTTP request could not be sent", err)
	}

	httpReq, err := c.Build(ctx, req, intercepted.Headers)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.intercept(ctx, intercepted, &libcal.Response{Error: err})

		return "", libcal.NewTransportError("HTTP request could not be sent", err)
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.intercept(ctx, intercepted, &libcal.Response{StatusCode: resp.StatusCode, Headers: resp.Header, Error: err})

		return "", libcal.NewTransportError("HTTP response could not be read", err)
	}

	c.intercept(ctx, intercepted, &libcal.Response{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body})

	switch resp.StatusCode {
	case constants.HTTPStatusOK:
		return string(body), nil
	case constants.HTTPStatusNotFound:
		return "", libcal.NewNotFoundError()
	default:
		return "", responseError(resp.StatusCode, body)
	}
}

func (c *Client) intercept(ctx context.Context, req *libcal.Request, resp *libcal.Response) {
	// Response interceptors only observe; their failures must not mask the
	// outcome of the request.
	err := c.chain.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil {
		c.logger.Warn("Response interceptor failed", map[string]interface{}{"error": err.Error()})
	}
}

// responseError describes a failing status. The text is taken from an
// "errors" member (a list joined with "; " or a string) or an "error"
// string. A body that is not JSON keeps the bare message and chains
// ErrInvalidJSON; the error stays a response error only.
func responseError(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d response", statusCode)

	if !gjson.ValidBytes(body) {
		return libcal.NewResponseError(statusCode, message, ErrInvalidJSON)
	}

	text := errorText(gjson.ParseBytes(body))
	if text != "" {
		message += ": " + text
	}

	return libcal.NewResponseError(statusCode, message, nil)
}

func errorText(result gjson.Result) string {
	errs := result.Get("errors")

	switch {
	case errs.IsArray():
		var parts []string

		errs.ForEach(func(_, value gjson.Result) bool {
			parts = append(parts, value.String())

			return true
		})

		return strings.Join(parts, "; ")
	case errs.Type == gjson.String:
		return errs.String()
	}

	if single := result.Get("error"); single.Type == gjson.String {
		return single.String()
	}

	return ""
}

// Request describes one API call before it is turned into an
// *http.Request by Client.Build.
type Request struct {
	Method    string
	URI       string
	Authorize bool
	Headers   http.Header
	Body      []byte
}

// NewRequest creates a request for uri, a path relative to the API host.
func NewRequest(method, uri string) *Request {
	return &Request{
		Method:  method,
		URI:     uri,
		Headers: make(http.Header),
	}
}

// Authorized marks the request as needing an Authorization header.
func (r *Request) Authorized() *Request {
	r.Authorize = true

	return r
}

// WithJSON sets a JSON body.
func (r *Request) WithJSON(body []byte) *Request {
	r.Body = body
	r.Headers.Set("Content-Type", "application/json")

	return r
}

// WithForm sets a form encoded body.
func (r *Request) WithForm(values url.Values) *Request {
	r.Body = []byte(values.Encode())
	r.Headers.Set("Content-Type", "application/x-www-form-urlencoded")

	return r
}

// WithHeader sets a header.
func (r *Request) WithHeader(name, value string) *Request {
	r.Headers.Set(name, value)

	return r
}

// Build turns req into an *http.Request. headers, if non-nil, replace
// req.Headers. Authorization failures are returned unchanged; everything
// else is a transport error.
func (c *Client) Build(ctx context.Context, req *Request, headers http.Header) (*http.Request, error) {
	if headers == nil {
		headers = req.Headers.Clone()
	}

	if headers == nil {
		headers = make(http.Header)
	}

	if req.Authorize {
		if c.authorizer == nil {
			return nil, libcal.NewTransportError("HTTP request could not be created", ErrNoAuthorizer)
		}

		value, err := c.authorizer.Authorization(ctx)
		if err != nil {
			return nil, err
		}

		headers.Set("Authorization", value)
	}

	if headers.Get("User-Agent") == "" {
		headers.Set("User-Agent", c.userAgent)
	}

	headers.Set("Accept", "application/json")

	err := validateHeaders(headers)
	if err != nil {
		return nil, libcal.NewTransportError("HTTP request could not be created", err)
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.URL(req.URI), body)
	if err != nil {
		return nil, libcal.NewTransportError("HTTP request could not be created", err)
	}

	httpReq.Header = headers

	return httpReq, nil
}

// URL resolves uri against the base URL.
func (c *Client) URL(uri string) string {
	return c.baseURL + "/" + strings.TrimLeft(uri, "/")
}

func validateHeaders(headers http.Header) error {
	for name, values := range headers {
		if !httpguts.ValidHeaderFieldName(name) {
			return fmt.Errorf("%w: %q", ErrInvalidHeaderName, name)
		}

		for _, value := range values {
			if !httpguts.ValidHeaderFieldValue(value) {
				return fmt.Errorf("%w for %s", ErrInvalidHeaderValue, name)
			}
		}
	}

	return nil
}

// leveledLogger routes retryablehttp's logging to a libcal.Logger.
type leveledLogger struct {
	logger libcal.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, toFields(keysAndValues))
}

func toFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}

		if req, isReq := keysAndValues[i+1].(*http.Request); isReq {
			fields[key] = req.Method + " " + req.URL.Path

			continue
		}

		fields[key] = keysAndValues[i+1]
	}

	return fields
}
