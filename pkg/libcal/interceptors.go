package libcal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Request is a transport-ready request, built fresh for every call.
type Request struct {
	Method   string
	Path     string
	Headers  http.Header
	Body     []byte
	Metadata map[string]interface{}
}

// Response is a received response. Error is set when no response arrived.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

// Metadata keys set by the built-in interceptors.
const (
	MetadataRequestID = "request_id"
	MetadataStartTime = "start_time"
)

// RequestInterceptor may edit headers and metadata before dispatch. An
// error stops the request with a transport error.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor observes the outcome of a request.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) error

// InterceptorChain runs interceptors in the order they were added.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain returns an empty chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{
		requestInterceptors:  make([]RequestInterceptor, 0),
		responseInterceptors: make([]ResponseInterceptor, 0),
	}
}

// AddRequestInterceptor appends interceptor to the request chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)
}

// AddResponseInterceptor appends interceptor to the response chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)
}

// ExecuteRequestInterceptors stops at the first failing interceptor.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	for _, interceptor := range c.requestInterceptors {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors stops at the first failing interceptor.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response) error {
	for _, interceptor := range c.responseInterceptors {
		err := interceptor(ctx, req, resp)
		if err != nil {
			return fmt.Errorf("response interceptor failed: %w", err)
		}
	}

	return nil
}

// RequestIDInterceptor tags each request with a fresh X-Request-ID.
func RequestIDInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		id := uuid.NewString()

		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		req.Headers.Set("X-Request-ID", id)
		req.Metadata[MetadataRequestID] = id

		return nil
	}
}

// LoggingInterceptor logs requests.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		logger.Debug("HTTP Request", map[string]interface{}{
			"method":     req.Method,
			"path":       req.Path,
			"request_id": req.Metadata[MetadataRequestID],
		})

		return nil
	}
}

// LoggingResponseInterceptor logs the status, or the failure when no response arrived.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		fields := map[string]interface{}{
			"method":      req.Method,
			"path":        req.Path,
			"status_code": resp.StatusCode,
			"request_id":  req.Metadata[MetadataRequestID],
		}

		if resp.Error != nil {
			fields["error"] = resp.Error.Error()
			logger.Error("HTTP Response Error", fields)
		} else {
			logger.Debug("HTTP Response", fields)
		}

		return nil
	}
}

// HeaderInterceptor sets fixed headers on every request.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		for key, value := range headers {
			req.Headers.Set(key, value)
		}

		return nil
	}
}

// RateLimitInterceptor delays requests to at most requestsPerSecond, with
// bursts of up to burst requests. It returns ctx.Err() if ctx ends first.
func RateLimitInterceptor(requestsPerSecond float64, burst int) RequestInterceptor {
	if burst < 1 {
		burst = 1
	}

	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)

	return func(ctx context.Context, req *Request) error {
		return limiter.Wait(ctx)
	}
}

// MetricsRequestInterceptor stamps the start time read by MetricsResponseInterceptor.
func MetricsRequestInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		req.Metadata[MetadataStartTime] = time.Now()

		return nil
	}
}

// MetricsResponseInterceptor records the round trip in metrics.
func MetricsResponseInterceptor(metrics *Metrics) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		var elapsed time.Duration

		if start, ok := req.Metadata[MetadataStartTime].(time.Time); ok {
			elapsed = time.Since(start)
		}

		metrics.ObserveRequest(req.Method, resp.StatusCode, elapsed)

		return nil
	}
}
