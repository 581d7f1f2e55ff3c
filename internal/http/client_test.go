package http_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	libcalhttp "github.com/fivetwenty-io/libcal/internal/http"
	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

var errTokenUnavailable = errors.New("token unavailable")

// MockAuthorizer for testing.
type MockAuthorizer struct {
	value string
	err   error
	calls atomic.Int32
}

func (m *MockAuthorizer) Authorization(ctx context.Context) (string, error) {
	m.calls.Add(1)

	return m.value, m.err
}

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) add(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.add("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.add("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.add("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.add("error", msg, fields) }

func (l *MockLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.logs))
	for _, entry := range l.logs {
		out = append(out, entry["msg"].(string))
	}

	return out
}

type failingDoer struct{}

func (failingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

type brokenBody struct{}

func (brokenBody) Read([]byte) (int, error) { return 0, errors.New("connection reset") }
func (brokenBody) Close() error             { return nil }

type brokenBodyDoer struct{}

func (brokenBodyDoer) Do(*http.Request) (*http.Response, error) {
	return &http.Response{StatusCode: http.StatusOK, Body: brokenBody{}, Header: make(http.Header)}, nil
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Send(t *testing.T) {
	t.Parallel()

	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/1.1/space/locations", request.URL.Path)
			assert.Equal(t, "details=1", request.URL.RawQuery)
			assert.Equal(t, http.MethodGet, request.Method)
			assert.Equal(t, "Bearer test-token", request.Header.Get("Authorization"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))
			assert.NotEmpty(t, request.Header.Get("X-Request-ID"))
			assert.Contains(t, request.Header.Get("User-Agent"), "libcal-go/")

			_, _ = io.WriteString(writer, `[{"lid":1,"name":"Main"}]`)
		}))
		defer server.Close()

		authorizer := &MockAuthorizer{value: "Bearer test-token"}
		client := libcalhttp.NewClient(server.URL, authorizer)

		body, err := client.Get(context.Background(), "/1.1/space/locations?details=1")
		require.NoError(t, err)
		assert.JSONEq(t, `[{"lid":1,"name":"Main"}]`, body)
		assert.Equal(t, int32(1), authorizer.calls.Load())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(writer, `{"error":"missing"}`)
		}))
		defer server.Close()

		client := libcalhttp.NewClient(server.URL, &MockAuthorizer{value: "Bearer t"})

		_, err := client.Get(context.Background(), "1.1/space/item/99")
		require.ErrorIs(t, err, libcal.ErrNotFound)
		assert.False(t, libcal.IsResponse(err))
	})

	t.Run("error responses", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name        string
			status      int
			body        string
			message     string
			invalidJSON bool
		}{
			{name: "errors list", status: 400, body: `{"errors":["bad date","bad lid"]}`, message: "HTTP 400 response: bad date; bad lid"},
			{name: "errors string", status: 403, body: `{"errors":"forbidden"}`, message: "HTTP 403 response: forbidden"},
			{name: "error string", status: 401, body: `{"error":"invalid_client"}`, message: "HTTP 401 response: invalid_client"},
			{name: "no text", status: 500, body: `{"status":"down"}`, message: "HTTP 500 response"},
			{name: "invalid body", status: 502, body: `<html>bad gateway</html>`, message: "HTTP 502 response", invalidJSON: true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
					writer.WriteHeader(tt.status)
					_, _ = io.WriteString(writer, tt.body)
				}))
				defer server.Close()

				client := libcalhttp.NewClient(server.URL, &MockAuthorizer{value: "Bearer t"})

				_, err := client.Get(context.Background(), "/1.1/space/locations")
				require.ErrorIs(t, err, libcal.ErrResponse)

				var libcalErr *libcal.Error
				require.ErrorAs(t, err, &libcalErr)
				assert.Equal(t, tt.message, libcalErr.Message)
				assert.Equal(t, tt.status, libcalErr.StatusCode)
				assert.Equal(t, tt.invalidJSON, errors.Is(err, libcalhttp.ErrInvalidJSON))
				assert.False(t, libcal.IsDecode(err))
			})
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		t.Parallel()

		client := libcalhttp.NewClient("https://example.libcal.com", nil, libcalhttp.WithHTTPClient(failingDoer{}))

		_, err := client.PostForm(context.Background(), "1.1/oauth/token", url.Values{"a": {"b"}})
		require.ErrorIs(t, err, libcal.ErrTransport)
		assert.Contains(t, err.Error(), "HTTP request could not be sent")
	})

	t.Run("unreadable body", func(t *testing.T) {
		t.Parallel()

		client := libcalhttp.NewClient("https://example.libcal.com", nil, libcalhttp.WithHTTPClient(brokenBodyDoer{}))

		_, err := client.PostForm(context.Background(), "1.1/oauth/token", url.Values{})
		require.ErrorIs(t, err, libcal.ErrTransport)
		assert.Contains(t, err.Error(), "HTTP response could not be read")
	})

	t.Run("authorization failure is returned unchanged", func(t *testing.T) {
		t.Parallel()

		tokenErr := libcal.NewResponseError(401, "HTTP 401 response", errTokenUnavailable)
		client := libcalhttp.NewClient("https://example.libcal.com", &MockAuthorizer{err: tokenErr},
			libcalhttp.WithHTTPClient(failingDoer{}))

		_, err := client.Get(context.Background(), "1.1/space/locations")
		assert.Same(t, tokenErr, err)
	})

	t.Run("missing authorizer", func(t *testing.T) {
		t.Parallel()

		client := libcalhttp.NewClient("https://example.libcal.com", nil, libcalhttp.WithHTTPClient(failingDoer{}))

		_, err := client.Get(context.Background(), "1.1/space/locations")
		require.ErrorIs(t, err, libcal.ErrTransport)
		require.ErrorIs(t, err, libcalhttp.ErrNoAuthorizer)
	})

	t.Run("invalid header value", func(t *testing.T) {
		t.Parallel()

		client := libcalhttp.NewClient("https://example.libcal.com", &MockAuthorizer{value: "Bearer a\r\nX-Injected: 1"},
			libcalhttp.WithHTTPClient(failingDoer{}))

		_, err := client.Get(context.Background(), "1.1/space/locations")
		require.ErrorIs(t, err, libcal.ErrTransport)
		require.ErrorIs(t, err, libcalhttp.ErrInvalidHeaderValue)
		assert.Contains(t, err.Error(), "HTTP request could not be created")
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			_, _ = io.WriteString(writer, `[]`)
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := libcalhttp.NewClient(server.URL, &MockAuthorizer{value: "Bearer t"},
			libcalhttp.WithLogger(logger), libcalhttp.WithDebug(true))

		_, err := client.Get(context.Background(), "/1.1/space/locations")
		require.NoError(t, err)

		messages := logger.messages()
		assert.Contains(t, messages, "HTTP Request")
		assert.Contains(t, messages, "HTTP Response")
	})
}

func TestClient_Bodies(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			body, _ := io.ReadAll(request.Body)
			assert.JSONEq(t, `{"fname":"Ada"}`, string(body))

			_, _ = io.WriteString(writer, `{"booking_id":"cs_1"}`)
		}))
		defer server.Close()

		client := libcalhttp.NewClient(server.URL, &MockAuthorizer{value: "Bearer t"})

		body, err := client.PostJSON(context.Background(), "1.1/space/reserve", []byte(`{"fname":"Ada"}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"booking_id":"cs_1"}`, body)
	})

	t.Run("form", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/1.1/oauth/token", request.URL.Path)
			assert.Equal(t, "application/x-www-form-urlencoded", request.Header.Get("Content-Type"))
			assert.Empty(t, request.Header.Get("Authorization"))
			assert.NoError(t, request.ParseForm())
			assert.Equal(t, "client_credentials", request.PostForm.Get("grant_type"))

			_, _ = io.WriteString(writer, `{}`)
		}))
		defer server.Close()

		client := libcalhttp.NewClient(server.URL+"/", nil)

		_, err := client.PostForm(context.Background(), "/1.1/oauth/token", url.Values{"grant_type": {"client_credentials"}})
		require.NoError(t, err)
	})
}

func TestClient_URL(t *testing.T) {
	t.Parallel()

	client := libcalhttp.NewClient("https://example.libcal.com/", nil)

	assert.Equal(t, "https://example.libcal.com/1.1/space/locations", client.URL("/1.1/space/locations"))
	assert.Equal(t, "https://example.libcal.com/1.1/space/locations", client.URL("1.1/space/locations"))
	assert.Equal(t, "https://example.libcal.com/api/1.1/space/zones/3", client.URL("//api/1.1/space/zones/3"))
}

func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()

	t.Run("no retries by default", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(writer, `{"error":"maintenance"}`)
		}))
		defer server.Close()

		client := libcalhttp.NewClient(server.URL, &MockAuthorizer{value: "Bearer t"})

		_, err := client.Get(context.Background(), "/test")
		require.ErrorIs(t, err, libcal.ErrResponse)
		assert.Contains(t, err.Error(), "HTTP 503 response: maintenance")
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("retries on 5xx errors when configured", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 3 {
				writer.WriteHeader(http.StatusInternalServerError)

				return
			}

			_, _ = io.WriteString(writer, `[]`)
		}))
		defer server.Close()

		client := libcalhttp.NewClient(server.URL, &MockAuthorizer{value: "Bearer t"},
			libcalhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		body, err := client.Get(context.Background(), "/test")
		require.NoError(t, err)
		assert.Equal(t, "[]", body)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("does not retry on client errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := libcalhttp.NewClient(server.URL, &MockAuthorizer{value: "Bearer t"},
			libcalhttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		_, err := client.Get(context.Background(), "/test")
		require.ErrorIs(t, err, libcal.ErrResponse)
		assert.Equal(t, int32(1), attempts.Load())
	})
}

func TestClient_Metrics(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = io.WriteString(writer, `[]`)
	}))
	defer server.Close()

	metrics, err := libcal.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	client := libcalhttp.NewClient(server.URL, &MockAuthorizer{value: "Bearer t"}, libcalhttp.WithMetrics(metrics))

	for range 2 {
		_, err = client.Get(context.Background(), "/test")
		require.NoError(t, err)
	}

	assert.InDelta(t, 2, testutil.ToFloat64(metrics.Requests().WithLabelValues("GET", "200")), 0)
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	t.Parallel()

	client := libcalhttp.NewClient("https://example.libcal.com", nil,
		libcalhttp.WithRateLimit(0.001), libcalhttp.WithHTTPClient(brokenBodyDoer{}))

	// The first request spends the single burst token.
	_, _ = client.PostForm(context.Background(), "a", url.Values{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.PostForm(ctx, "a", url.Values{})
	require.ErrorIs(t, err, libcal.ErrTransport)
}
