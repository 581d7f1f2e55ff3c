package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config *libcal.Config
		want   error
	}{
		{name: "nil config", config: nil, want: libcal.ErrConfigRequired},
		{name: "no host", config: &libcal.Config{ClientID: "a", ClientSecret: "b"}, want: libcal.ErrHostRequired},
		{name: "no client id", config: &libcal.Config{Host: "x.libcal.com", ClientSecret: "b"}, want: libcal.ErrClientIDRequired},
		{name: "no secret", config: &libcal.Config{Host: "x.libcal.com", ClientID: "a"}, want: libcal.ErrClientSecretRequired},
		{
			name: "unsupported cache",
			config: &libcal.Config{
				Host: "x.libcal.com", ClientID: "a", ClientSecret: "b",
				Cache: &libcal.CacheConfig{Type: "redis"},
			},
			want: libcal.ErrUnsupportedCacheType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, err := New(context.Background(), tt.config)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, client)
		})
	}
}

func TestBaseURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.libcal.com", BaseURL("example.libcal.com"))
	assert.Equal(t, "https://example.libcal.com", BaseURL(" example.libcal.com/ "))
	assert.Equal(t, "http://127.0.0.1:8080", BaseURL("http://127.0.0.1:8080/"))
	assert.Equal(t, "https://example.libcal.com", BaseURL("https://example.libcal.com"))
}

func TestClient_Token(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, respond(t, http.MethodGet, "/", http.StatusOK, ""))
	client := NewTestClient(t, server.URL)

	credential, err := client.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-token", credential.AccessToken)
	assert.Equal(t, "Bearer", credential.TokenType)

	_, err = client.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), server.tokenCalls.Load())

	_, err = client.RefreshToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), server.tokenCalls.Load())
}

func TestClient_Get(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, respond(t, http.MethodGet, "/1.1/space/locations?details=1", http.StatusOK, `[{"lid":1}]`))
	client := NewTestClient(t, server.URL)

	body, err := client.Get(context.Background(), "1.1/space/locations?details=1")
	require.NoError(t, err)
	assert.Equal(t, `[{"lid":1}]`, body)

	// The token is fetched once for any number of requests.
	_, err = client.Get(context.Background(), "/1.1/space/locations?details=1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), server.tokenCalls.Load())
	assert.Equal(t, int32(2), server.apiCalls.Load())
}

func TestClient_Post(t *testing.T) {
	t.Parallel()

	t.Run("with body", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			body, _ := io.ReadAll(request.Body)
			assert.JSONEq(t, `{"id":4,"name":"Quiet","itemIds":null,"floor":2}`, string(body))

			_, _ = io.WriteString(writer, `{"ok":true}`)
		})
		client := NewTestClient(t, server.URL)

		zone := libcal.Zone{ID: 4, Name: "Quiet"}
		zone.SetExtra("floor", []byte("2"))

		body, err := client.Post(context.Background(), "/1.1/anything", &zone)
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, body)
	})

	t.Run("without body", func(t *testing.T) {
		t.Parallel()

		server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
			body, _ := io.ReadAll(request.Body)
			assert.Empty(t, body)
			assert.Empty(t, request.Header.Get("Content-Type"))

			_, _ = io.WriteString(writer, `[]`)
		})
		client := NewTestClient(t, server.URL)

		_, err := client.Post(context.Background(), "/1.1/space/cancel/cs_1", nil)
		require.NoError(t, err)
	})
}

func TestClient_TokenFailureStopsRequest(t *testing.T) {
	t.Parallel()

	var apiCalls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path == "/1.1/oauth/token" {
			writer.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(writer, `{"error":"invalid_client"}`)

			return
		}

		apiCalls.Add(1)
	}))
	defer server.Close()

	client := NewTestClient(t, server.URL)

	_, err := client.Get(context.Background(), "/1.1/space/locations")
	require.ErrorIs(t, err, libcal.ErrResponse)
	assert.Contains(t, err.Error(), "HTTP 401 response: invalid_client")
	assert.Equal(t, int32(0), apiCalls.Load())
}

func TestClient_Memoize(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, respond(t, http.MethodGet, "/", http.StatusOK, ""))
	client := NewTestClient(t, server.URL)

	calls := 0
	produce := func(context.Context) ([]libcal.Location, error) {
		calls++

		return []libcal.Location{{LID: calls}}, nil
	}

	first, err := Memoize(context.Background(), client, "/1.1/space/locations", true, time.Minute, produce)
	require.NoError(t, err)

	second, err := Memoize(context.Background(), client, "1.1/space/locations/", true, time.Minute, produce)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	_, err = Memoize(context.Background(), client, "/1.1/space/locations", false, time.Minute, produce)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestClient_SharedMemoryCache(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, respond(t, http.MethodGet, "/1.1/space/locations", http.StatusOK, `[{"lid":1,"name":"Main","public":true}]`))
	client := NewTestClient(t, server.URL, func(config *libcal.Config) {
		config.Cache = libcal.DefaultCacheConfig()
		config.MetricsRegisterer = prometheus.NewRegistry()
	})
	defer func() { assert.NoError(t, client.Close()) }()

	for range 2 {
		locations, err := client.Space().Locations(context.Background(), &libcal.LocationsParams{
			Cache: libcal.CacheFor(time.Minute),
		})
		require.NoError(t, err)
		require.Len(t, locations, 1)
		assert.Equal(t, "Main", locations[0].Name)
	}

	assert.Equal(t, int32(1), server.apiCalls.Load())
}

func TestClient_Interceptors(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "north", request.Header.Get("X-Campus"))
		assert.NotEmpty(t, request.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(writer, `[]`)
	})

	client := NewTestClient(t, server.URL, func(config *libcal.Config) {
		config.Interceptors = []libcal.RequestInterceptor{
			libcal.HeaderInterceptor(map[string]string{"X-Campus": "north"}),
		}
	})

	locations, err := client.Space().Locations(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, locations)
	assert.Equal(t, int32(1), server.apiCalls.Load())
}
