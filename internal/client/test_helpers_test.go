package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

const testTokenResponse = `{"access_token":"test-token","expires_in":3600,"token_type":"Bearer","scope":"rm_r rm_w"}`

// testServer fakes a LibCal host: it answers the token endpoint and passes
// every other request, after checking its Authorization header, to handler.
type testServer struct {
	*httptest.Server

	tokenCalls atomic.Int32
	apiCalls   atomic.Int32
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *testServer {
	t.Helper()

	server := &testServer{}
	server.Server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path == "/1.1/oauth/token" {
			server.tokenCalls.Add(1)
			_, _ = io.WriteString(writer, testTokenResponse)

			return
		}

		server.apiCalls.Add(1)
		assert.Equal(t, "Bearer test-token", request.Header.Get("Authorization"))
		handler(writer, request)
	}))
	t.Cleanup(server.Close)

	return server
}

// respond returns a handler that checks the request line and writes body.
func respond(t *testing.T, method, uri string, status int, body string) http.HandlerFunc {
	t.Helper()

	return func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, method, request.Method)
		assert.Equal(t, uri, request.URL.RequestURI())
		writer.WriteHeader(status)
		_, _ = io.WriteString(writer, body)
	}
}

// NewTestClient creates a client for a test server.
func NewTestClient(t *testing.T, serverURL string, configure ...func(*libcal.Config)) *Client {
	t.Helper()

	config := &libcal.Config{
		Host:         serverURL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}

	for _, fn := range configure {
		fn(config)
	}

	client, err := New(context.Background(), config)
	require.NoError(t, err)

	return client
}

// TestGetOperation describes one read action against the fake host.
type TestGetOperation[TResponse any] struct {
	Name        string
	ExpectedURI string
	StatusCode  int
	Response    string
	WantErr     error
	ErrMessage  string
	Call        func(context.Context, *Client) (TResponse, error)
	Check       func(*testing.T, TResponse)
}

// RunGetTests runs a series of read action tests.
func RunGetTests[TResponse any](t *testing.T, tests []TestGetOperation[TResponse]) {
	t.Helper()

	for _, testCase := range tests {
		t.Run(testCase.Name, func(t *testing.T) {
			t.Parallel()

			status := testCase.StatusCode
			if status == 0 {
				status = http.StatusOK
			}

			server := newTestServer(t, respond(t, http.MethodGet, testCase.ExpectedURI, status, testCase.Response))
			client := NewTestClient(t, server.URL)

			result, err := testCase.Call(context.Background(), client)

			if testCase.WantErr != nil {
				require.ErrorIs(t, err, testCase.WantErr)

				if testCase.ErrMessage != "" {
					assert.Contains(t, err.Error(), testCase.ErrMessage)
				}

				return
			}

			require.NoError(t, err)

			if testCase.Check != nil {
				testCase.Check(t, result)
			}
		})
	}
}
