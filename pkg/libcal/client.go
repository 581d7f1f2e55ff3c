package libcal

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SpaceClient provides access to the Spaces and Seats endpoints.
type SpaceClient interface {
	Booking(ctx context.Context, params *BookingParams) ([]Booking, error)
	Bookings(ctx context.Context, params *BookingsParams) ([]Booking, error)
	Cancel(ctx context.Context, params *CancelParams) ([]CancelResponse, error)
	Categories(ctx context.Context, params *CategoriesParams) ([]Categories, error)
	Category(ctx context.Context, params *CategoryParams) ([]Category, error)
	Form(ctx context.Context, params *FormParams) ([]Form, error)
	Item(ctx context.Context, params *ItemParams) ([]Item, error)
	Items(ctx context.Context, params *ItemsParams) ([]Item, error)
	Locations(ctx context.Context, params *LocationsParams) ([]Location, error)
	Nickname(ctx context.Context, params *NicknameParams) ([]Categories, error)
	Question(ctx context.Context, params *QuestionParams) ([]Question, error)
	Reserve(ctx context.Context, payload *ReservePayload) (*ReserveResponse, error)
	Seat(ctx context.Context, params *SeatParams) (*Seat, error)
	Seats(ctx context.Context, params *SeatsParams) ([]Seat, error)
	Utilization(ctx context.Context, params *UtilizationParams) (*Utilization, error)
	Zone(ctx context.Context, params *ZoneParams) (*Zone, error)
	Zones(ctx context.Context, params *ZonesParams) ([]Zone, error)
}

// TokenClient exposes the client's OAuth credential.
type TokenClient interface {
	// Token returns the current credential, fetching it if needed.
	Token(ctx context.Context) (*Credential, error)
	// RefreshToken discards the cached credential and fetches a new one.
	RefreshToken(ctx context.Context) (*Credential, error)
}

// Client is the LibCal API client.
type Client interface {
	TokenClient

	// Get sends an authorized GET and returns the raw body.
	Get(ctx context.Context, uri string) (string, error)
	// Post sends an authorized POST with an optional JSON body and returns
	// the raw response body.
	Post(ctx context.Context, uri string, body interface{}) (string, error)

	Space() SpaceClient

	// Close releases the shared cache connection, if any.
	Close() error
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// HTTPDoer sends a single HTTP request. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config represents client configuration for building a libcal.Client.
//
// # Transport
//
// Requests go through a go-retryablehttp client whose retry budget defaults
// to zero: a failing call is reported, not repeated. Set RetryMax to opt in.
// HTTPClient replaces the transport entirely; when set, HTTPTimeout and the
// retry settings are ignored.
//
// # Caching
//
// Cache selects the shared cache used by memoized calls. When nil, results
// are only memoized inside the client. The credential is always memoized.
type Config struct {
	// Host is the LibCal host, e.g. "example.libcal.com". A scheme may be
	// included ("http://127.0.0.1:8080"); https is assumed otherwise.
	Host string
	// ClientID and ClientSecret are the API application credentials.
	ClientID     string
	ClientSecret string

	// StrictMapping rejects unknown and missing fields when decoding
	// responses. Lenient mapping keeps unknown fields on the record.
	StrictMapping bool

	// Cache configures the shared cache. Nil means in-client memoization only.
	Cache *CacheConfig

	// HTTPClient overrides the transport.
	HTTPClient HTTPDoer
	// HTTPTimeout is the per request timeout of the default transport.
	HTTPTimeout time.Duration
	// RetryMax is the number of retries of the default transport (default 0).
	RetryMax int
	// RetryWaitMin and RetryWaitMax bound the backoff between retries.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit caps outgoing requests per second. Zero disables throttling.
	RateLimit float64

	// Interceptors run on every request after the built-in ones.
	Interceptors []RequestInterceptor

	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// Debug enables request/response logging when a Logger is provided.
	Debug bool
	// Logger is used by the HTTP layer and the memo store.
	Logger Logger
	// MetricsRegisterer receives the client's prometheus collectors.
	MetricsRegisterer prometheus.Registerer
}
