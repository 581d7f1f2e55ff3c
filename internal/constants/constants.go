package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// API surface.
const (
	// APIVersion is the LibCal API version prefixed to every resource path.
	APIVersion = "1.1"

	// TokenPath is the client credentials endpoint, relative to the host.
	TokenPath = APIVersion + "/oauth/token"

	// GrantTypeClientCredentials is the only grant the client performs.
	GrantTypeClientCredentials = "client_credentials"

	// DefaultScheme is used when the configured host has none.
	DefaultScheme = "https"

	// DefaultUserAgent is sent unless the caller overrides it.
	DefaultUserAgent = "libcal-go/" + Version

	// Version is the client release.
	Version = "0.3.0"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry budget. Retries are off unless the caller asks for them.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// HTTP status codes commonly used.
const (
	// HTTPStatusOK is the only status treated as success.
	HTTPStatusOK = 200

	// HTTPStatusNotFound maps to the not found error kind.
	HTTPStatusNotFound = 404
)

// Caching.
const (
	// TokenExpirationBuffer is subtracted from a token's lifetime when caching it.
	TokenExpirationBuffer = 30 * time.Second

	// DefaultActionCacheTTL is used when an action enables caching without a TTL.
	DefaultActionCacheTTL = 60 * time.Second

	// DefaultCacheSize is the default maximum number of entries in a memory cache.
	DefaultCacheSize = 1000

	// DefaultCleanupInterval is how often a memory cache drops expired entries.
	DefaultCleanupInterval = time.Minute

	// MemoKeyPrefix namespaces every memo key.
	MemoKeyPrefix = "libcal"

	// MemoKeyHashLength is the number of hex digits of the URI digest kept in a key.
	MemoKeyHashLength = 16

	// DefaultNATSBucket is the JetStream key-value bucket used for caching.
	DefaultNATSBucket = "libcal-cache"
)

// Action parameter limits.
const (
	// MaxDays is the largest booking lookahead in days.
	MaxDays = 365

	// MaxBookingsLimit is the largest page of bookings.
	MaxBookingsLimit = 500

	// MaxPageSize is the largest page of items or seats.
	MaxPageSize = 100
)

// Formats.
const (
	// DateFormat is used for date only parameters.
	DateFormat = "2006-01-02"

	// ReserveTimeFormat is the timestamp layout the reserve endpoint expects.
	ReserveTimeFormat = "2006-01-02T15:04:05-0700"

	// AnswerSeparator joins multi-valued question answers.
	AnswerSeparator = ", "
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// CheckMarkSymbol marks true booleans in tables.
	CheckMarkSymbol = "✓"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)
