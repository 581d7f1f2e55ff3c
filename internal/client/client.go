package client

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fivetwenty-io/libcal/internal/auth"
	"github.com/fivetwenty-io/libcal/internal/constants"
	"github.com/fivetwenty-io/libcal/internal/http"
	"github.com/fivetwenty-io/libcal/internal/jsonmap"
	"github.com/fivetwenty-io/libcal/internal/memo"
	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

// Client implements the libcal.Client interface.
type Client struct {
	httpClient  *http.Client
	credentials *auth.CredentialManager
	store       *memo.Store
	mapper      *jsonmap.Mapper
	cache       libcal.Cache
	logger      libcal.Logger
	baseURL     string

	space *SpaceClient
}

var _ libcal.Client = (*Client)(nil)

// BaseURL returns the scheme and host requests are sent to. A host without
// a scheme gets https.
func BaseURL(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")

	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}

	return constants.DefaultScheme + "://" + host
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *libcal.Config, metrics *libcal.Metrics) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPClient != nil {
		httpOpts = append(httpOpts, http.WithHTTPClient(config.HTTPClient))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	if config.RateLimit > 0 {
		httpOpts = append(httpOpts, http.WithRateLimit(config.RateLimit))
	}

	if metrics != nil {
		httpOpts = append(httpOpts, http.WithMetrics(metrics))
	}

	if len(config.Interceptors) > 0 {
		httpOpts = append(httpOpts, http.WithInterceptors(config.Interceptors...))
	}

	return httpOpts
}

// New creates a LibCal client. config.Host, ClientID and ClientSecret must
// be set.
func New(ctx context.Context, config *libcal.Config) (*Client, error) {
	if config == nil {
		return nil, libcal.ErrConfigRequired
	}

	if config.Host == "" {
		return nil, libcal.ErrHostRequired
	}

	if config.ClientID == "" {
		return nil, libcal.ErrClientIDRequired
	}

	if config.ClientSecret == "" {
		return nil, libcal.ErrClientSecretRequired
	}

	logger := config.Logger
	if logger == nil {
		logger = libcal.NoOpLogger{}
	}

	var metrics *libcal.Metrics

	if config.MetricsRegisterer != nil {
		var err error

		metrics, err = libcal.NewMetrics(config.MetricsRegisterer)
		if err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}

	var cache libcal.Cache

	if config.Cache != nil {
		var err error

		cache, err = libcal.NewCacheFromConfig(ctx, config.Cache)
		if err != nil {
			return nil, fmt.Errorf("creating cache: %w", err)
		}
	}

	mapper := jsonmap.New(config.StrictMapping)

	storeOpts := []memo.Option{
		memo.WithLogger(logger),
		memo.WithMetrics(metrics),
		memo.WithMapper(mapper),
	}
	if cache != nil {
		storeOpts = append(storeOpts, memo.WithExternal(cache))
	}

	store := memo.NewStore(storeOpts...)

	baseURL := BaseURL(config.Host)
	httpOpts := createHTTPClientOptions(config, metrics)

	// Token requests go out without an Authorization header.
	tokenClient := http.NewClient(baseURL, nil, httpOpts...)
	credentials := auth.NewCredentialManager(tokenClient, store, mapper, logger, config.ClientID, config.ClientSecret)

	client := &Client{
		httpClient:  http.NewClient(baseURL, credentials, httpOpts...),
		credentials: credentials,
		store:       store,
		mapper:      mapper,
		cache:       cache,
		logger:      logger,
		baseURL:     baseURL,
	}

	client.space = NewSpaceClient(client)

	return client, nil
}

// BaseURL returns the URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Mapper returns the mapper responses are decoded with.
func (c *Client) Mapper() *jsonmap.Mapper {
	return c.mapper
}

// Token implements libcal.TokenClient.Token.
func (c *Client) Token(ctx context.Context) (*libcal.Credential, error) {
	return c.credentials.Token(ctx)
}

// RefreshToken implements libcal.TokenClient.RefreshToken.
func (c *Client) RefreshToken(ctx context.Context) (*libcal.Credential, error) {
	return c.credentials.RefreshToken(ctx)
}

// Get implements libcal.Client.Get.
func (c *Client) Get(ctx context.Context, uri string) (string, error) {
	return c.httpClient.Get(ctx, uri)
}

// Post implements libcal.Client.Post. A non-nil body is encoded as JSON,
// including members kept on records.
func (c *Client) Post(ctx context.Context, uri string, body interface{}) (string, error) {
	req := http.NewRequest("POST", uri).Authorized()

	if body != nil {
		data, err := c.mapper.Marshal(body)
		if err != nil {
			return "", err
		}

		req.WithJSON(data)
	}

	return c.httpClient.Send(ctx, req)
}

// Space implements libcal.Client.Space.
func (c *Client) Space() libcal.SpaceClient {
	return c.space
}

// Close implements libcal.Client.Close.
func (c *Client) Close() error {
	closer, ok := c.cache.(io.Closer)
	if !ok {
		return nil
	}

	err := closer.Close()
	if err != nil {
		return fmt.Errorf("closing cache: %w", err)
	}

	return nil
}

// Memoize caches the result of produce under the key of uri. caching
// false always calls produce; ttl zero caches without expiry.
func Memoize[T any](
	ctx context.Context,
	c *Client,
	uri string,
	caching bool,
	ttl time.Duration,
	produce func(ctx context.Context) (T, error),
) (T, error) {
	return memo.Memoize(ctx, c.store, memo.Key(uri), caching, ttl, produce)
}
