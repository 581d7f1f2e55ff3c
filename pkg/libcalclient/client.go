// Package libcalclient provides the main entry point for creating LibCal API clients
package libcalclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/libcal/internal/client"
	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

// New creates a new LibCal API client.
func New(ctx context.Context, config *libcal.Config) (libcal.Client, error) {
	if config == nil {
		return nil, libcal.ErrConfigRequired
	}

	config.Host = strings.TrimSuffix(strings.TrimSpace(config.Host), "/")
	if config.Host == "" {
		return nil, libcal.ErrHostRequired
	}

	client, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return client, nil
}

// NewWithClientCredentials creates a new client for host using OAuth2 client credentials.
func NewWithClientCredentials(ctx context.Context, host, clientID, clientSecret string) (libcal.Client, error) {
	return New(ctx, &libcal.Config{
		Host:         host,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}

// NewWithCache creates a new client whose memoized results are shared
// through the cache described by cache.
func NewWithCache(ctx context.Context, host, clientID, clientSecret string, cache *libcal.CacheConfig) (libcal.Client, error) {
	return New(ctx, &libcal.Config{
		Host:         host,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Cache:        cache,
	})
}
