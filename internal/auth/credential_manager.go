// Package auth obtains and memoizes LibCal client credentials.
package auth

import (
	"context"
	"net/url"

	"github.com/fivetwenty-io/libcal/internal/constants"
	libcalhttp "github.com/fivetwenty-io/libcal/internal/http"
	"github.com/fivetwenty-io/libcal/internal/jsonmap"
	"github.com/fivetwenty-io/libcal/internal/memo"
	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

// TokenSender posts the token request. *libcalhttp.Client implements it.
type TokenSender interface {
	PostForm(ctx context.Context, uri string, values url.Values) (string, error)
}

// CredentialManager fetches client credentials tokens and memoizes them
// until shortly before they expire.
type CredentialManager struct {
	sender       TokenSender
	store        *memo.Store
	mapper       *jsonmap.Mapper
	logger       libcal.Logger
	clientID     string
	clientSecret string
}

var _ libcalhttp.Authorizer = (*CredentialManager)(nil)

// NewCredentialManager creates a manager. sender must not attach an
// Authorization header to its requests.
func NewCredentialManager(
	sender TokenSender,
	store *memo.Store,
	mapper *jsonmap.Mapper,
	logger libcal.Logger,
	clientID, clientSecret string,
) *CredentialManager {
	if logger == nil {
		logger = libcal.NoOpLogger{}
	}

	return &CredentialManager{
		sender:       sender,
		store:        store,
		mapper:       mapper,
		logger:       logger,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// Key is the memo key tokens are stored under.
func Key() string {
	return memo.Key(constants.TokenPath)
}

// Token returns the current credential, fetching one when none is cached.
// Caching is always on for tokens.
func (m *CredentialManager) Token(ctx context.Context) (*libcal.Credential, error) {
	return memo.Memoize(ctx, m.store, Key(), true, 0, m.fetch)
}

// RefreshToken drops the cached credential and fetches a new one.
func (m *CredentialManager) RefreshToken(ctx context.Context) (*libcal.Credential, error) {
	err := m.store.Invalidate(ctx, Key())
	if err != nil {
		return nil, err
	}

	return m.Token(ctx)
}

// Authorization returns the Authorization header value for API requests.
func (m *CredentialManager) Authorization(ctx context.Context) (string, error) {
	credential, err := m.Token(ctx)
	if err != nil {
		return "", err
	}

	return credential.AuthorizationHeader(), nil
}

func (m *CredentialManager) fetch(ctx context.Context) (*libcal.Credential, error) {
	values := url.Values{}
	values.Set("client_id", m.clientID)
	values.Set("client_secret", m.clientSecret)
	values.Set("grant_type", constants.GrantTypeClientCredentials)

	body, err := m.sender.PostForm(ctx, constants.TokenPath, values)
	if err != nil {
		return nil, err
	}

	credential, err := jsonmap.DecodeObject[libcal.Credential](m.mapper, []byte(body))
	if err != nil {
		return nil, err
	}

	m.logger.Debug("Fetched access token", map[string]interface{}{
		"token_type": credential.TokenType,
		"expires_in": credential.ExpiresIn,
		"scope":      credential.Scope,
	})

	return credential, nil
}
