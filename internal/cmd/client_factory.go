package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/config"
	"github.com/rentportal/rentportal-cli/internal/credstore"
)

// portal is an API client bound to its resolved settings and credential store.
type portal struct {
	*api.Client
	settings config.Settings
	closer   func() error
}

// Close releases the credential store connection.
func (p *portal) Close() {
	if err := p.closer(); err != nil {
		slog.Debug("closing credential store", "error", err)
	}
}

// storedToken returns the saved access token, or "" when none is stored.
// The endpoints renew expired tokens themselves.
func (p *portal) storedToken(ctx context.Context) (string, error) {
	tok, err := credstore.Lookup(ctx, p.Store, credstore.KeyAccessToken)
	if err != nil {
		return "", &api.Error{Category: api.CategoryAuth, Message: "Unable to read stored session", Details: err.Error()}
	}
	return tok, nil
}

// optionalToken is storedToken for public endpoints: a store failure is
// treated as anonymous access.
func (p *portal) optionalToken(ctx context.Context) string {
	tok, err := p.storedToken(ctx)
	if err != nil {
		return ""
	}
	return tok
}

type clientFactory struct {
	overrides config.Overrides
	userAgent string
}

func newClientFactory() *clientFactory {
	return &clientFactory{
		overrides: config.Overrides{
			BaseURL: flags.BaseURL,
			Role:    flags.Role,
			Timeout: flags.Timeout,
			Profile: flags.Profile,
		},
		userAgent: fmt.Sprintf("rentportal-cli/%s", version),
	}
}

func (f *clientFactory) open() (*portal, error) {
	settings, err := config.Resolve(f.overrides)
	if err != nil {
		return nil, err
	}
	store, closer, err := config.OpenStore(settings)
	if err != nil {
		return nil, &api.Error{Category: api.CategoryUnknown, Message: "Unable to open credential store", Details: err.Error()}
	}
	client := api.New(settings.BaseURL, store,
		api.WithRole(settings.Role),
		api.WithTimeout(settings.Timeout),
		api.WithUserAgent(f.userAgent),
	)
	return &portal{Client: client, settings: settings, closer: closer}, nil
}
