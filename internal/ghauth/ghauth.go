// Package ghauth builds the GitHub OAuth flow used to connect a user's
// GitHub account.
package ghauth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// Scopes requested when connecting an account.
var Scopes = []string{"repo", "read:user"}

// ErrNoClientID is returned when no OAuth client id is configured.
var ErrNoClientID = errors.New("oauth client id not configured")

// Config holds the GitHub OAuth application settings.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// Endpoint overrides the GitHub endpoint, for GitHub Enterprise or tests.
	Endpoint *oauth2.Endpoint
}

// Flow performs the GitHub authorization code flow.
type Flow struct {
	cfg *oauth2.Config
}

// New returns a Flow for cfg.
func New(cfg Config) (*Flow, error) {
	if cfg.ClientID == "" {
		return nil, ErrNoClientID
	}
	endpoint := github.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	return &Flow{cfg: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       Scopes,
		Endpoint:     endpoint,
	}}, nil
}

// AuthorizeURL returns the URL the user visits to grant access. The user id
// travels as the OAuth state so the callback can be matched to the user.
func (f *Flow) AuthorizeURL(userID string) string {
	return f.cfg.AuthCodeURL(userID)
}

// Exchange trades an authorization code for an access token.
func (f *Flow) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("authorization code is required")
	}
	if f.cfg.ClientSecret == "" {
		return nil, fmt.Errorf("oauth client secret not configured")
	}
	tok, err := f.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}
