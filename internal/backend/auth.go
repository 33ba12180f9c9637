package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/grokify/issueconductor/pkg/model"
)

// AuthStatus reports whether the service holds a valid GitHub token for a user.
type AuthStatus struct {
	Authenticated bool        `json:"authenticated"`
	User          *model.User `json:"user,omitempty"`
	AuthURL       string      `json:"authUrl,omitempty"`
}

// AuthResult is the outcome of exchanging an OAuth code.
type AuthResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	User    model.User `json:"user"`
}

// AccessCheck is the outcome of verifying a user's access to a repository.
type AccessCheck struct {
	HasAccess   bool            `json:"hasAccess"`
	Error       string          `json:"error,omitempty"`
	Message     string          `json:"message,omitempty"`
	AuthURL     string          `json:"authUrl,omitempty"`
	Permissions map[string]bool `json:"permissions,omitempty"`
}

// WebhookSetup is the outcome of installing the issue webhook on a repository.
type WebhookSetup struct {
	Success    bool     `json:"success"`
	WebhookID  int64    `json:"webhookId,omitempty"`
	WebhookURL string   `json:"webhookUrl,omitempty"`
	Events     []string `json:"events,omitempty"`
	Error      string   `json:"error,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// WebhookStatus describes the issue webhook installed on a repository.
type WebhookStatus struct {
	Configured   bool            `json:"configured"`
	WebhookID    int64           `json:"webhookId,omitempty"`
	WebhookURL   string          `json:"webhookUrl,omitempty"`
	Events       []string        `json:"events,omitempty"`
	Active       bool            `json:"active"`
	LastResponse json.RawMessage `json:"lastResponse,omitempty"`
}

// AuthURL returns the GitHub authorize URL configured on the service.
func (c *Client) AuthURL(ctx context.Context) (string, error) {
	var out struct {
		AuthURL string `json:"auth_url"`
	}
	if err := c.do(ctx, "auth url", http.MethodGet, "/auth/github/url", nil, nil, &out); err != nil {
		return "", err
	}
	return out.AuthURL, nil
}

// AuthStatus reports whether the user has connected a GitHub account.
func (c *Client) AuthStatus(ctx context.Context, userID string) (*AuthStatus, error) {
	var out struct {
		Authenticated bool      `json:"authenticated"`
		User          *userWire `json:"user"`
		AuthURL       string    `json:"auth_url"`
	}
	if err := c.do(ctx, "auth status", http.MethodGet, "/auth/github/status/"+userID, nil, nil, &out); err != nil {
		return nil, err
	}
	st := &AuthStatus{Authenticated: out.Authenticated, AuthURL: out.AuthURL}
	if out.User != nil {
		u := out.User.toModel()
		st.User = &u
	}
	return st, nil
}

// CompleteAuth hands an OAuth authorization code to the service, which
// exchanges it for a token stored against the user.
func (c *Client) CompleteAuth(ctx context.Context, code, userID string) (*AuthResult, error) {
	in := struct {
		Code   string `json:"code"`
		UserID string `json:"user_id"`
	}{Code: code, UserID: userID}

	var out struct {
		Success bool      `json:"success"`
		Message string    `json:"message"`
		User    *userWire `json:"user"`
	}
	if err := c.do(ctx, "complete auth", http.MethodPost, "/auth/github/callback", nil, in, &out); err != nil {
		return nil, err
	}
	return &AuthResult{Success: out.Success, Message: out.Message, User: out.User.toModel()}, nil
}

// VerifyAccess checks whether the user's GitHub token can read a repository.
func (c *Client) VerifyAccess(ctx context.Context, repo model.RepoRef, userID string) (*AccessCheck, error) {
	in := struct {
		RepoFullName string `json:"repo_full_name"`
		UserID       string `json:"user_id"`
	}{RepoFullName: repo.FullName(), UserID: userID}

	var out struct {
		HasAccess   bool            `json:"has_access"`
		Error       string          `json:"error"`
		Message     string          `json:"message"`
		AuthURL     string          `json:"auth_url"`
		Permissions map[string]bool `json:"permissions"`
	}
	if err := c.do(ctx, "verify access "+repo.FullName(), http.MethodPost, "/repository/access/verify", nil, in, &out); err != nil {
		return nil, err
	}
	return &AccessCheck{
		HasAccess:   out.HasAccess,
		Error:       out.Error,
		Message:     out.Message,
		AuthURL:     out.AuthURL,
		Permissions: out.Permissions,
	}, nil
}

// SetupWebhook installs the issue webhook on a repository. A webhook that
// already exists or missing admin rights are reported in the result, not as
// an error.
func (c *Client) SetupWebhook(ctx context.Context, userID string, repo model.RepoRef) (*WebhookSetup, error) {
	in := struct {
		RepoFullName string `json:"repo_full_name"`
	}{RepoFullName: repo.FullName()}

	var out struct {
		Success    bool     `json:"success"`
		WebhookID  int64    `json:"webhook_id"`
		WebhookURL string   `json:"webhook_url"`
		Events     []string `json:"events"`
		Error      string   `json:"error"`
		Message    string   `json:"message"`
	}
	if err := c.do(ctx, "setup webhook "+repo.FullName(), http.MethodPost, "/github/webhook/"+userID, nil, in, &out); err != nil {
		return nil, err
	}
	return &WebhookSetup{
		Success:    out.Success,
		WebhookID:  out.WebhookID,
		WebhookURL: out.WebhookURL,
		Events:     out.Events,
		Error:      out.Error,
		Message:    out.Message,
	}, nil
}

// WebhookStatus reports the issue webhook configured on a repository.
func (c *Client) WebhookStatus(ctx context.Context, userID string, repo model.RepoRef) (*WebhookStatus, error) {
	var out struct {
		Configured   bool            `json:"configured"`
		WebhookID    int64           `json:"webhook_id"`
		WebhookURL   string          `json:"webhook_url"`
		Events       []string        `json:"events"`
		Active       bool            `json:"active"`
		LastResponse json.RawMessage `json:"last_response"`
	}
	q := url.Values{"repo_full_name": {repo.FullName()}}
	if err := c.do(ctx, "webhook status "+repo.FullName(), http.MethodGet, "/github/webhook/status/"+userID, q, nil, &out); err != nil {
		return nil, err
	}
	return &WebhookStatus{
		Configured:   out.Configured,
		WebhookID:    out.WebhookID,
		WebhookURL:   out.WebhookURL,
		Events:       out.Events,
		Active:       out.Active,
		LastResponse: out.LastResponse,
	}, nil
}
