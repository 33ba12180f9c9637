// Package backend is a client of the companion automation service. The
// service tracks per-issue automation status, stores the user's tracked
// repositories and brokers GitHub OAuth and webhooks.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/grokify/issueconductor/internal/remote"
	"github.com/grokify/issueconductor/pkg/model"
)

// DefaultBaseURL is where the companion service listens in development.
const DefaultBaseURL = "http://localhost:8000"

const userAgent = "issueconductor"

// Client talks to the companion service over HTTP.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme and host required", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Health is the service root response.
type Health struct {
	Message             string `json:"message"`
	AutomationAvailable bool   `json:"automationAvailable"`
}

// Ping checks that the service is up and whether automation can run.
func (c *Client) Ping(ctx context.Context) (*Health, error) {
	var out struct {
		Message          string `json:"message"`
		PortiaAvailable  *bool  `json:"portia_available"`
		AutomationActive *bool  `json:"automation_available"`
	}
	if err := c.do(ctx, "ping", http.MethodGet, "/", nil, nil, &out); err != nil {
		return nil, err
	}
	h := &Health{Message: out.Message}
	switch {
	case out.AutomationActive != nil:
		h.AutomationAvailable = *out.AutomationActive
	case out.PortiaAvailable != nil:
		h.AutomationAvailable = *out.PortiaAvailable
	}
	return h, nil
}

// AutomationStatuses returns the automation status of every tracked issue of
// a repository, keyed by the issue number in decimal.
func (c *Client) AutomationStatuses(ctx context.Context, repo model.RepoRef) (map[string]model.AutomationStatus, error) {
	var out struct {
		AutomationStatuses map[string]automationStatusWire `json:"automation_statuses"`
	}
	p := "/automation-status/" + repo.Owner + "/" + repo.Name
	if err := c.do(ctx, "automation statuses "+repo.FullName(), http.MethodGet, p, nil, nil, &out); err != nil {
		return nil, err
	}

	statuses := make(map[string]model.AutomationStatus, len(out.AutomationStatuses))
	for k, w := range out.AutomationStatuses {
		statuses[k] = w.toModel()
	}
	return statuses, nil
}

// AutomationStatus returns the status of one issue, absent when the service
// has no record of it.
func (c *Client) AutomationStatus(ctx context.Context, repo model.RepoRef, number int) (mo.Option[model.AutomationStatus], error) {
	var out struct {
		AutomationStatus *automationStatusWire `json:"automation_status"`
	}
	op := fmt.Sprintf("automation status %s#%d", repo.FullName(), number)
	if err := c.do(ctx, op, http.MethodGet, issuePath(repo, number), nil, nil, &out); err != nil {
		return mo.None[model.AutomationStatus](), err
	}
	if out.AutomationStatus == nil {
		return mo.None[model.AutomationStatus](), nil
	}
	return mo.Some(out.AutomationStatus.toModel()), nil
}

// RetryAutomation asks the service to restart automation for an issue.
// userID is optional; when set the service runs the task with that user's
// GitHub credentials.
func (c *Client) RetryAutomation(ctx context.Context, repo model.RepoRef, number int, userID string) error {
	q := url.Values{}
	if userID != "" {
		q.Set("user_id", userID)
	}
	op := fmt.Sprintf("retry automation %s#%d", repo.FullName(), number)
	return c.do(ctx, op, http.MethodPost, issuePath(repo, number)+"/retry", q, nil, nil)
}

// ListRepositories returns the repositories tracked by a user.
func (c *Client) ListRepositories(ctx context.Context, userID string) ([]model.Repository, error) {
	var out struct {
		Repositories []repositoryWire `json:"repositories"`
		Note         string           `json:"note"`
	}
	if err := c.do(ctx, "list repositories", http.MethodGet, "/repositories/"+userID, nil, nil, &out); err != nil {
		return nil, err
	}

	repos := make([]model.Repository, 0, len(out.Repositories))
	for _, w := range out.Repositories {
		repos = append(repos, w.toModel())
	}
	return repos, nil
}

// CreateRepository starts tracking a repository for a user. A duplicate is
// reported by the service as 409 Conflict.
func (c *Client) CreateRepository(ctx context.Context, userID string, in model.RepositoryInput) (*model.Repository, error) {
	var out struct {
		Success    bool            `json:"success"`
		Message    string          `json:"message"`
		Repository *repositoryWire `json:"repository"`
	}
	q := url.Values{"user_id": {userID}}
	if err := c.do(ctx, "create repository "+in.FullName, http.MethodPost, "/repositories", q, newRepositoryInputWire(in), &out); err != nil {
		return nil, err
	}
	if !out.Success || out.Repository == nil {
		msg := out.Message
		if msg == "" {
			msg = "service reported failure"
		}
		return nil, fmt.Errorf("create repository %s: %s", in.FullName, msg)
	}
	r := out.Repository.toModel()
	return &r, nil
}

// DeleteRepository stops tracking a repository.
func (c *Client) DeleteRepository(ctx context.Context, userID, id string) error {
	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	q := url.Values{"user_id": {userID}}
	if err := c.do(ctx, "delete repository "+id, http.MethodDelete, "/repositories/"+id, q, nil, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("delete repository %s: %s", id, out.Message)
	}
	return nil
}

func issuePath(repo model.RepoRef, number int) string {
	return "/automation-status/" + repo.Owner + "/" + repo.Name + "/" + strconv.Itoa(number)
}

// do sends one request. in is encoded as the JSON body when non-nil; a 2xx
// response body is decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &remote.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if !remote.IsSuccess(resp.StatusCode) {
		return remote.FromResponse(op, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}
