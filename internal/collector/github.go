package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v84/github"
	"github.com/grokify/gogithub/auth"
	"github.com/grokify/mogo/net/http/retryhttp"
	"github.com/samber/mo"

	"github.com/grokify/issueconductor/internal/cache"
	"github.com/grokify/issueconductor/internal/remote"
	"github.com/grokify/issueconductor/pkg/model"
)

const (
	defaultReposPerPage = 30
	userRepoAffiliation = "owner,collaborator,organization_member"
)

// GitHubCollector implements Collector for GitHub repositories.
type GitHubCollector struct {
	client *github.Client
	// browse lists the user's repositories through a retrying transport.
	browse    *github.Client
	token     string
	cache     *cache.Cache
	repoCache *cache.RepoListCache
}

type options struct {
	cache          *cache.Cache
	maxRetries     int
	initialBackoff time.Duration
	baseURL        string
}

// Option configures a GitHubCollector.
type Option func(*options)

// WithCache caches browsed repository listings and repository lookups.
func WithCache(c *cache.Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithRetries configures the retry transport used when browsing repositories.
func WithRetries(maxRetries int, initialBackoff time.Duration) Option {
	return func(o *options) {
		o.maxRetries = maxRetries
		o.initialBackoff = initialBackoff
	}
}

// WithBaseURL points the collector at a GitHub Enterprise or test API root.
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

// NewGitHubCollector creates a new GitHub collector.
func NewGitHubCollector(token string, opts ...Option) *GitHubCollector {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var client *github.Client
	if token != "" {
		client = auth.NewGitHubClient(context.Background(), token)
	} else {
		client = github.NewClient(nil)
	}

	c := newGitHubCollector(client, newBrowseClient(token, o), o)
	c.token = token
	return c
}

func newGitHubCollector(client, browse *github.Client, o options) *GitHubCollector {
	if o.baseURL != "" {
		setBaseURL(client, o.baseURL)
		setBaseURL(browse, o.baseURL)
	}
	c := &GitHubCollector{client: client, browse: browse, cache: o.cache}
	if o.cache != nil {
		c.repoCache = cache.NewRepoListCache(o.cache)
	}
	return c
}

// newBrowseClient builds a client whose transport retries rate-limited responses.
func newBrowseClient(token string, o options) *github.Client {
	retryOpts := []retryhttp.Option{}
	if o.maxRetries > 0 {
		retryOpts = append(retryOpts, retryhttp.WithMaxRetries(o.maxRetries))
	}
	if o.initialBackoff > 0 {
		retryOpts = append(retryOpts, retryhttp.WithInitialBackoff(o.initialBackoff))
	}

	rt := retryhttp.NewWithOptions(retryOpts...)
	client := github.NewClient(&http.Client{Transport: rt})
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return client
}

func setBaseURL(client *github.Client, baseURL string) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if u, err := url.Parse(baseURL); err == nil {
		client.BaseURL = u
	}
}

// ListIssues returns the first page of issues matching the criteria.
func (c *GitHubCollector) ListIssues(ctx context.Context, repo model.RepoRef, criteria model.FilterCriteria) ([]model.Issue, error) {
	ghIssues, resp, err := c.client.Issues.ListByRepo(ctx, repo.Owner, repo.Name, issueListOptions(criteria))
	if err != nil {
		return nil, fetchError("list issues "+repo.FullName(), resp, err)
	}

	ghIssues = withoutPullRequests(ghIssues)

	issues := make([]model.Issue, 0, len(ghIssues))
	for _, gi := range ghIssues {
		issues = append(issues, convertIssue(gi))
	}
	return issues, nil
}

// ListComments returns all comments of an issue.
func (c *GitHubCollector) ListComments(ctx context.Context, repo model.RepoRef, number int) ([]model.Comment, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	var comments []model.Comment
	for {
		ghComments, resp, err := c.client.Issues.ListComments(ctx, repo.Owner, repo.Name, number, opts)
		if err != nil {
			return nil, fetchError(fmt.Sprintf("list comments %s#%d", repo.FullName(), number), resp, err)
		}

		for _, gc := range ghComments {
			comments = append(comments, convertComment(gc))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return comments, nil
}

// GetRepository returns metadata for a single repository. Results are cached
// per token when a cache is configured.
func (c *GitHubCollector) GetRepository(ctx context.Context, repo model.RepoRef) (*model.GitHubRepo, error) {
	key := "repo:" + cache.TokenID(c.token) + ":" + strings.ToLower(repo.FullName())
	r, err := cache.WithCache(ctx, c.cache, key, func() (model.GitHubRepo, error) {
		ghRepo, resp, err := c.client.Repositories.Get(ctx, repo.Owner, repo.Name)
		if err != nil {
			return model.GitHubRepo{}, fetchError("get repository "+repo.FullName(), resp, err)
		}
		return convertRepo(ghRepo), nil
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListUserRepos returns one page of the authenticated user's repositories,
// most recently updated first.
func (c *GitHubCollector) ListUserRepos(ctx context.Context, opts model.RepoListOptions) ([]model.GitHubRepo, error) {
	opts = normalizeRepoListOptions(opts)

	if c.repoCache != nil {
		if opts.Refresh {
			_ = c.repoCache.Invalidate(ctx, c.token, opts)
		} else if repos, ok := c.repoCache.Get(ctx, c.token, opts); ok {
			return repos, nil
		}
	}

	ghRepos, resp, err := c.browse.Repositories.ListByAuthenticatedUser(ctx, &github.RepositoryListByAuthenticatedUserOptions{
		Affiliation: userRepoAffiliation,
		Sort:        "updated",
		ListOptions: github.ListOptions{
			Page:    opts.Page,
			PerPage: opts.PerPage,
		},
	})
	if err != nil {
		return nil, fetchError("list user repositories", resp, err)
	}

	repos := make([]model.GitHubRepo, 0, len(ghRepos))
	for _, r := range ghRepos {
		repos = append(repos, convertRepo(r))
	}

	if c.repoCache != nil {
		_ = c.repoCache.Set(ctx, c.token, opts, repos)
	}
	return repos, nil
}

func normalizeRepoListOptions(opts model.RepoListOptions) model.RepoListOptions {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PerPage <= 0 {
		opts.PerPage = defaultReposPerPage
	}
	if opts.PerPage > 100 {
		opts.PerPage = 100
	}
	return opts
}

// issueListOptions builds the issue query. State, assignee and label are
// sent only when they narrow the result; sort, direction and the page size
// are always sent.
func issueListOptions(criteria model.FilterCriteria) *github.IssueListByRepoOptions {
	opts := &github.IssueListByRepoOptions{
		Sort:      string(criteria.Sort),
		Direction: string(criteria.Direction),
		ListOptions: github.ListOptions{
			PerPage: IssuesPageSize,
		},
	}
	if criteria.State != "" && criteria.State != model.StateFilterAll {
		opts.State = string(criteria.State)
	}
	if criteria.Assignee != "" {
		opts.Assignee = criteria.Assignee
	}
	if criteria.Label != "" {
		opts.Labels = []string{criteria.Label}
	}
	return opts
}

// withoutPullRequests drops pull requests, which the issues endpoint returns
// alongside issues. Order is preserved.
func withoutPullRequests(issues []*github.Issue) []*github.Issue {
	kept := make([]*github.Issue, 0, len(issues))
	for _, gi := range issues {
		if gi.IsPullRequest() {
			continue
		}
		kept = append(kept, gi)
	}
	return kept
}

// fetchError classifies a go-github failure. A received response becomes a
// RemoteFetchError; anything else is a NetworkError.
func fetchError(op string, resp *github.Response, err error) error {
	if resp == nil || resp.Response == nil {
		return &remote.NetworkError{Op: op, Err: err}
	}

	rfe := &remote.RemoteFetchError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}
	var er *github.ErrorResponse
	if errors.As(err, &er) {
		rfe.Message = er.Message
	}
	return rfe
}

// convertIssue converts a GitHub issue to our model.
func convertIssue(gi *github.Issue) model.Issue {
	issue := model.Issue{
		ID:               gi.GetID(),
		Number:           gi.GetNumber(),
		Title:            gi.GetTitle(),
		State:            model.IssueState(gi.GetState()),
		Author:           convertUser(gi.GetUser()),
		Comments:         gi.GetComments(),
		CreatedAt:        gi.GetCreatedAt().Time,
		UpdatedAt:        gi.GetUpdatedAt().Time,
		HTMLURL:          gi.GetHTMLURL(),
		AutomationStatus: mo.None[model.AutomationStatus](),
	}

	if gi.Body != nil {
		body := *gi.Body
		issue.Body = &body
	}
	if gi.ClosedAt != nil {
		t := gi.GetClosedAt().Time
		issue.ClosedAt = &t
	}
	for _, l := range gi.Labels {
		issue.Labels = append(issue.Labels, model.Label{
			Name:  l.GetName(),
			Color: l.GetColor(),
		})
	}
	for _, a := range gi.Assignees {
		issue.Assignees = append(issue.Assignees, convertUser(a))
	}

	return issue
}

func convertUser(u *github.User) model.User {
	if u == nil {
		return model.User{}
	}
	return model.User{
		Login:     u.GetLogin(),
		Name:      u.GetName(),
		AvatarURL: u.GetAvatarURL(),
	}
}

func convertComment(gc *github.IssueComment) model.Comment {
	return model.Comment{
		ID:        gc.GetID(),
		Author:    convertUser(gc.GetUser()),
		Body:      gc.GetBody(),
		CreatedAt: gc.GetCreatedAt().Time,
		UpdatedAt: gc.GetUpdatedAt().Time,
		HTMLURL:   gc.GetHTMLURL(),
	}
}

// convertRepo converts a GitHub repository to our model.
func convertRepo(r *github.Repository) model.GitHubRepo {
	var topics []string
	if r.Topics != nil {
		topics = r.Topics
	}

	return model.GitHubRepo{
		ID:              r.GetID(),
		Name:            r.GetName(),
		FullName:        r.GetFullName(),
		Description:     r.GetDescription(),
		HTMLURL:         r.GetHTMLURL(),
		CloneURL:        r.GetCloneURL(),
		Private:         r.GetPrivate(),
		Language:        r.GetLanguage(),
		StargazersCount: r.GetStargazersCount(),
		ForksCount:      r.GetForksCount(),
		OpenIssuesCount: r.GetOpenIssuesCount(),
		Topics:          topics,
		UpdatedAt:       r.GetUpdatedAt().Time,
	}
}
