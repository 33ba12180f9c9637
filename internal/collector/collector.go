package collector

import (
	"context"

	"github.com/grokify/issueconductor/pkg/model"
)

// IssuesPageSize is the fixed page-size ceiling for issue listings. Only the
// first page is fetched.
const IssuesPageSize = 100

// Collector defines the interface for reading issues and repositories from GitHub.
type Collector interface {
	// ListIssues returns the first page of issues matching the criteria,
	// excluding pull requests.
	ListIssues(ctx context.Context, repo model.RepoRef, criteria model.FilterCriteria) ([]model.Issue, error)

	// ListComments returns the comments of an issue.
	ListComments(ctx context.Context, repo model.RepoRef, number int) ([]model.Comment, error)

	// GetRepository returns metadata for a single repository.
	GetRepository(ctx context.Context, repo model.RepoRef) (*model.GitHubRepo, error)

	// ListUserRepos returns one page of the authenticated user's repositories.
	ListUserRepos(ctx context.Context, opts model.RepoListOptions) ([]model.GitHubRepo, error)
}

// NewGitHub creates a new GitHub collector with the given token.
func NewGitHub(token string, opts ...Option) Collector {
	return NewGitHubCollector(token, opts...)
}
