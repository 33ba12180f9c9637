package model

import "time"

// IssueListResult contains the issues fetched for one repository.
type IssueListResult struct {
	Timestamp time.Time      `json:"timestamp"`
	Repo      RepoRef        `json:"repo"`
	Filters   FilterCriteria `json:"filters"`
	Search    string         `json:"search,omitempty"`
	Fetched   int            `json:"fetched"`
	Shown     int            `json:"shown"`
	Issues    []Issue        `json:"issues"`
}

// RepositoryListResult contains the repositories tracked by a user.
type RepositoryListResult struct {
	Timestamp    time.Time    `json:"timestamp"`
	UserID       string       `json:"userId"`
	Selected     string       `json:"selected,omitempty"`
	Repositories []Repository `json:"repositories"`
}

// GitHubRepoListResult contains repositories browsed on GitHub.
type GitHubRepoListResult struct {
	Timestamp time.Time    `json:"timestamp"`
	Page      int          `json:"page"`
	PerPage   int          `json:"perPage"`
	Repos     []GitHubRepo `json:"repos"`
}

// CommentListResult contains the comments of one issue.
type CommentListResult struct {
	Repo     RepoRef   `json:"repo"`
	Number   int       `json:"number"`
	Comments []Comment `json:"comments"`
}

// OverviewResult summarizes automation state across tracked repositories.
type OverviewResult struct {
	Timestamp time.Time         `json:"timestamp"`
	Repos     []RepoOverview    `json:"repos"`
	Errors    []RepoFetchError  `json:"errors,omitempty"`
	Totals    AutomationSummary `json:"totals"`
}

// RepoOverview holds the automation summary of one repository.
type RepoOverview struct {
	Repo    RepoRef           `json:"repo"`
	Issues  int               `json:"issues"`
	Summary AutomationSummary `json:"summary"`
}

// RepoFetchError records a repository whose issues could not be fetched.
type RepoFetchError struct {
	Repo    string `json:"repo"`
	Message string `json:"message"`
}

// AutomationSummary counts issues by automation state. Issues without a
// merged status are counted as Untracked.
type AutomationSummary struct {
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Untracked int `json:"untracked"`
}

// Add accumulates other into s.
func (s *AutomationSummary) Add(other AutomationSummary) {
	s.Pending += other.Pending
	s.Running += other.Running
	s.Completed += other.Completed
	s.Failed += other.Failed
	s.Untracked += other.Untracked
}

// Total returns the number of issues counted.
func (s AutomationSummary) Total() int {
	return s.Pending + s.Running + s.Completed + s.Failed + s.Untracked
}

// Count records one issue in the given state. The null state counts as
// untracked.
func (s *AutomationSummary) Count(state AutomationState) {
	switch state {
	case AutomationStatePending:
		s.Pending++
	case AutomationStateRunning:
		s.Running++
	case AutomationStateCompleted:
		s.Completed++
	case AutomationStateFailed:
		s.Failed++
	default:
		s.Untracked++
	}
}
