// Package fetcher loads the issues of a repository and decorates them with
// their automation status.
package fetcher

import (
	"context"
	"log/slog"

	"github.com/grokify/issueconductor/internal/automation"
	"github.com/grokify/issueconductor/pkg/model"
)

// IssueSource lists the issues of a repository.
type IssueSource interface {
	ListIssues(ctx context.Context, repo model.RepoRef, criteria model.FilterCriteria) ([]model.Issue, error)
}

// StatusSource reports the automation status of a repository's issues.
type StatusSource interface {
	AutomationStatuses(ctx context.Context, repo model.RepoRef) (map[string]model.AutomationStatus, error)
}

// Fetcher performs one issue fetch followed by one best-effort status fetch.
// Neither request is retried.
type Fetcher struct {
	issues   IssueSource
	statuses StatusSource
	logger   *slog.Logger
}

// New creates a Fetcher. A nil statuses source skips the status step.
func New(issues IssueSource, statuses StatusSource, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		issues:   issues,
		statuses: statuses,
		logger:   logger,
	}
}

// FetchIssues returns the issues matching criteria. A failure of the issue
// listing is returned; a failure of the status lookup is logged and the
// issues are returned without status.
func (f *Fetcher) FetchIssues(ctx context.Context, repo model.RepoRef, criteria model.FilterCriteria) ([]model.Issue, error) {
	issues, err := f.issues.ListIssues(ctx, repo, criteria)
	if err != nil {
		return nil, err
	}

	if f.statuses == nil {
		return issues, nil
	}

	statuses, err := f.statuses.AutomationStatuses(ctx, repo)
	if err != nil {
		f.logger.Warn("automation status unavailable",
			"repo", repo.FullName(),
			"error", err)
		return issues, nil
	}

	f.logger.Debug("merged automation status",
		"repo", repo.FullName(),
		"issues", len(issues),
		"statuses", len(statuses))
	return automation.Merge(issues, statuses), nil
}
