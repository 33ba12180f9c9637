package fetcher

import (
	"context"
	"time"

	"github.com/gammazero/workerpool"

	"github.com/grokify/issueconductor/internal/automation"
	"github.com/grokify/issueconductor/pkg/model"
)

// DefaultOverviewWorkers bounds concurrent repository fetches in Overview.
const DefaultOverviewWorkers = 4

// Overview fetches the issues of every repository and summarizes their
// automation state. A repository that fails is reported in Errors; the others
// are still summarized. Results keep the order of repos.
func (f *Fetcher) Overview(ctx context.Context, repos []model.RepoRef, criteria model.FilterCriteria, workers int) *model.OverviewResult {
	if workers <= 0 {
		workers = DefaultOverviewWorkers
	}

	type outcome struct {
		issues []model.Issue
		err    error
	}
	outcomes := make([]outcome, len(repos))

	wp := workerpool.New(workers)
	for i, repo := range repos {
		wp.Submit(func() {
			if err := ctx.Err(); err != nil {
				outcomes[i] = outcome{err: err}
				return
			}
			issues, err := f.FetchIssues(ctx, repo, criteria)
			outcomes[i] = outcome{issues: issues, err: err}
		})
	}
	wp.StopWait()

	result := &model.OverviewResult{
		Timestamp: time.Now().UTC(),
		Repos:     []model.RepoOverview{},
	}
	for i, repo := range repos {
		o := outcomes[i]
		if o.err != nil {
			f.logger.Warn("overview fetch failed", "repo", repo.FullName(), "error", o.err)
			result.Errors = append(result.Errors, model.RepoFetchError{
				Repo:    repo.FullName(),
				Message: o.err.Error(),
			})
			continue
		}
		summary := automation.Summarize(o.issues)
		result.Totals.Add(summary)
		result.Repos = append(result.Repos, model.RepoOverview{
			Repo:    repo,
			Issues:  len(o.issues),
			Summary: summary,
		})
	}
	return result
}
