package store

import (
	"context"
	"log/slog"

	"github.com/grokify/issueconductor/pkg/model"
)

// Dashboard ties the repository selection to the issue list: choosing a
// repository or changing filters reloads the issues of the selection.
type Dashboard struct {
	Repos  *RepoStore
	Issues *IssueStore
	logger *slog.Logger
}

// NewDashboard creates a Dashboard over the two stores.
func NewDashboard(repos *RepoStore, issues *IssueStore, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{Repos: repos, Issues: issues, logger: logger}
}

// Select selects a tracked repository and loads its issues. The previous
// repository's issues are cleared first.
func (d *Dashboard) Select(ctx context.Context, fullName string) error {
	repo, err := d.Repos.SelectByFullName(fullName)
	if err != nil {
		return err
	}
	d.Issues.Clear()
	d.logger.Debug("selected repository", "repo", repo.FullName)
	return d.Issues.Fetch(ctx, repo.Ref())
}

// ApplyFilters merges a filter update and reloads the selected repository.
// Without a selection only the filters change.
func (d *Dashboard) ApplyFilters(ctx context.Context, u model.FilterUpdate) error {
	d.Issues.SetFilters(u)
	ref, ok := d.Repos.State().SelectedRef()
	if !ok {
		return nil
	}
	return d.Issues.Fetch(ctx, ref)
}

// Refresh reloads the issues of the selected repository.
func (d *Dashboard) Refresh(ctx context.Context) error {
	ref, ok := d.Repos.State().SelectedRef()
	if !ok {
		return ErrNoSelection
	}
	return d.Issues.Fetch(ctx, ref)
}

// Delete stops tracking a repository. Deleting the selected repository also
// clears the issue list.
func (d *Dashboard) Delete(ctx context.Context, id string) error {
	sel, wasSelected := d.Repos.State().Selected.Get()
	if err := d.Repos.Delete(ctx, id); err != nil {
		return err
	}
	if wasSelected && sel.ID == id {
		d.Issues.Clear()
	}
	return nil
}

// RetryAutomation retries automation for an issue of the selected repository.
func (d *Dashboard) RetryAutomation(ctx context.Context, number int) error {
	ref, ok := d.Repos.State().SelectedRef()
	if !ok {
		return ErrNoSelection
	}
	return d.Issues.RetryAutomationFor(ctx, ref, number)
}
