package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/grokify/issueconductor/pkg/model"
)

// TableFormatter formats results as text tables.
type TableFormatter struct{}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// stateColor colors an already padded automation state cell.
func stateColor(state string, cell string) string {
	switch model.AutomationState(state) {
	case model.AutomationStatePending:
		return color.New(color.FgYellow).Sprint(cell)
	case model.AutomationStateRunning:
		return color.New(color.FgCyan).Sprint(cell)
	case model.AutomationStateCompleted:
		return color.New(color.FgGreen).Sprint(cell)
	case model.AutomationStateFailed:
		return color.New(color.FgRed).Sprint(cell)
	default:
		return color.New(color.FgHiBlack).Sprint(cell)
	}
}

// FormatIssueList formats an issue list as a text table.
func (f *TableFormatter) FormatIssueList(result *model.IssueListResult) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Issues for %s (%s)\n", result.Repo.FullName(), result.Timestamp.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("State: %s | Sort: %s %s", result.Filters.State, result.Filters.Sort, result.Filters.Direction))
	if result.Filters.Assignee != "" {
		sb.WriteString(fmt.Sprintf(" | Assignee: %s", result.Filters.Assignee))
	}
	if result.Filters.Label != "" {
		sb.WriteString(fmt.Sprintf(" | Label: %s", result.Filters.Label))
	}
	if result.Search != "" {
		sb.WriteString(fmt.Sprintf(" | Search: %q", result.Search))
	}
	sb.WriteString(fmt.Sprintf("\nShowing %d of %d\n", result.Shown, result.Fetched))
	sb.WriteString(strings.Repeat("-", 100) + "\n")

	if len(result.Issues) == 0 {
		sb.WriteString("No issues found.\n")
		return sb.String(), nil
	}

	sb.WriteString(fmt.Sprintf("%-7s %-45s %-7s %-15s %-5s %-10s\n",
		"ISSUE", "TITLE", "STATE", "AUTHOR", "CMTS", "AUTOMATION"))
	sb.WriteString(strings.Repeat("-", 100) + "\n")

	for _, issue := range result.Issues {
		state := automationState(issue)
		sb.WriteString(fmt.Sprintf("#%-6d %-45s %-7s %-15s %5d %s\n",
			issue.Number,
			truncate(issue.Title, 45),
			issue.State,
			truncate(issue.Author.Login, 15),
			issue.Comments,
			stateColor(state, fmt.Sprintf("%-10s", state)),
		))
		if st, ok := issue.AutomationStatus.Get(); ok && st.ErrorMessage != "" {
			sb.WriteString(fmt.Sprintf("        ↳ %s\n", truncate(st.ErrorMessage, 90)))
		}
	}

	return sb.String(), nil
}

// FormatRepositoryList formats tracked repositories as a text table.
func (f *TableFormatter) FormatRepositoryList(result *model.RepositoryListResult) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Tracked Repositories (%d)\n", len(result.Repositories)))
	sb.WriteString(strings.Repeat("-", 100) + "\n")

	if len(result.Repositories) == 0 {
		sb.WriteString("No repositories tracked.\n")
		return sb.String(), nil
	}

	sb.WriteString(fmt.Sprintf("  %-36s %-35s %-25s\n", "ID", "REPOSITORY", "ADDED"))
	sb.WriteString(strings.Repeat("-", 100) + "\n")

	for _, r := range result.Repositories {
		marker := " "
		if strings.EqualFold(r.FullName, result.Selected) {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%s %-36s %-35s %-25s\n",
			marker,
			r.ID,
			truncate(r.FullName, 35),
			r.CreatedAt.Format(time.RFC3339),
		))
	}

	return sb.String(), nil
}

// FormatGitHubRepos formats browsed repositories as a text table.
func (f *TableFormatter) FormatGitHubRepos(result *model.GitHubRepoListResult) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("GitHub Repositories (page %d, %d per page)\n", result.Page, result.PerPage))
	sb.WriteString(strings.Repeat("-", 100) + "\n")

	if len(result.Repos) == 0 {
		sb.WriteString("No repositories found.\n")
		return sb.String(), nil
	}

	sb.WriteString(fmt.Sprintf("%-40s %-12s %-7s %6s %6s %s\n",
		"REPOSITORY", "LANGUAGE", "PRIVATE", "STARS", "ISSUES", "UPDATED"))
	sb.WriteString(strings.Repeat("-", 100) + "\n")

	for _, r := range result.Repos {
		private := "no"
		if r.Private {
			private = "yes"
		}
		sb.WriteString(fmt.Sprintf("%-40s %-12s %-7s %6d %6d %s\n",
			truncate(r.FullName, 40),
			truncate(r.Language, 12),
			private,
			r.StargazersCount,
			r.OpenIssuesCount,
			r.UpdatedAt.Format("2006-01-02"),
		))
	}

	return sb.String(), nil
}

// FormatOverview formats an overview as a text table.
func (f *TableFormatter) FormatOverview(result *model.OverviewResult) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Automation Overview (%s)\n", result.Timestamp.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Repositories: %d | Issues: %d\n", len(result.Repos), result.Totals.Total()))
	sb.WriteString(strings.Repeat("-", 100) + "\n")

	sb.WriteString(fmt.Sprintf("%-40s %6s %8s %8s %9s %7s %9s\n",
		"REPOSITORY", "ISSUES", "PENDING", "RUNNING", "COMPLETED", "FAILED", "UNTRACKED"))
	sb.WriteString(strings.Repeat("-", 100) + "\n")

	for _, r := range result.Repos {
		s := r.Summary
		sb.WriteString(fmt.Sprintf("%-40s %6d %8d %8d %9d %s %9d\n",
			truncate(r.Repo.FullName(), 40),
			r.Issues, s.Pending, s.Running, s.Completed,
			failedCell(s.Failed),
			s.Untracked,
		))
	}

	t := result.Totals
	sb.WriteString(strings.Repeat("-", 100) + "\n")
	sb.WriteString(fmt.Sprintf("%-40s %6d %8d %8d %9d %s %9d\n",
		"TOTAL", t.Total(), t.Pending, t.Running, t.Completed, failedCell(t.Failed), t.Untracked))

	if len(result.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, e := range result.Errors {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", e.Repo, e.Message))
		}
	}

	return sb.String(), nil
}

func failedCell(n int) string {
	cell := fmt.Sprintf("%7d", n)
	if n > 0 {
		return color.New(color.FgRed).Sprint(cell)
	}
	return cell
}

// FormatComments formats comments as text.
func (f *TableFormatter) FormatComments(result *model.CommentListResult) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Comments on %s#%d (%d)\n", result.Repo.FullName(), result.Number, len(result.Comments)))
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	if len(result.Comments) == 0 {
		sb.WriteString("No comments.\n")
		return sb.String(), nil
	}

	for _, c := range result.Comments {
		sb.WriteString(fmt.Sprintf("%s commented %s\n",
			color.New(color.Bold).Sprint(c.Author.Login),
			c.CreatedAt.Format(time.RFC3339)))
		sb.WriteString(c.Body + "\n\n")
	}

	return sb.String(), nil
}
