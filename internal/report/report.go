package report

import (
	"fmt"

	"github.com/grokify/issueconductor/pkg/model"
)

// Formatter defines the interface for formatting results.
type Formatter interface {
	// FormatIssueList formats the issues of one repository.
	FormatIssueList(result *model.IssueListResult) (string, error)

	// FormatRepositoryList formats the repositories tracked by a user.
	FormatRepositoryList(result *model.RepositoryListResult) (string, error)

	// FormatGitHubRepos formats repositories browsed on GitHub.
	FormatGitHubRepos(result *model.GitHubRepoListResult) (string, error)

	// FormatOverview formats an automation overview across repositories.
	FormatOverview(result *model.OverviewResult) (string, error)

	// FormatComments formats the comments of one issue.
	FormatComments(result *model.CommentListResult) (string, error)
}

// Formats lists the supported output formats.
var Formats = []string{"table", "json", "markdown", "csv"}

// New returns the formatter for a format name.
func New(format string) (Formatter, error) {
	switch format {
	case "", "table":
		return NewTableFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "markdown", "md":
		return NewMarkdownFormatter(), nil
	case "csv":
		return NewCSVFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// automationState returns the state shown for an issue, "-" when the issue
// has no merged status.
func automationState(issue model.Issue) string {
	st, ok := issue.AutomationStatus.Get()
	if !ok {
		return "-"
	}
	return st.Status.String()
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
