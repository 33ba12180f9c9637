package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/grokify/issueconductor/pkg/model"
)

// MarkdownFormatter formats results as Markdown.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new Markdown formatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// FormatIssueList formats an issue list as Markdown.
func (f *MarkdownFormatter) FormatIssueList(result *model.IssueListResult) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Issues: %s\n\n", result.Repo.FullName()))
	sb.WriteString(fmt.Sprintf("**Fetched:** %s\n\n", result.Timestamp.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("**Filters:** state=%s, sort=%s %s", result.Filters.State, result.Filters.Sort, result.Filters.Direction))
	if result.Filters.Assignee != "" {
		sb.WriteString(fmt.Sprintf(", assignee=%s", result.Filters.Assignee))
	}
	if result.Filters.Label != "" {
		sb.WriteString(fmt.Sprintf(", label=%s", result.Filters.Label))
	}
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("**Showing:** %d of %d\n\n", result.Shown, result.Fetched))

	if len(result.Issues) > 0 {
		sb.WriteString("| Issue | Title | State | Author | Labels | Comments | Automation |\n")
		sb.WriteString("|-------|-------|-------|--------|--------|----------|------------|\n")

		for _, issue := range result.Issues {
			sb.WriteString(fmt.Sprintf("| [#%d](%s) | %s | %s | %s | %s | %d | %s |\n",
				issue.Number,
				issue.HTMLURL,
				escapePipes(truncate(issue.Title, 60)),
				issue.State,
				issue.Author.Login,
				strings.Join(issue.LabelNames(), ", "),
				issue.Comments,
				automationState(issue),
			))
		}
	}

	return sb.String(), nil
}

// FormatRepositoryList formats tracked repositories as Markdown.
func (f *MarkdownFormatter) FormatRepositoryList(result *model.RepositoryListResult) (string, error) {
	var sb strings.Builder

	sb.WriteString("# Tracked Repositories\n\n")
	if result.Selected != "" {
		sb.WriteString(fmt.Sprintf("**Selected:** %s\n\n", result.Selected))
	}

	if len(result.Repositories) == 0 {
		sb.WriteString("No repositories tracked.\n")
		return sb.String(), nil
	}

	sb.WriteString("| Repository | Description | Added |\n")
	sb.WriteString("|------------|-------------|-------|\n")
	for _, r := range result.Repositories {
		sb.WriteString(fmt.Sprintf("| [%s](%s) | %s | %s |\n",
			r.FullName, r.URL, escapePipes(r.Description), r.CreatedAt.Format("2006-01-02")))
	}

	return sb.String(), nil
}

// FormatGitHubRepos formats browsed repositories as Markdown.
func (f *MarkdownFormatter) FormatGitHubRepos(result *model.GitHubRepoListResult) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# GitHub Repositories (page %d)\n\n", result.Page))

	if len(result.Repos) == 0 {
		sb.WriteString("No repositories found.\n")
		return sb.String(), nil
	}

	sb.WriteString("| Repository | Language | Stars | Open Issues | Updated |\n")
	sb.WriteString("|------------|----------|-------|-------------|---------|\n")
	for _, r := range result.Repos {
		sb.WriteString(fmt.Sprintf("| [%s](%s) | %s | %d | %d | %s |\n",
			r.FullName, r.HTMLURL, r.Language, r.StargazersCount, r.OpenIssuesCount,
			r.UpdatedAt.Format("2006-01-02")))
	}

	return sb.String(), nil
}

// FormatOverview formats an overview as Markdown.
func (f *MarkdownFormatter) FormatOverview(result *model.OverviewResult) (string, error) {
	var sb strings.Builder

	sb.WriteString("# Automation Overview\n\n")
	sb.WriteString(fmt.Sprintf("**Generated:** %s\n\n", result.Timestamp.Format(time.RFC3339)))

	sb.WriteString("| Repository | Issues | Pending | Running | Completed | Failed | Untracked |\n")
	sb.WriteString("|------------|--------|---------|---------|-----------|--------|-----------|\n")
	for _, r := range result.Repos {
		s := r.Summary
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d | %d | %d |\n",
			r.Repo.FullName(), r.Issues, s.Pending, s.Running, s.Completed, s.Failed, s.Untracked))
	}
	t := result.Totals
	sb.WriteString(fmt.Sprintf("| **Total** | %d | %d | %d | %d | %d | %d |\n",
		t.Total(), t.Pending, t.Running, t.Completed, t.Failed, t.Untracked))

	if len(result.Errors) > 0 {
		sb.WriteString("\n## Errors\n\n")
		for _, e := range result.Errors {
			sb.WriteString(fmt.Sprintf("- **%s:** %s\n", e.Repo, e.Message))
		}
	}

	return sb.String(), nil
}

// FormatComments formats comments as Markdown.
func (f *MarkdownFormatter) FormatComments(result *model.CommentListResult) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Comments: %s#%d\n\n", result.Repo.FullName(), result.Number))
	for _, c := range result.Comments {
		sb.WriteString(fmt.Sprintf("### %s (%s)\n\n", c.Author.Login, c.CreatedAt.Format(time.RFC3339)))
		sb.WriteString(c.Body + "\n\n")
	}

	return sb.String(), nil
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
