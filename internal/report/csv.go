package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/grokify/issueconductor/pkg/model"
)

// CSVFormatter formats results as CSV.
type CSVFormatter struct{}

// NewCSVFormatter creates a new CSV formatter.
func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func writeCSV(header []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	return buf.String(), w.Error()
}

// FormatIssueList formats an issue list as CSV.
func (f *CSVFormatter) FormatIssueList(result *model.IssueListResult) (string, error) {
	header := []string{"Repository", "Number", "Title", "State", "Author", "Labels", "Assignees", "Comments", "Created", "Automation", "Automation Error", "URL"}

	rows := make([][]string, 0, len(result.Issues))
	for _, issue := range result.Issues {
		var automationErr string
		if st, ok := issue.AutomationStatus.Get(); ok {
			automationErr = st.ErrorMessage
		}
		rows = append(rows, []string{
			result.Repo.FullName(),
			fmt.Sprintf("%d", issue.Number),
			issue.Title,
			string(issue.State),
			issue.Author.Login,
			strings.Join(issue.LabelNames(), ";"),
			strings.Join(issue.AssigneeLogins(), ";"),
			fmt.Sprintf("%d", issue.Comments),
			issue.CreatedAt.Format(time.RFC3339),
			automationState(issue),
			automationErr,
			issue.HTMLURL,
		})
	}

	return writeCSV(header, rows)
}

// FormatRepositoryList formats tracked repositories as CSV.
func (f *CSVFormatter) FormatRepositoryList(result *model.RepositoryListResult) (string, error) {
	header := []string{"ID", "Name", "Full Name", "Description", "URL", "Created", "Selected"}

	rows := make([][]string, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		selected := "false"
		if strings.EqualFold(r.FullName, result.Selected) {
			selected = "true"
		}
		rows = append(rows, []string{
			r.ID, r.Name, r.FullName, r.Description, r.URL,
			r.CreatedAt.Format(time.RFC3339), selected,
		})
	}

	return writeCSV(header, rows)
}

// FormatGitHubRepos formats browsed repositories as CSV.
func (f *CSVFormatter) FormatGitHubRepos(result *model.GitHubRepoListResult) (string, error) {
	header := []string{"Full Name", "Description", "Language", "Private", "Stars", "Forks", "Open Issues", "Updated", "URL"}

	rows := make([][]string, 0, len(result.Repos))
	for _, r := range result.Repos {
		rows = append(rows, []string{
			r.FullName,
			r.Description,
			r.Language,
			fmt.Sprintf("%t", r.Private),
			fmt.Sprintf("%d", r.StargazersCount),
			fmt.Sprintf("%d", r.ForksCount),
			fmt.Sprintf("%d", r.OpenIssuesCount),
			r.UpdatedAt.Format(time.RFC3339),
			r.HTMLURL,
		})
	}

	return writeCSV(header, rows)
}

// FormatOverview formats an overview as CSV.
func (f *CSVFormatter) FormatOverview(result *model.OverviewResult) (string, error) {
	header := []string{"Repository", "Issues", "Pending", "Running", "Completed", "Failed", "Untracked", "Error"}

	rows := make([][]string, 0, len(result.Repos)+len(result.Errors))
	for _, r := range result.Repos {
		s := r.Summary
		rows = append(rows, []string{
			r.Repo.FullName(),
			fmt.Sprintf("%d", r.Issues),
			fmt.Sprintf("%d", s.Pending),
			fmt.Sprintf("%d", s.Running),
			fmt.Sprintf("%d", s.Completed),
			fmt.Sprintf("%d", s.Failed),
			fmt.Sprintf("%d", s.Untracked),
			"",
		})
	}
	for _, e := range result.Errors {
		rows = append(rows, []string{e.Repo, "", "", "", "", "", "", e.Message})
	}

	return writeCSV(header, rows)
}

// FormatComments formats comments as CSV.
func (f *CSVFormatter) FormatComments(result *model.CommentListResult) (string, error) {
	header := []string{"Repository", "Issue", "Comment ID", "Author", "Created", "Body", "URL"}

	rows := make([][]string, 0, len(result.Comments))
	for _, c := range result.Comments {
		rows = append(rows, []string{
			result.Repo.FullName(),
			fmt.Sprintf("%d", result.Number),
			fmt.Sprintf("%d", c.ID),
			c.Author.Login,
			c.CreatedAt.Format(time.RFC3339),
			c.Body,
			c.HTMLURL,
		})
	}

	return writeCSV(header, rows)
}
