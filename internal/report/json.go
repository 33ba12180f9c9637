package report

import (
	"encoding/json"

	"github.com/grokify/issueconductor/pkg/model"
)

// JSONFormatter formats results as JSON.
type JSONFormatter struct {
	Indent bool
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{Indent: true}
}

// FormatIssueList formats an issue list as JSON.
func (f *JSONFormatter) FormatIssueList(result *model.IssueListResult) (string, error) {
	return f.marshal(result)
}

// FormatRepositoryList formats tracked repositories as JSON.
func (f *JSONFormatter) FormatRepositoryList(result *model.RepositoryListResult) (string, error) {
	return f.marshal(result)
}

// FormatGitHubRepos formats browsed repositories as JSON.
func (f *JSONFormatter) FormatGitHubRepos(result *model.GitHubRepoListResult) (string, error) {
	return f.marshal(result)
}

// FormatOverview formats an overview as JSON.
func (f *JSONFormatter) FormatOverview(result *model.OverviewResult) (string, error) {
	return f.marshal(result)
}

// FormatComments formats comments as JSON.
func (f *JSONFormatter) FormatComments(result *model.CommentListResult) (string, error) {
	return f.marshal(result)
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var data []byte
	var err error

	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}
