// Package automation decorates issues with their externally computed
// automation status.
package automation

import (
	"github.com/samber/mo"

	"github.com/grokify/issueconductor/pkg/model"
)

// Merge returns a copy of issues in which every issue whose number appears
// as a decimal key in statuses carries that status, and every other issue
// carries none. The input slice is not modified.
func Merge(issues []model.Issue, statuses map[string]model.AutomationStatus) []model.Issue {
	merged := make([]model.Issue, len(issues))
	for i, issue := range issues {
		if st, ok := statuses[issue.Key()]; ok {
			issue.AutomationStatus = mo.Some(st)
		} else {
			issue.AutomationStatus = mo.None[model.AutomationStatus]()
		}
		merged[i] = issue
	}
	return merged
}

// Summarize counts issues by automation state.
func Summarize(issues []model.Issue) model.AutomationSummary {
	var s model.AutomationSummary
	for _, issue := range issues {
		st, ok := issue.AutomationStatus.Get()
		if !ok {
			s.Untracked++
			continue
		}
		s.Count(st.Status)
	}
	return s
}
