package automation

import (
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grokify/issueconductor/pkg/model"
)

func issues(numbers ...int) []model.Issue {
	out := make([]model.Issue, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, model.Issue{Number: n, AutomationStatus: mo.None[model.AutomationStatus]()})
	}
	return out
}

func TestMerge(t *testing.T) {
	in := issues(1, 2)
	statuses := map[string]model.AutomationStatus{
		"1": {Status: model.AutomationStateCompleted},
	}

	got := Merge(in, statuses)
	require.Len(t, got, 2)

	st, ok := got[0].AutomationStatus.Get()
	require.True(t, ok)
	assert.Equal(t, model.AutomationStateCompleted, st.Status)
	assert.True(t, got[1].AutomationStatus.IsAbsent())

	assert.True(t, in[0].AutomationStatus.IsAbsent(), "input must not be modified")
}

func TestMerge_ClearsStaleStatus(t *testing.T) {
	in := issues(5)
	in[0].AutomationStatus = mo.Some(model.AutomationStatus{Status: model.AutomationStateRunning})

	got := Merge(in, map[string]model.AutomationStatus{})
	assert.True(t, got[0].AutomationStatus.IsAbsent())
}

func TestMerge_Idempotent(t *testing.T) {
	statuses := map[string]model.AutomationStatus{
		"2": {Status: model.AutomationStateFailed, ErrorMessage: "boom"},
		"9": {Status: model.AutomationStatePending},
	}

	once := Merge(issues(1, 2, 3), statuses)
	twice := Merge(once, statuses)
	assert.Equal(t, once, twice)
}

func TestMerge_Empty(t *testing.T) {
	got := Merge(nil, map[string]model.AutomationStatus{"1": {Status: model.AutomationStatePending}})
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestSummarize(t *testing.T) {
	in := issues(1, 2, 3, 4, 5)
	in = Merge(in, map[string]model.AutomationStatus{
		"1": {Status: model.AutomationStatePending},
		"2": {Status: model.AutomationStateCompleted},
		"3": {Status: model.AutomationStateCompleted},
		"4": {Status: model.AutomationStateNone},
	})

	s := Summarize(in)
	assert.Equal(t, model.AutomationSummary{Pending: 1, Completed: 2, Untracked: 2}, s)
	assert.Equal(t, 5, s.Total())
}
