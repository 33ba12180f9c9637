package fetcher

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/grokify/issueconductor/internal/remote"
	"github.com/grokify/issueconductor/pkg/model"
)

type mockIssueSource struct {
	mock.Mock
}

func (m *mockIssueSource) ListIssues(ctx context.Context, repo model.RepoRef, criteria model.FilterCriteria) ([]model.Issue, error) {
	args := m.Called(ctx, repo, criteria)
	if v := args.Get(0); v != nil {
		return v.([]model.Issue), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockStatusSource struct {
	mock.Mock
}

func (m *mockStatusSource) AutomationStatuses(ctx context.Context, repo model.RepoRef) (map[string]model.AutomationStatus, error) {
	args := m.Called(ctx, repo)
	if v := args.Get(0); v != nil {
		return v.(map[string]model.AutomationStatus), args.Error(1)
	}
	return nil, args.Error(1)
}

var testRepo = model.RepoRef{Owner: "octo", Name: "hello"}

func twoIssues() []model.Issue {
	return []model.Issue{
		{Number: 1, Title: "first", AutomationStatus: mo.None[model.AutomationStatus]()},
		{Number: 2, Title: "second", AutomationStatus: mo.None[model.AutomationStatus]()},
	}
}

func TestFetchIssues_MergesStatuses(t *testing.T) {
	issues := &mockIssueSource{}
	statuses := &mockStatusSource{}
	criteria := model.DefaultFilterCriteria()

	issues.On("ListIssues", mock.Anything, testRepo, criteria).Return(twoIssues(), nil)
	statuses.On("AutomationStatuses", mock.Anything, testRepo).Return(map[string]model.AutomationStatus{
		"2": {Status: model.AutomationStateRunning},
	}, nil)

	got, err := New(issues, statuses, nil).FetchIssues(context.Background(), testRepo, criteria)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].AutomationStatus.IsAbsent())
	assert.Equal(t, model.AutomationStateRunning, got[1].AutomationStatus.MustGet().Status)

	issues.AssertExpectations(t)
	statuses.AssertExpectations(t)
}

func TestFetchIssues_StatusUnreachable(t *testing.T) {
	issues := &mockIssueSource{}
	statuses := &mockStatusSource{}
	criteria := model.DefaultFilterCriteria()

	issues.On("ListIssues", mock.Anything, testRepo, criteria).Return(twoIssues(), nil)
	statuses.On("AutomationStatuses", mock.Anything, testRepo).
		Return(nil, &remote.NetworkError{Op: "automation statuses", Err: errors.New("connection refused")})

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	got, err := New(issues, statuses, logger).FetchIssues(context.Background(), testRepo, criteria)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, issue := range got {
		assert.True(t, issue.AutomationStatus.IsAbsent())
	}
	assert.Contains(t, logs.String(), "automation status unavailable")
	assert.Contains(t, logs.String(), "octo/hello")
}

func TestFetchIssues_IssueError(t *testing.T) {
	issues := &mockIssueSource{}
	statuses := &mockStatusSource{}
	criteria := model.DefaultFilterCriteria()

	issues.On("ListIssues", mock.Anything, testRepo, criteria).
		Return(nil, &remote.RemoteFetchError{Op: "list issues", StatusCode: http.StatusForbidden, Status: "403 Forbidden"})

	_, err := New(issues, statuses, nil).FetchIssues(context.Background(), testRepo, criteria)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, remote.StatusCode(err))

	statuses.AssertNotCalled(t, "AutomationStatuses", mock.Anything, mock.Anything)
}

func TestFetchIssues_NoStatusSource(t *testing.T) {
	issues := &mockIssueSource{}
	criteria := model.DefaultFilterCriteria()
	issues.On("ListIssues", mock.Anything, testRepo, criteria).Return(twoIssues(), nil)

	got, err := New(issues, nil, nil).FetchIssues(context.Background(), testRepo, criteria)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestOverview(t *testing.T) {
	issues := &mockIssueSource{}
	statuses := &mockStatusSource{}
	criteria := model.DefaultFilterCriteria()

	good := model.RepoRef{Owner: "octo", Name: "hello"}
	bad := model.RepoRef{Owner: "octo", Name: "private"}
	other := model.RepoRef{Owner: "octo", Name: "world"}

	issues.On("ListIssues", mock.Anything, good, criteria).Return(twoIssues(), nil)
	issues.On("ListIssues", mock.Anything, bad, criteria).
		Return(nil, &remote.RemoteFetchError{Op: "list issues", StatusCode: http.StatusNotFound, Status: "404 Not Found"})
	issues.On("ListIssues", mock.Anything, other, criteria).Return([]model.Issue{}, nil)
	statuses.On("AutomationStatuses", mock.Anything, good).Return(map[string]model.AutomationStatus{
		"1": {Status: model.AutomationStateFailed},
	}, nil)
	statuses.On("AutomationStatuses", mock.Anything, other).Return(map[string]model.AutomationStatus{}, nil)

	result := New(issues, statuses, nil).Overview(context.Background(), []model.RepoRef{good, bad, other}, criteria, 2)

	require.Len(t, result.Repos, 2)
	assert.Equal(t, good, result.Repos[0].Repo)
	assert.Equal(t, 2, result.Repos[0].Issues)
	assert.Equal(t, model.AutomationSummary{Failed: 1, Untracked: 1}, result.Repos[0].Summary)
	assert.Equal(t, other, result.Repos[1].Repo)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "octo/private", result.Errors[0].Repo)
	assert.Contains(t, result.Errors[0].Message, "404")

	assert.Equal(t, 2, result.Totals.Total())
}

func TestOverview_StopsAfterCancel(t *testing.T) {
	issues := &mockIssueSource{}
	criteria := model.DefaultFilterCriteria()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := model.RepoRef{Owner: "octo", Name: "hello"}
	second := model.RepoRef{Owner: "octo", Name: "world"}
	third := model.RepoRef{Owner: "octo", Name: "moon"}

	issues.On("ListIssues", mock.Anything, first, criteria).
		Run(func(mock.Arguments) { cancel() }).
		Return(twoIssues(), nil)

	// A single worker runs the jobs in order, so the later repositories see
	// the cancelled context.
	result := New(issues, nil, nil).Overview(ctx, []model.RepoRef{first, second, third}, criteria, 1)

	require.Len(t, result.Repos, 1)
	assert.Equal(t, first, result.Repos[0].Repo)
	require.Len(t, result.Errors, 2)
	for _, e := range result.Errors {
		assert.Contains(t, e.Message, context.Canceled.Error())
	}
	issues.AssertNotCalled(t, "ListIssues", mock.Anything, second, mock.Anything)
	issues.AssertNotCalled(t, "ListIssues", mock.Anything, third, mock.Anything)
}
