package store

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/grokify/issueconductor/internal/remote"
	"github.com/grokify/issueconductor/pkg/model"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchIssues(ctx context.Context, repo model.RepoRef, criteria model.FilterCriteria) ([]model.Issue, error) {
	args := m.Called(ctx, repo, criteria)
	if v := args.Get(0); v != nil {
		return v.([]model.Issue), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRetrier struct {
	mock.Mock
}

func (m *mockRetrier) RetryAutomation(ctx context.Context, repo model.RepoRef, number int, userID string) error {
	return m.Called(ctx, repo, number, userID).Error(0)
}

type mockRepoService struct {
	mock.Mock
}

func (m *mockRepoService) ListRepositories(ctx context.Context, userID string) ([]model.Repository, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]model.Repository), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepoService) CreateRepository(ctx context.Context, userID string, in model.RepositoryInput) (*model.Repository, error) {
	args := m.Called(ctx, userID, in)
	if v := args.Get(0); v != nil {
		return v.(*model.Repository), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepoService) DeleteRepository(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

var (
	helloRef = model.RepoRef{Owner: "octo", Name: "hello"}
	worldRef = model.RepoRef{Owner: "octo", Name: "world"}

	helloRepo = model.Repository{ID: "r1", Name: "hello", FullName: "octo/hello", URL: "https://github.com/octo/hello"}
	worldRepo = model.Repository{ID: "r2", Name: "world", FullName: "octo/world", URL: "https://github.com/octo/world"}
)

func sampleIssues(numbers ...int) []model.Issue {
	out := make([]model.Issue, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, model.Issue{
			Number:           n,
			Title:            "issue",
			AutomationStatus: mo.None[model.AutomationStatus](),
		})
	}
	return out
}

func TestStore_DispatchAndSubscribe(t *testing.T) {
	s := New(InitialIssueState())

	var seen []string
	unsubscribe := s.Subscribe(func(st IssueState) { seen = append(seen, st.Search) })

	s.Dispatch(SearchChanged{Query: "a"})
	s.Dispatch(SearchChanged{Query: "b"})
	unsubscribe()
	s.Dispatch(SearchChanged{Query: "c"})

	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, "c", s.State().Search)
}

func TestIssueStore_FetchSuccess(t *testing.T) {
	f := &mockFetcher{}
	f.On("FetchIssues", mock.Anything, helloRef, model.DefaultFilterCriteria()).Return(sampleIssues(1, 2), nil)

	s := NewIssueStore(f, &mockRetrier{})
	var statuses []FetchStatus
	s.Subscribe(func(st IssueState) { statuses = append(statuses, st.Status) })

	require.NoError(t, s.Fetch(context.Background(), helloRef))

	st := s.State()
	assert.Equal(t, StatusSucceeded, st.Status)
	assert.Len(t, st.Issues, 2)
	assert.Equal(t, helloRef, st.Repo)
	assert.Empty(t, st.Error)
	assert.Equal(t, []FetchStatus{StatusLoading, StatusSucceeded}, statuses)
}

func TestIssueStore_FetchForbiddenKeepsList(t *testing.T) {
	f := &mockFetcher{}
	f.On("FetchIssues", mock.Anything, helloRef, mock.Anything).Return(sampleIssues(1, 2), nil).Once()
	f.On("FetchIssues", mock.Anything, helloRef, mock.Anything).
		Return(nil, &remote.RemoteFetchError{Op: "list issues octo/hello", StatusCode: http.StatusForbidden, Status: "403 Forbidden"}).Once()

	s := NewIssueStore(f, &mockRetrier{})
	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx, helloRef))

	err := s.Fetch(ctx, helloRef)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, remote.StatusCode(err))

	st := s.State()
	assert.Equal(t, StatusFailed, st.Status)
	assert.Contains(t, st.Error, "403")
	assert.Len(t, st.Issues, 2, "previous list must be kept")
}

func TestIssueStore_FetchNetworkError(t *testing.T) {
	f := &mockFetcher{}
	f.On("FetchIssues", mock.Anything, helloRef, mock.Anything).
		Return(nil, &remote.NetworkError{Op: "list issues octo/hello", Err: errors.New("dial tcp: connection refused")})

	s := NewIssueStore(f, &mockRetrier{})
	require.Error(t, s.Fetch(context.Background(), helloRef))

	st := s.State()
	assert.Equal(t, StatusFailed, st.Status)
	assert.Contains(t, st.Error, "network error")
	assert.NotContains(t, st.Error, "dial tcp")
}

// blockingFetcher returns each call's result only when released.
type blockingFetcher struct {
	mu      sync.Mutex
	started chan model.RepoRef
	release map[model.RepoRef]chan []model.Issue
}

func newBlockingFetcher(refs ...model.RepoRef) *blockingFetcher {
	b := &blockingFetcher{
		started: make(chan model.RepoRef, len(refs)),
		release: make(map[model.RepoRef]chan []model.Issue),
	}
	for _, r := range refs {
		b.release[r] = make(chan []model.Issue, 1)
	}
	return b
}

func (b *blockingFetcher) FetchIssues(ctx context.Context, repo model.RepoRef, _ model.FilterCriteria) ([]model.Issue, error) {
	b.mu.Lock()
	ch := b.release[repo]
	b.mu.Unlock()
	b.started <- repo
	return <-ch, nil
}

func TestIssueStore_StaleResultDropped(t *testing.T) {
	f := newBlockingFetcher(helloRef, worldRef)
	s := NewIssueStore(f, &mockRetrier{})
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Fetch(ctx, helloRef)
	}()
	<-f.started

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Fetch(ctx, worldRef)
	}()
	<-f.started

	// The newer request completes first, then the older one lands.
	f.release[worldRef] <- sampleIssues(20)
	require.Eventually(t, func() bool { return s.State().Status == StatusSucceeded }, timeout, tick)
	f.release[helloRef] <- sampleIssues(10, 11)
	wg.Wait()

	st := s.State()
	assert.Equal(t, worldRef, st.Repo)
	require.Len(t, st.Issues, 1)
	assert.Equal(t, 20, st.Issues[0].Number)
}

func TestIssueStore_ClearDropsInFlight(t *testing.T) {
	f := newBlockingFetcher(helloRef)
	s := NewIssueStore(f, &mockRetrier{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Fetch(context.Background(), helloRef)
	}()
	<-f.started

	s.Clear()
	f.release[helloRef] <- sampleIssues(1)
	<-done

	st := s.State()
	assert.Empty(t, st.Issues)
	assert.Equal(t, StatusIdle, st.Status)
}

func TestIssueStore_SetFiltersPartial(t *testing.T) {
	s := NewIssueStore(&mockFetcher{}, &mockRetrier{})

	s.SetFilters(model.FilterUpdate{State: mo.Some(model.StateFilterOpen), Label: mo.Some("bug")})
	got := s.SetFilters(model.FilterUpdate{Sort: mo.Some(model.SortComments)})

	assert.Equal(t, model.FilterCriteria{
		State:     model.StateFilterOpen,
		Label:     "bug",
		Sort:      model.SortComments,
		Direction: model.SortDesc,
	}, got)

	assert.Equal(t, model.DefaultFilterCriteria(), s.ResetFilters())
}

func TestIssueStore_InitialFilters(t *testing.T) {
	c := model.FilterCriteria{State: model.StateFilterClosed, Sort: model.SortUpdated, Direction: model.SortAsc}
	s := NewIssueStore(&mockFetcher{}, &mockRetrier{}, WithInitialFilters(c))
	assert.Equal(t, c, s.State().Filters)
}

func TestIssueState_Visible(t *testing.T) {
	body := "Crash when Parsing config"
	st := IssueState{Issues: []model.Issue{
		{Number: 1, Title: "Add dark mode"},
		{Number: 2, Title: "Fix startup", Body: &body},
		{Number: 13, Title: "Docs", Labels: []model.Label{{Name: "Documentation"}}},
	}}

	tests := []struct {
		search string
		want   []int
	}{
		{"", []int{1, 2, 13}},
		{"DARK", []int{1}},
		{"parsing", []int{2}},
		{"#13", []int{13}},
		{"#1", []int{1, 13}},
		{"documentation", []int{13}},
		{"nothing", nil},
	}
	for _, tt := range tests {
		st.Search = tt.search
		var got []int
		for _, i := range st.Visible() {
			got = append(got, i.Number)
		}
		assert.Equal(t, tt.want, got, "search %q", tt.search)
	}
}

func TestIssueStore_RetryAutomationPending(t *testing.T) {
	f := &mockFetcher{}
	f.On("FetchIssues", mock.Anything, helloRef, mock.Anything).Return(sampleIssues(41, 42), nil)
	r := &mockRetrier{}
	r.On("RetryAutomation", mock.Anything, helloRef, 42, "user-1").Return(nil)

	s := NewIssueStore(f, r, WithUserID("user-1"))
	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx, helloRef))
	require.NoError(t, s.RetryAutomation(ctx, 42))

	st := s.State()
	got, ok := st.Issues[1].AutomationStatus.Get()
	require.True(t, ok)
	assert.Equal(t, model.AutomationStatus{Status: model.AutomationStatePending}, got)
	assert.True(t, st.Issues[0].AutomationStatus.IsAbsent())
	r.AssertExpectations(t)
}

func TestIssueStore_RetryAutomationFailure(t *testing.T) {
	failed := model.AutomationStatus{Status: model.AutomationStateFailed, ErrorMessage: "boom"}
	issues := sampleIssues(42)
	issues[0].AutomationStatus = mo.Some(failed)

	f := &mockFetcher{}
	f.On("FetchIssues", mock.Anything, helloRef, mock.Anything).Return(issues, nil)
	r := &mockRetrier{}
	r.On("RetryAutomation", mock.Anything, helloRef, 42, "").
		Return(&remote.RemoteFetchError{Op: "retry automation", StatusCode: http.StatusServiceUnavailable})

	s := NewIssueStore(f, r)
	ctx := context.Background()
	require.NoError(t, s.Fetch(ctx, helloRef))

	err := s.RetryAutomation(ctx, 42)
	require.Error(t, err)

	st := s.State()
	assert.Equal(t, failed, st.Issues[0].AutomationStatus.MustGet())
	assert.Contains(t, st.Error, "503")
	assert.Equal(t, StatusSucceeded, st.Status)
}

func TestIssueStore_RetryWithoutRepo(t *testing.T) {
	s := NewIssueStore(&mockFetcher{}, &mockRetrier{})
	assert.ErrorIs(t, s.RetryAutomation(context.Background(), 1), ErrNoSelection)
}

func TestRepoStore_LoadAndSelect(t *testing.T) {
	svc := &mockRepoService{}
	svc.On("ListRepositories", mock.Anything, "user-1").Return([]model.Repository{helloRepo, worldRepo}, nil).Once()
	svc.On("ListRepositories", mock.Anything, "user-1").Return([]model.Repository{worldRepo}, nil).Once()

	s := NewRepoStore(svc, "user-1", nil)
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))
	assert.Len(t, s.State().Repositories, 2)

	_, err := s.SelectByFullName("octo/missing")
	assert.ErrorIs(t, err, ErrNotTracked)

	_, err = s.SelectByFullName("OCTO/Hello")
	require.NoError(t, err)
	ref, ok := s.State().SelectedRef()
	require.True(t, ok)
	assert.Equal(t, helloRef, ref)

	// hello is gone after the reload, so the selection is dropped.
	require.NoError(t, s.Load(ctx))
	assert.True(t, s.State().Selected.IsAbsent())

	s.Select(worldRepo)
	s.ClearSelection()
	assert.True(t, s.State().Selected.IsAbsent())
}

func TestRepoStore_LoadFailure(t *testing.T) {
	svc := &mockRepoService{}
	svc.On("ListRepositories", mock.Anything, "user-1").
		Return(nil, &remote.RemoteFetchError{Op: "list repositories", StatusCode: http.StatusInternalServerError})

	s := NewRepoStore(svc, "user-1", nil)
	require.Error(t, s.Load(context.Background()))
	assert.Equal(t, StatusFailed, s.State().Status)
	assert.Contains(t, s.State().Error, "500")
}

func TestRepoStore_AddDuplicateMakesNoCall(t *testing.T) {
	svc := &mockRepoService{}
	svc.On("ListRepositories", mock.Anything, "user-1").Return([]model.Repository{helloRepo}, nil)

	s := NewRepoStore(svc, "user-1", nil)
	require.NoError(t, s.Load(context.Background()))

	_, err := s.Add(context.Background(), model.RepositoryInput{
		Name:     "hello",
		FullName: "octo/hello",
		URL:      "https://github.com/octo/hello",
	})
	assert.ErrorIs(t, err, ErrAlreadyAdded)
	assert.Contains(t, s.State().Error, "already added")
	svc.AssertNotCalled(t, "CreateRepository", mock.Anything, mock.Anything, mock.Anything)
}

func TestRepoStore_AddServerConflict(t *testing.T) {
	in := model.RepositoryInput{Name: "world", FullName: "octo/world", URL: "https://github.com/octo/world"}
	svc := &mockRepoService{}
	svc.On("CreateRepository", mock.Anything, "user-1", in).
		Return(nil, &remote.RemoteFetchError{Op: "create repository", StatusCode: http.StatusConflict, Message: "Repository already exists"})

	s := NewRepoStore(svc, "user-1", nil)
	_, err := s.Add(context.Background(), in)
	assert.ErrorIs(t, err, ErrAlreadyAdded)
	assert.Equal(t, ErrAlreadyAdded.Error(), s.State().Error)
	assert.Empty(t, s.State().Repositories)
}

func TestRepoStore_AddValidation(t *testing.T) {
	svc := &mockRepoService{}
	s := NewRepoStore(svc, "user-1", nil)

	tests := []struct {
		in    model.RepositoryInput
		field string
	}{
		{model.RepositoryInput{FullName: "octo/x", URL: "u"}, "name"},
		{model.RepositoryInput{Name: "x", FullName: "  ", URL: "u"}, "full name"},
		{model.RepositoryInput{Name: "x", FullName: "octo/x"}, "url"},
		{model.RepositoryInput{Name: "x", FullName: "x", URL: "u"}, "full name"},
	}
	for _, tt := range tests {
		_, err := s.Add(context.Background(), tt.in)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, tt.field, ve.Field)
	}
	svc.AssertNotCalled(t, "CreateRepository", mock.Anything, mock.Anything, mock.Anything)
}

func TestRepoStore_AddAndDelete(t *testing.T) {
	in := model.RepositoryInput{Name: "world", FullName: "octo/world", URL: "https://github.com/octo/world"}
	svc := &mockRepoService{}
	svc.On("CreateRepository", mock.Anything, "user-1", in).Return(&worldRepo, nil)
	svc.On("DeleteRepository", mock.Anything, "user-1", "r2").Return(nil)

	s := NewRepoStore(svc, "user-1", nil)
	ctx := context.Background()

	repo, err := s.Add(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "r2", repo.ID)
	s.Select(*repo)

	require.NoError(t, s.Delete(ctx, "r2"))
	assert.Empty(t, s.State().Repositories)
	assert.True(t, s.State().Selected.IsAbsent(), "deleting the selection clears it")
}

func TestDashboard_SelectFetchesIssues(t *testing.T) {
	svc := &mockRepoService{}
	svc.On("ListRepositories", mock.Anything, "user-1").Return([]model.Repository{helloRepo, worldRepo}, nil)
	f := &mockFetcher{}
	f.On("FetchIssues", mock.Anything, helloRef, model.DefaultFilterCriteria()).Return(sampleIssues(1), nil)

	d := NewDashboard(NewRepoStore(svc, "user-1", nil), NewIssueStore(f, &mockRetrier{}), nil)
	ctx := context.Background()
	require.NoError(t, d.Repos.Load(ctx))

	require.NoError(t, d.Select(ctx, "octo/hello"))
	assert.Equal(t, helloRef, d.Issues.State().Repo)
	assert.Len(t, d.Issues.State().Issues, 1)
	f.AssertExpectations(t)
}

func TestDashboard_ApplyFiltersRefetches(t *testing.T) {
	svc := &mockRepoService{}
	svc.On("ListRepositories", mock.Anything, "user-1").Return([]model.Repository{helloRepo}, nil)

	open := model.DefaultFilterCriteria()
	open.State = model.StateFilterOpen
	f := &mockFetcher{}
	f.On("FetchIssues", mock.Anything, helloRef, model.DefaultFilterCriteria()).Return(sampleIssues(1, 2), nil)
	f.On("FetchIssues", mock.Anything, helloRef, open).Return(sampleIssues(2), nil)

	d := NewDashboard(NewRepoStore(svc, "user-1", nil), NewIssueStore(f, &mockRetrier{}), nil)
	ctx := context.Background()

	// No selection: filters change but nothing is fetched.
	require.NoError(t, d.ApplyFilters(ctx, model.FilterUpdate{Direction: mo.Some(model.SortDesc)}))
	f.AssertNotCalled(t, "FetchIssues", mock.Anything, mock.Anything, mock.Anything)
	assert.ErrorIs(t, d.Refresh(ctx), ErrNoSelection)

	require.NoError(t, d.Repos.Load(ctx))
	require.NoError(t, d.Select(ctx, "octo/hello"))
	require.NoError(t, d.ApplyFilters(ctx, model.FilterUpdate{State: mo.Some(model.StateFilterOpen)}))

	assert.Len(t, d.Issues.State().Issues, 1)
	f.AssertExpectations(t)
}

func TestDashboard_DeleteSelectedClearsIssues(t *testing.T) {
	svc := &mockRepoService{}
	svc.On("ListRepositories", mock.Anything, "user-1").Return([]model.Repository{helloRepo, worldRepo}, nil)
	svc.On("DeleteRepository", mock.Anything, "user-1", mock.Anything).Return(nil)
	f := &mockFetcher{}
	f.On("FetchIssues", mock.Anything, helloRef, mock.Anything).Return(sampleIssues(1), nil)

	d := NewDashboard(NewRepoStore(svc, "user-1", nil), NewIssueStore(f, &mockRetrier{}), nil)
	ctx := context.Background()
	require.NoError(t, d.Repos.Load(ctx))
	require.NoError(t, d.Select(ctx, "octo/hello"))

	// Deleting another repository leaves the issues alone.
	require.NoError(t, d.Delete(ctx, "r2"))
	assert.Len(t, d.Issues.State().Issues, 1)

	require.NoError(t, d.Delete(ctx, "r1"))
	assert.Empty(t, d.Issues.State().Issues)
	assert.True(t, d.Repos.State().Selected.IsAbsent())
}

func TestDashboard_RetryAutomation(t *testing.T) {
	svc := &mockRepoService{}
	svc.On("ListRepositories", mock.Anything, "user-1").Return([]model.Repository{helloRepo}, nil)
	f := &mockFetcher{}
	f.On("FetchIssues", mock.Anything, helloRef, mock.Anything).Return(sampleIssues(42), nil)
	r := &mockRetrier{}
	r.On("RetryAutomation", mock.Anything, helloRef, 42, "user-1").Return(nil)

	d := NewDashboard(NewRepoStore(svc, "user-1", nil), NewIssueStore(f, r, WithUserID("user-1")), nil)
	ctx := context.Background()
	assert.ErrorIs(t, d.RetryAutomation(ctx, 42), ErrNoSelection)

	require.NoError(t, d.Repos.Load(ctx))
	require.NoError(t, d.Select(ctx, "octo/hello"))
	require.NoError(t, d.RetryAutomation(ctx, 42))

	assert.Equal(t, model.AutomationStatePending, d.Issues.State().Issues[0].AutomationStatus.MustGet().Status)
}
