package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/samber/mo"

	"github.com/grokify/issueconductor/internal/remote"
	"github.com/grokify/issueconductor/pkg/model"
)

// FetchStatus is the lifecycle of the most recent fetch.
type FetchStatus string

const (
	StatusIdle      FetchStatus = "idle"
	StatusLoading   FetchStatus = "loading"
	StatusSucceeded FetchStatus = "succeeded"
	StatusFailed    FetchStatus = "failed"
)

// IssueState is the state of the issue list.
type IssueState struct {
	Repo    model.RepoRef
	Issues  []model.Issue
	Filters model.FilterCriteria
	Search  string
	Status  FetchStatus
	Error   string

	// RequestSeq tags the latest fetch. Results carrying an older tag are
	// dropped.
	RequestSeq uint64
}

// InitialIssueState returns an empty list with default filters.
func InitialIssueState() IssueState {
	return IssueState{
		Filters: model.DefaultFilterCriteria(),
		Status:  StatusIdle,
	}
}

// Visible returns the issues matching the free-text search. The search is
// case-insensitive and matches the title, body, "#number" and label names.
func (s IssueState) Visible() []model.Issue {
	q := strings.ToLower(strings.TrimSpace(s.Search))
	if q == "" {
		return s.Issues
	}
	var out []model.Issue
	for _, issue := range s.Issues {
		if matchesSearch(issue, q) {
			out = append(out, issue)
		}
	}
	return out
}

func matchesSearch(issue model.Issue, q string) bool {
	if strings.Contains(strings.ToLower(issue.Title), q) ||
		strings.Contains(strings.ToLower(issue.BodyText()), q) ||
		strings.Contains("#"+strconv.Itoa(issue.Number), q) {
		return true
	}
	for _, l := range issue.Labels {
		if strings.Contains(strings.ToLower(l.Name), q) {
			return true
		}
	}
	return false
}

// FetchPending marks a fetch as started.
type FetchPending struct {
	Seq  uint64
	Repo model.RepoRef
}

func (a FetchPending) Reduce(s IssueState) IssueState {
	if a.Seq <= s.RequestSeq {
		return s
	}
	s.RequestSeq = a.Seq
	s.Repo = a.Repo
	s.Status = StatusLoading
	s.Error = ""
	return s
}

// FetchFulfilled replaces the list with a fetch result.
type FetchFulfilled struct {
	Seq    uint64
	Issues []model.Issue
}

func (a FetchFulfilled) Reduce(s IssueState) IssueState {
	if a.Seq != s.RequestSeq {
		return s
	}
	s.Issues = a.Issues
	s.Status = StatusSucceeded
	s.Error = ""
	return s
}

// FetchRejected records a failed fetch. The previous list is kept.
type FetchRejected struct {
	Seq     uint64
	Message string
}

func (a FetchRejected) Reduce(s IssueState) IssueState {
	if a.Seq != s.RequestSeq {
		return s
	}
	s.Status = StatusFailed
	s.Error = a.Message
	return s
}

// FiltersUpdated merges a partial filter update into the current filters.
type FiltersUpdated struct {
	Update model.FilterUpdate
}

func (a FiltersUpdated) Reduce(s IssueState) IssueState {
	s.Filters = s.Filters.Apply(a.Update)
	return s
}

// FiltersReset restores the default filters.
type FiltersReset struct{}

func (FiltersReset) Reduce(s IssueState) IssueState {
	s.Filters = model.DefaultFilterCriteria()
	return s
}

// SearchChanged sets the free-text search.
type SearchChanged struct {
	Query string
}

func (a SearchChanged) Reduce(s IssueState) IssueState {
	s.Search = a.Query
	return s
}

// AutomationStatusSet replaces the automation status of one issue.
type AutomationStatusSet struct {
	Number int
	Status model.AutomationStatus
}

func (a AutomationStatusSet) Reduce(s IssueState) IssueState {
	idx := slices.IndexFunc(s.Issues, func(i model.Issue) bool { return i.Number == a.Number })
	if idx < 0 {
		return s
	}
	issues := slices.Clone(s.Issues)
	issues[idx].AutomationStatus = mo.Some(a.Status)
	s.Issues = issues
	return s
}

// ErrorSet records an error that does not change the fetch status.
type ErrorSet struct {
	Message string
}

func (a ErrorSet) Reduce(s IssueState) IssueState {
	s.Error = a.Message
	return s
}

// IssuesCleared empties the list and invalidates any fetch in flight.
// Filters and search are kept.
type IssuesCleared struct {
	Seq uint64
}

func (a IssuesCleared) Reduce(s IssueState) IssueState {
	if a.Seq > s.RequestSeq {
		s.RequestSeq = a.Seq
	}
	s.Repo = model.RepoRef{}
	s.Issues = nil
	s.Status = StatusIdle
	s.Error = ""
	return s
}

// IssueFetcher loads the issues of a repository.
type IssueFetcher interface {
	FetchIssues(ctx context.Context, repo model.RepoRef, criteria model.FilterCriteria) ([]model.Issue, error)
}

// AutomationRetrier asks for automation to be rerun on an issue.
type AutomationRetrier interface {
	RetryAutomation(ctx context.Context, repo model.RepoRef, number int, userID string) error
}

// IssueStore is the issue list together with the operations that load and
// modify it.
type IssueStore struct {
	*Store[IssueState]

	fetcher IssueFetcher
	retrier AutomationRetrier
	userID  string
	logger  *slog.Logger
	filters model.FilterCriteria
	seq     atomic.Uint64
}

// IssueStoreOption configures an IssueStore.
type IssueStoreOption func(*IssueStore)

// WithUserID sets the user on whose behalf automation is retried.
func WithUserID(userID string) IssueStoreOption {
	return func(s *IssueStore) { s.userID = userID }
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) IssueStoreOption {
	return func(s *IssueStore) { s.logger = logger }
}

// WithInitialFilters sets the filters the store starts with.
func WithInitialFilters(c model.FilterCriteria) IssueStoreOption {
	return func(s *IssueStore) { s.filters = c }
}

// NewIssueStore creates an issue store.
func NewIssueStore(fetcher IssueFetcher, retrier AutomationRetrier, opts ...IssueStoreOption) *IssueStore {
	s := &IssueStore{
		fetcher: fetcher,
		retrier: retrier,
		logger:  slog.Default(),
		filters: model.DefaultFilterCriteria(),
	}
	for _, opt := range opts {
		opt(s)
	}
	initial := InitialIssueState()
	initial.Filters = s.filters
	s.Store = New(initial)
	return s
}

// Fetch loads the issues of repo using the current filters. A failure is
// recorded in the state and returned; the previous list is kept. A result
// that arrives after a newer fetch or a Clear is discarded.
func (s *IssueStore) Fetch(ctx context.Context, repo model.RepoRef) error {
	seq := s.seq.Add(1)
	st := s.Dispatch(FetchPending{Seq: seq, Repo: repo})

	issues, err := s.fetcher.FetchIssues(ctx, repo, st.Filters)
	if err != nil {
		st = s.Dispatch(FetchRejected{Seq: seq, Message: errorMessage(err)})
		if st.RequestSeq != seq {
			s.logger.Debug("dropped stale fetch error", "repo", repo.FullName(), "seq", seq)
		}
		return err
	}

	st = s.Dispatch(FetchFulfilled{Seq: seq, Issues: issues})
	if st.RequestSeq != seq {
		s.logger.Debug("dropped stale fetch result", "repo", repo.FullName(), "seq", seq)
	}
	return nil
}

// SetFilters merges a partial filter update. It does not fetch.
func (s *IssueStore) SetFilters(u model.FilterUpdate) model.FilterCriteria {
	return s.Dispatch(FiltersUpdated{Update: u}).Filters
}

// ResetFilters restores the default filters. It does not fetch.
func (s *IssueStore) ResetFilters() model.FilterCriteria {
	return s.Dispatch(FiltersReset{}).Filters
}

// SetSearch sets the free-text search applied by Visible.
func (s *IssueStore) SetSearch(q string) {
	s.Dispatch(SearchChanged{Query: q})
}

// Clear empties the list. Fetches still in flight will not be applied.
func (s *IssueStore) Clear() {
	s.Dispatch(IssuesCleared{Seq: s.seq.Add(1)})
}

// RetryAutomation requests an automation rerun for an issue of the current
// repository. On success the issue is marked pending at once; on failure its
// status is left as it was and the error is recorded.
func (s *IssueStore) RetryAutomation(ctx context.Context, number int) error {
	repo := s.State().Repo
	if !repo.IsValid() {
		return ErrNoSelection
	}
	return s.RetryAutomationFor(ctx, repo, number)
}

// RetryAutomationFor is RetryAutomation for an explicit repository.
func (s *IssueStore) RetryAutomationFor(ctx context.Context, repo model.RepoRef, number int) error {
	if err := s.retrier.RetryAutomation(ctx, repo, number, s.userID); err != nil {
		s.Dispatch(ErrorSet{Message: errorMessage(err)})
		return err
	}
	s.Dispatch(AutomationStatusSet{Number: number, Status: model.PendingAutomationStatus()})
	return nil
}

// errorMessage renders err for display. Transport failures get a generic
// message.
func errorMessage(err error) string {
	var ne *remote.NetworkError
	if errors.As(err, &ne) {
		return ne.Op + ": network error, please try again"
	}
	return err.Error()
}
