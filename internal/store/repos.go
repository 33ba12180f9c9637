package store

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/mo"

	"github.com/grokify/issueconductor/pkg/model"
)

// RepoState is the state of the tracked repository list.
type RepoState struct {
	Repositories []model.Repository
	Selected     mo.Option[model.Repository]
	Status       FetchStatus
	Error        string
}

// InitialRepoState returns an empty list with no selection.
func InitialRepoState() RepoState {
	return RepoState{
		Selected: mo.None[model.Repository](),
		Status:   StatusIdle,
	}
}

// Find returns the tracked repository with the given full name.
func (s RepoState) Find(fullName string) (model.Repository, bool) {
	idx := slices.IndexFunc(s.Repositories, func(r model.Repository) bool {
		return strings.EqualFold(r.FullName, fullName)
	})
	if idx < 0 {
		return model.Repository{}, false
	}
	return s.Repositories[idx], true
}

// SelectedRef returns the owner/name of the selected repository.
func (s RepoState) SelectedRef() (model.RepoRef, bool) {
	r, ok := s.Selected.Get()
	if !ok {
		return model.RepoRef{}, false
	}
	return r.Ref(), true
}

// ReposLoading marks a list load as started.
type ReposLoading struct{}

func (ReposLoading) Reduce(s RepoState) RepoState {
	s.Status = StatusLoading
	s.Error = ""
	return s
}

// ReposLoaded replaces the list. A selection that is no longer tracked is
// cleared; one that is still tracked is refreshed.
type ReposLoaded struct {
	Repositories []model.Repository
}

func (a ReposLoaded) Reduce(s RepoState) RepoState {
	s.Repositories = a.Repositories
	s.Status = StatusSucceeded
	s.Error = ""
	if sel, ok := s.Selected.Get(); ok {
		if r, found := s.Find(sel.FullName); found {
			s.Selected = mo.Some(r)
		} else {
			s.Selected = mo.None[model.Repository]()
		}
	}
	return s
}

// ReposFailed records a failed operation. The list is kept.
type ReposFailed struct {
	Message string
}

func (a ReposFailed) Reduce(s RepoState) RepoState {
	s.Status = StatusFailed
	s.Error = a.Message
	return s
}

// RepoAdded appends a newly tracked repository.
type RepoAdded struct {
	Repository model.Repository
}

func (a RepoAdded) Reduce(s RepoState) RepoState {
	repos := make([]model.Repository, 0, len(s.Repositories)+1)
	repos = append(repos, s.Repositories...)
	s.Repositories = append(repos, a.Repository)
	s.Error = ""
	return s
}

// RepoRemoved drops a repository and clears the selection if it was selected.
type RepoRemoved struct {
	ID string
}

func (a RepoRemoved) Reduce(s RepoState) RepoState {
	s.Repositories = slices.DeleteFunc(slices.Clone(s.Repositories), func(r model.Repository) bool {
		return r.ID == a.ID
	})
	if sel, ok := s.Selected.Get(); ok && sel.ID == a.ID {
		s.Selected = mo.None[model.Repository]()
	}
	s.Error = ""
	return s
}

// RepoSelected sets the active repository.
type RepoSelected struct {
	Repository model.Repository
}

func (a RepoSelected) Reduce(s RepoState) RepoState {
	s.Selected = mo.Some(a.Repository)
	return s
}

// SelectionCleared removes the active repository.
type SelectionCleared struct{}

func (SelectionCleared) Reduce(s RepoState) RepoState {
	s.Selected = mo.None[model.Repository]()
	return s
}

// RepositoryService stores a user's tracked repositories.
type RepositoryService interface {
	ListRepositories(ctx context.Context, userID string) ([]model.Repository, error)
	CreateRepository(ctx context.Context, userID string, in model.RepositoryInput) (*model.Repository, error)
	DeleteRepository(ctx context.Context, userID, id string) error
}

// RepoStore is the tracked repository list together with the operations
// that load and modify it.
type RepoStore struct {
	*Store[RepoState]

	svc    RepositoryService
	userID string
	logger *slog.Logger
}

// NewRepoStore creates a repository store for userID.
func NewRepoStore(svc RepositoryService, userID string, logger *slog.Logger) *RepoStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RepoStore{
		Store:  New(InitialRepoState()),
		svc:    svc,
		userID: userID,
		logger: logger,
	}
}

// Load fetches the user's repositories.
func (s *RepoStore) Load(ctx context.Context) error {
	s.Dispatch(ReposLoading{})
	repos, err := s.svc.ListRepositories(ctx, s.userID)
	if err != nil {
		s.Dispatch(ReposFailed{Message: errorMessage(err)})
		return err
	}
	s.Dispatch(ReposLoaded{Repositories: repos})
	return nil
}

// Add starts tracking a repository. Empty required fields and a full name
// already in the list are rejected without contacting the service. A
// duplicate the service rejects maps to ErrAlreadyAdded as well.
func (s *RepoStore) Add(ctx context.Context, in model.RepositoryInput) (*model.Repository, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.FullName = strings.TrimSpace(in.FullName)
	in.URL = strings.TrimSpace(in.URL)

	if err := validateInput(in); err != nil {
		s.Dispatch(ReposFailed{Message: err.Error()})
		return nil, err
	}
	if _, exists := s.State().Find(in.FullName); exists {
		s.Dispatch(ReposFailed{Message: ErrAlreadyAdded.Error()})
		return nil, ErrAlreadyAdded
	}

	repo, err := s.svc.CreateRepository(ctx, s.userID, in)
	if err != nil {
		if isConflict(err) {
			s.logger.Debug("service rejected duplicate repository", "repo", in.FullName)
			err = ErrAlreadyAdded
		}
		s.Dispatch(ReposFailed{Message: errorMessage(err)})
		return nil, err
	}

	s.Dispatch(RepoAdded{Repository: *repo})
	return repo, nil
}

func validateInput(in model.RepositoryInput) error {
	switch {
	case in.Name == "":
		return &ValidationError{Field: "name"}
	case in.FullName == "":
		return &ValidationError{Field: "full name"}
	case in.URL == "":
		return &ValidationError{Field: "url"}
	}
	if ref := model.ParseRepoRef(in.FullName); !ref.IsValid() {
		return &ValidationError{Field: "full name", Reason: "must be owner/name"}
	}
	return nil
}

// Delete stops tracking a repository.
func (s *RepoStore) Delete(ctx context.Context, id string) error {
	if err := s.svc.DeleteRepository(ctx, s.userID, id); err != nil {
		s.Dispatch(ReposFailed{Message: errorMessage(err)})
		return err
	}
	s.Dispatch(RepoRemoved{ID: id})
	return nil
}

// Select makes repo the active repository. It makes no network call.
func (s *RepoStore) Select(repo model.Repository) {
	s.Dispatch(RepoSelected{Repository: repo})
}

// SelectByFullName selects a tracked repository by its owner/name.
func (s *RepoStore) SelectByFullName(fullName string) (model.Repository, error) {
	repo, ok := s.State().Find(fullName)
	if !ok {
		return model.Repository{}, ErrNotTracked
	}
	s.Select(repo)
	return repo, nil
}

// ClearSelection removes the active repository.
func (s *RepoStore) ClearSelection() {
	s.Dispatch(SelectionCleared{})
}
