package model

import "time"

// Repository is a GitHub repository tracked by a user.
type Repository struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId,omitempty"`
	Name        string    `json:"name"`
	FullName    string    `json:"fullName"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Ref returns the owner/name pair derived from the repository full name.
func (r Repository) Ref() RepoRef {
	return ParseRepoRef(r.FullName)
}

// RepositoryInput holds the fields required to start tracking a repository.
type RepositoryInput struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
}

// GitHubRepo is a repository as listed by the GitHub API for the authenticated user.
type GitHubRepo struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"fullName"`
	Description     string    `json:"description,omitempty"`
	HTMLURL         string    `json:"htmlUrl"`
	CloneURL        string    `json:"cloneUrl,omitempty"`
	Private         bool      `json:"private"`
	Language        string    `json:"language,omitempty"`
	StargazersCount int       `json:"stargazersCount"`
	ForksCount      int       `json:"forksCount"`
	OpenIssuesCount int       `json:"openIssuesCount"`
	Topics          []string  `json:"topics,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Input converts a browsed repository into the fields needed to track it.
func (r GitHubRepo) Input() RepositoryInput {
	return RepositoryInput{
		Name:        r.Name,
		FullName:    r.FullName,
		Description: r.Description,
		URL:         r.HTMLURL,
	}
}

// RepoListOptions controls listing of the authenticated user's GitHub repositories.
type RepoListOptions struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`

	// Refresh bypasses and replaces a cached page.
	Refresh bool `json:"-"`
}

// RepoRef is a lightweight reference to a repository.
type RepoRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// FullName returns the full repository name in owner/repo format.
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// IsValid reports whether both owner and name are set.
func (r RepoRef) IsValid() bool {
	return r.Owner != "" && r.Name != ""
}

// ParseRepoRef parses a full name like "owner/repo" into a RepoRef.
func ParseRepoRef(fullName string) RepoRef {
	for i := 0; i < len(fullName); i++ {
		if fullName[i] == '/' {
			return RepoRef{
				Owner: fullName[:i],
				Name:  fullName[i+1:],
			}
		}
	}
	return RepoRef{Name: fullName}
}
