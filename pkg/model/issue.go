package model

import (
	"strconv"
	"time"

	"github.com/samber/mo"
)

// IssueState is the lifecycle state of an issue.
type IssueState string

const (
	IssueStateOpen   IssueState = "open"
	IssueStateClosed IssueState = "closed"
)

// Issue represents a GitHub issue, decorated with its automation status.
type Issue struct {
	ID        int64      `json:"id"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      *string    `json:"body"`
	State     IssueState `json:"state"`
	Author    User       `json:"author"`
	Labels    []Label    `json:"labels,omitempty"`
	Assignees []User     `json:"assignees,omitempty"`
	Comments  int        `json:"comments"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`
	HTMLURL   string     `json:"htmlUrl"`

	// AutomationStatus is absent until a status mapping containing this
	// issue's number has been merged in.
	AutomationStatus mo.Option[AutomationStatus] `json:"automationStatus"`
}

// Key returns the issue number as the string used to look up automation status.
func (i Issue) Key() string {
	return strconv.Itoa(i.Number)
}

// BodyText returns the body or an empty string when the body is null.
func (i Issue) BodyText() string {
	if i.Body == nil {
		return ""
	}
	return *i.Body
}

// AgeHours returns the age of the issue in hours.
func (i Issue) AgeHours() int {
	return int(time.Since(i.CreatedAt).Hours())
}

// LabelNames returns the names of the issue's labels.
func (i Issue) LabelNames() []string {
	names := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		names = append(names, l.Name)
	}
	return names
}

// AssigneeLogins returns the logins of the issue's assignees.
func (i Issue) AssigneeLogins() []string {
	logins := make([]string, 0, len(i.Assignees))
	for _, a := range i.Assignees {
		logins = append(logins, a.Login)
	}
	return logins
}

// Label is a named, colored issue label.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// User is a GitHub account.
type User struct {
	Login     string `json:"login"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Comment is a comment on an issue.
type Comment struct {
	ID        int64     `json:"id"`
	Author    User      `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	HTMLURL   string    `json:"htmlUrl"`
}
