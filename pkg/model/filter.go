package model

import "github.com/samber/mo"

// StateFilter selects issues by lifecycle state.
type StateFilter string

const (
	StateFilterAll    StateFilter = "all"
	StateFilterOpen   StateFilter = "open"
	StateFilterClosed StateFilter = "closed"
)

// SortField is the field issues are sorted by.
type SortField string

const (
	SortCreated  SortField = "created"
	SortUpdated  SortField = "updated"
	SortComments SortField = "comments"
)

// SortDirection is the sort order.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// FilterCriteria is the full set of server-side issue filters.
// It is always fully populated.
type FilterCriteria struct {
	State     StateFilter   `json:"state" yaml:"state"`
	Assignee  string        `json:"assignee" yaml:"assignee"`
	Label     string        `json:"label" yaml:"label"`
	Sort      SortField     `json:"sort" yaml:"sort"`
	Direction SortDirection `json:"direction" yaml:"direction"`
}

// DefaultFilterCriteria returns all issues, newest first.
func DefaultFilterCriteria() FilterCriteria {
	return FilterCriteria{
		State:     StateFilterAll,
		Sort:      SortCreated,
		Direction: SortDesc,
	}
}

// FilterUpdate is a partial update of FilterCriteria. Absent fields leave
// the existing value in place.
type FilterUpdate struct {
	State     mo.Option[StateFilter]
	Assignee  mo.Option[string]
	Label     mo.Option[string]
	Sort      mo.Option[SortField]
	Direction mo.Option[SortDirection]
}

// IsEmpty reports whether the update carries no fields.
func (u FilterUpdate) IsEmpty() bool {
	return u.State.IsAbsent() && u.Assignee.IsAbsent() && u.Label.IsAbsent() &&
		u.Sort.IsAbsent() && u.Direction.IsAbsent()
}

// Merge combines two updates; fields present in other win.
func (u FilterUpdate) Merge(other FilterUpdate) FilterUpdate {
	if other.State.IsPresent() {
		u.State = other.State
	}
	if other.Assignee.IsPresent() {
		u.Assignee = other.Assignee
	}
	if other.Label.IsPresent() {
		u.Label = other.Label
	}
	if other.Sort.IsPresent() {
		u.Sort = other.Sort
	}
	if other.Direction.IsPresent() {
		u.Direction = other.Direction
	}
	return u
}

// Apply returns c with every field present in u overwritten.
func (c FilterCriteria) Apply(u FilterUpdate) FilterCriteria {
	c.State = u.State.OrElse(c.State)
	c.Assignee = u.Assignee.OrElse(c.Assignee)
	c.Label = u.Label.OrElse(c.Label)
	c.Sort = u.Sort.OrElse(c.Sort)
	c.Direction = u.Direction.OrElse(c.Direction)
	return c
}
