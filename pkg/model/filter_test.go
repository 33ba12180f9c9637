package model

import (
	"testing"

	"github.com/samber/mo"
)

func TestFilterCriteria_ApplyPartial(t *testing.T) {
	base := FilterCriteria{
		State:     StateFilterOpen,
		Assignee:  "octocat",
		Label:     "bug",
		Sort:      SortUpdated,
		Direction: SortAsc,
	}

	tests := []struct {
		name   string
		update FilterUpdate
		want   FilterCriteria
	}{
		{
			name:   "empty update keeps everything",
			update: FilterUpdate{},
			want:   base,
		},
		{
			name:   "state only",
			update: FilterUpdate{State: mo.Some(StateFilterClosed)},
			want: FilterCriteria{
				State: StateFilterClosed, Assignee: "octocat", Label: "bug", Sort: SortUpdated, Direction: SortAsc,
			},
		},
		{
			name:   "clearing assignee with an explicit empty value",
			update: FilterUpdate{Assignee: mo.Some("")},
			want: FilterCriteria{
				State: StateFilterOpen, Assignee: "", Label: "bug", Sort: SortUpdated, Direction: SortAsc,
			},
		},
		{
			name: "sort and direction",
			update: FilterUpdate{
				Sort:      mo.Some(SortComments),
				Direction: mo.Some(SortDesc),
			},
			want: FilterCriteria{
				State: StateFilterOpen, Assignee: "octocat", Label: "bug", Sort: SortComments, Direction: SortDesc,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base.Apply(tt.update)
			if got != tt.want {
				t.Errorf("Apply() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDefaultFilterCriteria(t *testing.T) {
	got := DefaultFilterCriteria()
	want := FilterCriteria{State: StateFilterAll, Sort: SortCreated, Direction: SortDesc}
	if got != want {
		t.Errorf("DefaultFilterCriteria() = %+v, want %+v", got, want)
	}
}

func TestFilterUpdate_Merge(t *testing.T) {
	a := FilterUpdate{State: mo.Some(StateFilterOpen), Label: mo.Some("bug")}
	b := FilterUpdate{Label: mo.Some("docs")}

	got := DefaultFilterCriteria().Apply(a.Merge(b))
	if got.State != StateFilterOpen {
		t.Errorf("expected state open, got %s", got.State)
	}
	if got.Label != "docs" {
		t.Errorf("expected label docs, got %s", got.Label)
	}
	if (FilterUpdate{}).IsEmpty() != true {
		t.Error("expected zero update to be empty")
	}
	if a.IsEmpty() {
		t.Error("expected update with fields to be non-empty")
	}
}

func TestParseRepoRef(t *testing.T) {
	tests := []struct {
		in   string
		want RepoRef
	}{
		{"octo/hello", RepoRef{Owner: "octo", Name: "hello"}},
		{"octo/hello/extra", RepoRef{Owner: "octo", Name: "hello/extra"}},
		{"hello", RepoRef{Name: "hello"}},
	}
	for _, tt := range tests {
		if got := ParseRepoRef(tt.in); got != tt.want {
			t.Errorf("ParseRepoRef(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
	if (RepoRef{Name: "hello"}).IsValid() {
		t.Error("expected ref without owner to be invalid")
	}
}
