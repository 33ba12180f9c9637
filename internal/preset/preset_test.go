package preset

import (
	"path/filepath"
	"testing"

	"github.com/grokify/issueconductor/pkg/model"
)

func TestBuiltin(t *testing.T) {
	want := []string{"open", "recently-updated", "most-discussed", "closed"}
	got := Builtin()
	if len(got) != len(want) {
		t.Fatalf("Builtin() len = %d, want %d", len(got), len(want))
	}
	for i, p := range got {
		if p.Name != want[i] {
			t.Errorf("Builtin()[%d].Name = %q, want %q", i, p.Name, want[i])
		}
		if err := p.Validate(); err != nil {
			t.Errorf("built-in %s invalid: %v", p.Name, err)
		}
	}
}

func TestToUpdate_KeepsOmittedFields(t *testing.T) {
	current := model.FilterCriteria{
		State:     model.StateFilterClosed,
		Assignee:  "octocat",
		Label:     "bug",
		Sort:      model.SortCreated,
		Direction: model.SortAsc,
	}

	got := current.Apply(PresetRecentlyUpdated.ToUpdate())

	if got.State != model.StateFilterClosed {
		t.Errorf("State = %q, want closed", got.State)
	}
	if got.Assignee != "octocat" || got.Label != "bug" {
		t.Errorf("assignee/label changed: %+v", got)
	}
	if got.Sort != model.SortUpdated || got.Direction != model.SortDesc {
		t.Errorf("sort = %s %s, want updated desc", got.Sort, got.Direction)
	}
}

func TestLoadFromBytes(t *testing.T) {
	data := []byte(`
presets:
  - name: my-bugs
    description: Bugs assigned to me
    state: open
    assignee: octocat
    label: bug
  - name: triage
    search: needs triage
`)

	presets, err := LoadFromBytes(data)
	if err != nil {
		t.Fatalf("LoadFromBytes() error = %v", err)
	}
	if len(presets) != 2 {
		t.Fatalf("len = %d, want 2", len(presets))
	}

	u := presets[0].ToUpdate()
	if v, ok := u.Label.Get(); !ok || v != "bug" {
		t.Errorf("Label = %v, want bug", u.Label)
	}
	if u.Sort.IsPresent() {
		t.Error("Sort should be absent")
	}

	if q, ok := presets[1].SearchText(); !ok || q != "needs triage" {
		t.Errorf("SearchText() = %q, %v", q, ok)
	}
	if !presets[1].ToUpdate().IsEmpty() {
		t.Error("search-only preset should produce an empty filter update")
	}
}

func TestLoadFromBytes_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing name", "presets:\n  - state: open\n"},
		{"bad state", "presets:\n  - name: x\n    state: merged\n"},
		{"bad sort", "presets:\n  - name: x\n    sort: stars\n"},
		{"bad direction", "presets:\n  - name: x\n    direction: up\n"},
		{"not yaml", "presets: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromBytes([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	label := "enhancement"
	in := []Preset{{Name: "features", Label: &label}}

	if err := SaveToFile(in, path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}
	out, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if len(out) != 1 || out[0].Name != "features" || out[0].Label == nil || *out[0].Label != label {
		t.Errorf("round trip = %+v", out)
	}
}

func TestSet_OverridesBuiltin(t *testing.T) {
	s := NewSet(Preset{Name: "open", Description: "custom"})

	p, ok := s.Get("open")
	if !ok || p.Description != "custom" {
		t.Errorf("Get(open) = %+v, %v", p, ok)
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("Get(missing) should fail")
	}
	if n := len(s.Names()); n != 4 {
		t.Errorf("Names() len = %d, want 4", n)
	}
	if s.List()[0].Name != "closed" {
		t.Errorf("List() not sorted: %s", s.List()[0].Name)
	}
}
