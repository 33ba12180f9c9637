// Package preset provides named issue filter presets that can be loaded
// from YAML.
package preset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/mo"
	"gopkg.in/yaml.v3"

	"github.com/grokify/issueconductor/pkg/model"
)

// Preset is a named partial filter. Nil fields leave the current filter
// value unchanged when the preset is applied.
type Preset struct {
	Name        string               `yaml:"name" json:"name"`
	Description string               `yaml:"description,omitempty" json:"description,omitempty"`
	State       *model.StateFilter   `yaml:"state,omitempty" json:"state,omitempty"`
	Assignee    *string              `yaml:"assignee,omitempty" json:"assignee,omitempty"`
	Label       *string              `yaml:"label,omitempty" json:"label,omitempty"`
	Sort        *model.SortField     `yaml:"sort,omitempty" json:"sort,omitempty"`
	Direction   *model.SortDirection `yaml:"direction,omitempty" json:"direction,omitempty"`
	Search      *string              `yaml:"search,omitempty" json:"search,omitempty"`
}

// File is the on-disk presets document.
type File struct {
	Presets []Preset `yaml:"presets"`
}

// ToUpdate converts the preset into a filter update.
func (p Preset) ToUpdate() model.FilterUpdate {
	return model.FilterUpdate{
		State:     optional(p.State),
		Assignee:  optional(p.Assignee),
		Label:     optional(p.Label),
		Sort:      optional(p.Sort),
		Direction: optional(p.Direction),
	}
}

// SearchText returns the free-text search of the preset, if it sets one.
func (p Preset) SearchText() (string, bool) {
	if p.Search == nil {
		return "", false
	}
	return *p.Search, true
}

// Validate checks the preset name and enumerated fields.
func (p Preset) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("preset name is required")
	}
	if p.State != nil {
		switch *p.State {
		case model.StateFilterAll, model.StateFilterOpen, model.StateFilterClosed:
		default:
			return fmt.Errorf("preset %s: invalid state %q", p.Name, *p.State)
		}
	}
	if p.Sort != nil {
		switch *p.Sort {
		case model.SortCreated, model.SortUpdated, model.SortComments:
		default:
			return fmt.Errorf("preset %s: invalid sort %q", p.Name, *p.Sort)
		}
	}
	if p.Direction != nil {
		switch *p.Direction {
		case model.SortAsc, model.SortDesc:
		default:
			return fmt.Errorf("preset %s: invalid direction %q", p.Name, *p.Direction)
		}
	}
	return nil
}

func optional[T any](v *T) mo.Option[T] {
	if v == nil {
		return mo.None[T]()
	}
	return mo.Some(*v)
}

func ptr[T any](v T) *T {
	return &v
}

// Built-in presets.
var (
	PresetOpen = Preset{
		Name:        "open",
		Description: "Open issues, newest first",
		State:       ptr(model.StateFilterOpen),
		Sort:        ptr(model.SortCreated),
		Direction:   ptr(model.SortDesc),
	}

	PresetRecentlyUpdated = Preset{
		Name:        "recently-updated",
		Description: "Issues in any state, most recently updated first",
		Sort:        ptr(model.SortUpdated),
		Direction:   ptr(model.SortDesc),
	}

	PresetMostDiscussed = Preset{
		Name:        "most-discussed",
		Description: "Open issues with the most comments first",
		State:       ptr(model.StateFilterOpen),
		Sort:        ptr(model.SortComments),
		Direction:   ptr(model.SortDesc),
	}

	PresetClosed = Preset{
		Name:        "closed",
		Description: "Closed issues, most recently updated first",
		State:       ptr(model.StateFilterClosed),
		Sort:        ptr(model.SortUpdated),
		Direction:   ptr(model.SortDesc),
	}
)

// Builtin returns the built-in presets in display order.
func Builtin() []Preset {
	return []Preset{PresetOpen, PresetRecentlyUpdated, PresetMostDiscussed, PresetClosed}
}

// Set is a collection of presets addressable by name.
type Set struct {
	presets map[string]Preset
}

// NewSet returns a set holding the built-in presets followed by extra.
// Later presets replace earlier ones with the same name.
func NewSet(extra ...Preset) *Set {
	s := &Set{presets: make(map[string]Preset)}
	for _, p := range Builtin() {
		s.presets[p.Name] = p
	}
	for _, p := range extra {
		s.presets[p.Name] = p
	}
	return s
}

// Get returns a preset by name.
func (s *Set) Get(name string) (Preset, bool) {
	p, ok := s.presets[name]
	return p, ok
}

// Names returns the preset names sorted alphabetically.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.presets))
	for name := range s.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the presets sorted by name.
func (s *Set) List() []Preset {
	names := s.Names()
	out := make([]Preset, 0, len(names))
	for _, name := range names {
		out = append(out, s.presets[name])
	}
	return out
}

// LoadFromBytes parses a presets document.
func LoadFromBytes(data []byte) ([]Preset, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}
	for _, p := range f.Presets {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Presets, nil
}

// LoadFromFile reads a presets document from disk.
func LoadFromFile(path string) ([]Preset, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}
	return LoadFromBytes(data)
}

// SaveToFile writes presets to disk.
func SaveToFile(presets []Preset, path string) error {
	data, err := yaml.Marshal(File{Presets: presets})
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write presets file: %w", err)
	}
	return nil
}
