// Package scenario selects a treatment plan from a priority-ordered table of clinical
// scenarios. The table is immutable once built.
package scenario

import (
	"errors"
	"fmt"
	"sort"

	"github.com/giygas/antibiotic-advisor/clinical"
	"github.com/giygas/antibiotic-advisor/patient"
	"github.com/giygas/antibiotic-advisor/resistance"
)

// Context is what predicates and generators see.
type Context struct {
	Profile    *patient.Profile
	Resistance resistance.Profile
}

// Option is one regimen with the reason it was chosen.
type Option struct {
	Regimen clinical.Regimen `json:"regimen"`
	Reason  string           `json:"reason"`
}

// Plan is the output of a scenario generator.
type Plan struct {
	Primary      Option   `json:"primary"`
	Duration     string   `json:"duration"`
	Alternatives []Option `json:"alternatives"`
}

// Scenario is one table row.
type Scenario struct {
	ID          string
	Priority    int
	Description string
	Matches     func(Context) bool
	Generate    func(Context) Plan
}

// Descriptor is the read-only view of a scenario.
type Descriptor struct {
	ID          string `json:"id"`
	Priority    int    `json:"priority"`
	Description string `json:"description"`
}

// Match is the selected scenario and its plan.
type Match struct {
	Descriptor
	Plan Plan `json:"plan"`
}

// Builder collects scenarios before the table is frozen.
type Builder struct {
	scenarios []Scenario
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Register appends scenarios in declaration order.
func (b *Builder) Register(scenarios ...Scenario) *Builder {
	b.scenarios = append(b.scenarios, scenarios...)
	return b
}

// Build sorts by priority descending, keeping declaration order on ties.
func (b *Builder) Build() (*Table, error) {
	entries := make([]Scenario, len(b.scenarios))
	copy(entries, b.scenarios)

	index := make(map[string]int, len(entries))
	for _, s := range entries {
		if s.ID == "" {
			return nil, errors.New("scenario without id")
		}
		if s.Matches == nil || s.Generate == nil {
			return nil, fmt.Errorf("scenario %s: predicate and generator are required", s.ID)
		}
		if _, dup := index[s.ID]; dup {
			return nil, fmt.Errorf("duplicate scenario id %s", s.ID)
		}
		index[s.ID] = 0
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Priority > entries[j].Priority
	})
	for i, s := range entries {
		index[s.ID] = i
	}
	return &Table{entries: entries, index: index}, nil
}

// Table is the frozen scenario table.
type Table struct {
	entries []Scenario
	index   map[string]int
}

// Match returns the first scenario whose predicate holds.
func (t *Table) Match(ctx Context) (Match, bool) {
	for _, s := range t.entries {
		if s.Matches(ctx) {
			return Match{Descriptor: describe(s), Plan: s.Generate(ctx)}, true
		}
	}
	return Match{}, false
}

// Lookup returns the descriptor of a scenario.
func (t *Table) Lookup(id string) (Descriptor, bool) {
	i, ok := t.index[id]
	if !ok {
		return Descriptor{}, false
	}
	return describe(t.entries[i]), true
}

// Entries lists the descriptors in evaluation order.
func (t *Table) Entries() []Descriptor {
	out := make([]Descriptor, len(t.entries))
	for i, s := range t.entries {
		out[i] = describe(s)
	}
	return out
}

func describe(s Scenario) Descriptor {
	return Descriptor{ID: s.ID, Priority: s.Priority, Description: s.Description}
}
