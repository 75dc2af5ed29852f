package mapping

import (
	"slices"

	"cascade-engine/internal/derive"
	"cascade-engine/internal/project"
	"cascade-engine/internal/stage"
)

// PrefillMapping describes how one destination field is derived for one
// stage transition. Mappings are values; a Table hands out copies.
type PrefillMapping struct {
	TargetID    string           `json:"targetId"`
	TargetField string           `json:"targetField"`
	SourceID    string           `json:"sourceId,omitempty"`
	Source      FieldRef         `json:"source"`
	Transition  stage.Transition `json:"transition"`
	Strategy    Strategy         `json:"strategy"`
	Description string           `json:"description,omitempty"`
	// TransformKey names the derivation for transform and calculation rules.
	TransformKey string `json:"transformKey,omitempty"`
	// Value is the constant of a static rule.
	Value any `json:"value,omitempty"`
}

// SourceField returns the source field name; chain rules fall back to the target.
func (m PrefillMapping) SourceField() string {
	if m.Source.Field == "" && m.Strategy == StrategyChain {
		return m.TargetField
	}

	return m.Source.Field
}

// Clone returns a copy whose static value does not alias m's.
func (m PrefillMapping) Clone() PrefillMapping {
	m.Value = project.CloneValue(m.Value)
	return m
}

// Table is an immutable, validated list of prefill mappings.
type Table struct {
	mappings     []PrefillMapping
	byTransition map[stage.Transition][]int
}

// NewTable validates mappings against reg and builds a Table. All problems
// are reported together as a *diagnostic.Error.
func NewTable(reg *derive.Registry, mappings ...PrefillMapping) (*Table, error) {
	diags := validateMappings(mappings, reg)
	if err := diags.Err(); err != nil {
		return nil, err
	}

	return newTable(mappings), nil
}

func newTable(mappings []PrefillMapping) *Table {
	t := &Table{
		mappings:     make([]PrefillMapping, len(mappings)),
		byTransition: make(map[stage.Transition][]int),
	}

	for i, m := range mappings {
		t.mappings[i] = m.Clone()
		t.byTransition[m.Transition] = append(t.byTransition[m.Transition], i)
	}

	return t
}

// For returns the mappings of the from->to transition in declaration order.
// The result is freshly allocated on every call.
func (t *Table) For(from, to stage.Stage) []PrefillMapping {
	idx := t.byTransition[stage.Transition{From: from, To: to}]
	out := make([]PrefillMapping, len(idx))

	for i, j := range idx {
		out[i] = t.mappings[j].Clone()
	}

	return out
}

// All returns every mapping in declaration order.
func (t *Table) All() []PrefillMapping {
	out := make([]PrefillMapping, len(t.mappings))
	for i, m := range t.mappings {
		out[i] = m.Clone()
	}

	return out
}

// Len returns the number of mappings.
func (t *Table) Len() int {
	return len(t.mappings)
}

// Transitions returns the transitions that have at least one mapping, in stage order.
func (t *Table) Transitions() []stage.Transition {
	var out []stage.Transition

	for _, tr := range stage.Transitions() {
		if len(t.byTransition[tr]) > 0 {
			out = append(out, tr)
		}
	}

	return out
}

// TransformKeys returns the distinct derivation keys the table uses, sorted.
func (t *Table) TransformKeys() []string {
	var keys []string

	for _, m := range t.mappings {
		if m.TransformKey != "" && !slices.Contains(keys, m.TransformKey) {
			keys = append(keys, m.TransformKey)
		}
	}

	slices.Sort(keys)

	return keys
}
