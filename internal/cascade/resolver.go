package cascade

import (
	"errors"
	"fmt"

	"cascade-engine/internal/derive"
	"cascade-engine/internal/mapping"
	"cascade-engine/internal/project"
	"cascade-engine/internal/stage"
)

var errEmptyResult = errors.New("derivation returned no value")

// Resolver applies a mapping table to a transition. A Resolver holds no
// mutable state.
type Resolver struct {
	table    *mapping.Table
	registry *derive.Registry
}

// New creates a Resolver. The table must have been built against registry.
func New(table *mapping.Table, registry *derive.Registry) *Resolver {
	return &Resolver{table: table, registry: registry}
}

// Table returns the mapping table the resolver applies.
func (r *Resolver) Table() *mapping.Table {
	return r.table
}

// Resolve derives the destination fields of the from->to transition.
// It fails only when the transition is not between adjacent stages; that
// check runs before any mapping is read.
func (r *Resolver) Resolve(
	from, to stage.Stage,
	snapshot project.Snapshot,
	history project.StageData,
) (*Plan, error) {
	tr := stage.Transition{From: from, To: to}
	if err := stage.Validate(tr); err != nil {
		return nil, err
	}

	in := derive.Inputs{
		Transition: tr,
		Snapshot:   snapshot.Clone(),
		History:    history.Clone(),
	}

	mappings := r.table.For(from, to)
	plan := &Plan{
		Transition: tr,
		Data:       project.Fields{},
		Results:    make([]PrefillResult, 0, len(mappings)),
	}

	for _, m := range mappings {
		res := r.resolveOne(m, in)
		if !res.Skipped {
			// Later mappings for the same target win.
			plan.Data[m.TargetField] = project.CloneValue(res.Value)
		}

		plan.Results = append(plan.Results, res)
	}

	return plan, nil
}

func (r *Resolver) resolveOne(m mapping.PrefillMapping, in derive.Inputs) PrefillResult {
	switch m.Strategy {
	case mapping.StrategyManual:
		return skip(m, ReasonManual, "")
	case mapping.StrategyBlocked:
		return skip(m, ReasonBlocked, "")
	case mapping.StrategyDirect:
		v, ok := in.Snapshot.Get(m.SourceField())
		if !ok {
			return skip(m, ReasonSourceNotReady, fmt.Sprintf("scoping field %q is empty", m.SourceField()))
		}

		return resolved(m, v, "")
	case mapping.StrategyChain:
		v, from, ok := readHistory(m, in.History)
		if !ok {
			return skip(m, ReasonSourceNotReady, fmt.Sprintf("%s has not been recorded", m.Source.String()))
		}

		return resolved(m, v, from)
	case mapping.StrategyTransform, mapping.StrategyCalculation:
		return r.resolveDerivation(m, in)
	case mapping.StrategyStatic:
		return resolved(m, m.Value, "")
	default:
		return skip(m, ReasonDerivationFailed, fmt.Sprintf("unsupported strategy %s", m.Strategy))
	}
}

func (r *Resolver) resolveDerivation(m mapping.PrefillMapping, in derive.Inputs) PrefillResult {
	var source any

	if m.Strategy == mapping.StrategyTransform {
		v, ok := transformSource(m, in)
		if !ok {
			return skip(m, ReasonSourceNotReady, fmt.Sprintf("%s has not been recorded", m.Source.String()))
		}

		source = v
	}

	v, err := r.call(m, source, in)
	if err != nil {
		return skip(m, ReasonDerivationFailed, fmt.Sprintf("%s %q: %v", m.Strategy, m.TransformKey, err))
	}

	if spec, ok := project.Lookup(m.Transition.To, m.TargetField); ok && !spec.Kind.Accepts(v) {
		return skip(m, ReasonDerivationFailed,
			fmt.Sprintf("%s %q returned %T, field wants %s", m.Strategy, m.TransformKey, v, spec.Kind))
	}

	return resolved(m, v, "")
}

// call invokes the derivation with private copies of its inputs and turns
// panics and empty results into errors.
func (r *Resolver) call(m mapping.PrefillMapping, source any, in derive.Inputs) (v any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			v, err = nil, fmt.Errorf("panic: %v", rec)
		}
	}()

	d, ok := r.registry.Lookup(m.TransformKey)
	if !ok {
		return nil, errors.New("not registered")
	}

	own := derive.Inputs{
		Transition: in.Transition,
		Snapshot:   in.Snapshot.Clone(),
		History:    in.History.Clone(),
	}

	switch fn := d.(type) {
	case derive.TransformFunc:
		if m.Strategy != mapping.StrategyTransform {
			return nil, errors.New("registered as a transform")
		}

		v, err = fn(project.CloneValue(source), own)
	case derive.CalculationFunc:
		if m.Strategy != mapping.StrategyCalculation {
			return nil, errors.New("registered as a calculation")
		}

		v, err = fn(own)
	default:
		return nil, fmt.Errorf("unsupported derivation %T", d)
	}

	if err != nil {
		return nil, err
	}

	if project.IsEmpty(v) {
		return nil, errEmptyResult
	}

	return v, nil
}

// readHistory finds the chain source: the pinned bucket, or the most recent
// bucket before the destination that holds the field.
func readHistory(m mapping.PrefillMapping, history project.StageData) (any, stage.Stage, bool) {
	stages := stage.Before(m.Transition.To)
	if m.Source.IsPinned() {
		stages = []stage.Stage{m.Source.Stage}
	}

	return history.Latest(m.SourceField(), stages)
}

// transformSource reads a pinned source from history, otherwise the snapshot
// first and the history second.
func transformSource(m mapping.PrefillMapping, in derive.Inputs) (any, bool) {
	if m.Source.IsPinned() {
		v, _, ok := readHistory(m, in.History)
		return v, ok
	}

	if v, ok := in.Snapshot.Get(m.SourceField()); ok {
		return v, true
	}

	v, _, ok := readHistory(m, in.History)

	return v, ok
}

func skip(m mapping.PrefillMapping, code ReasonCode, detail string) PrefillResult {
	return PrefillResult{
		Mapping: m,
		Skipped: true,
		Reason:  code.Message(),
		Code:    code,
		Detail:  detail,
	}
}

func resolved(m mapping.PrefillMapping, v any, from stage.Stage) PrefillResult {
	return PrefillResult{
		Mapping:     m,
		Value:       project.CloneValue(v),
		SourceStage: from,
	}
}
