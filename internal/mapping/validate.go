package mapping

import (
	"fmt"

	"cascade-engine/internal/derive"
	"cascade-engine/internal/diagnostic"
	"cascade-engine/internal/match"
	"cascade-engine/internal/project"
	"cascade-engine/internal/stage"
)

const maxSuggestions = 3

// Validate compiles mf and checks every rule against the stage catalog and
// the derivation registry.
func Validate(mf *MappingFile, reg *derive.Registry) *diagnostic.Diagnostics {
	mappings, diags := Compile(mf)
	diags.Merge(*validateMappings(mappings, reg))

	return diags
}

type targetKey struct {
	tr    stage.Transition
	field string
}

func validateMappings(mappings []PrefillMapping, reg *derive.Registry) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}

	seenTargets := map[targetKey]string{}
	seenIDs := map[string]string{}

	for i := range mappings {
		m := &mappings[i]
		trStr := m.Transition.String()

		if err := stage.Validate(m.Transition); err != nil {
			res.AddError("invalid_transition", err.Error(), trStr, m.TargetField)
			continue
		}

		if !validateTarget(res, m) {
			continue
		}

		key := targetKey{tr: m.Transition, field: m.TargetField}
		if prev, dup := seenTargets[key]; dup {
			res.AddError("duplicate_target",
				fmt.Sprintf("target already claimed by %s", describe(prev)), trStr, m.TargetField)
		} else {
			seenTargets[key] = m.TargetID
		}

		if m.TargetID != "" {
			if prev, dup := seenIDs[m.TargetID]; dup {
				res.AddWarning("duplicate_target_id",
					fmt.Sprintf("id %s also used by %s", m.TargetID, prev), trStr, m.TargetField)
			} else {
				seenIDs[m.TargetID] = trStr + " " + m.TargetField
			}
		}

		validateStrategy(res, m, reg)
	}

	return res
}

func describe(id string) string {
	if id == "" {
		return "an earlier rule"
	}

	return id
}

func validateTarget(res *diagnostic.Diagnostics, m *PrefillMapping) bool {
	trStr := m.Transition.String()

	if m.TargetField == "" {
		res.AddError("missing_target", "rule has no target field", trStr, m.TargetID)
		return false
	}

	spec, ok := project.Lookup(m.Transition.To, m.TargetField)
	if !ok {
		res.AddError("unknown_target_field",
			fmt.Sprintf("field %q is not carried by stage %s", m.TargetField, m.Transition.To),
			trStr, m.TargetField,
			match.Suggest(m.TargetField, project.FieldNames(m.Transition.To), maxSuggestions)...)

		return false
	}

	if m.Strategy == StrategyStatic && !spec.Kind.Accepts(m.Value) {
		res.AddError("static_kind_mismatch",
			fmt.Sprintf("static value %v (%T) does not fit %s field", m.Value, m.Value, spec.Kind),
			trStr, m.TargetField)
	}

	return true
}

func validateStrategy(res *diagnostic.Diagnostics, m *PrefillMapping, reg *derive.Registry) {
	trStr := m.Transition.String()

	switch m.Strategy {
	case StrategyDirect:
		if m.Source.Field == "" {
			res.AddError("missing_source", "direct rule needs a snapshot source", trStr, m.TargetField)
		} else if m.Source.IsPinned() {
			res.AddError("invalid_source", "direct rule reads the scoping snapshot and can not pin a stage",
				trStr, m.TargetField)
		}
	case StrategyChain:
		validateHistorySource(res, m)
	case StrategyTransform:
		if m.Source.Field == "" {
			res.AddError("missing_source", "transform rule needs a source field", trStr, m.TargetField)
		} else if m.Source.IsPinned() {
			validateHistorySource(res, m)
		}

		validateDerivationKey(res, m, reg, derive.KindTransform)
	case StrategyCalculation:
		validateDerivationKey(res, m, reg, derive.KindCalculation)
	case StrategyStatic:
		if project.IsEmpty(m.Value) {
			res.AddError("missing_static_value", "static rule needs a value", trStr, m.TargetField)
		}
	case StrategyManual, StrategyBlocked:
	default:
		res.AddError("unknown_strategy", fmt.Sprintf("unknown strategy %s", m.Strategy), trStr, m.TargetField)
		return
	}

	if m.TransformKey != "" && !m.Strategy.IsDerivation() {
		res.AddWarning("unused_transform_key",
			fmt.Sprintf("transform %q is ignored by %s rules", m.TransformKey, m.Strategy), trStr, m.TargetField)
	}

	if m.Value != nil && m.Strategy != StrategyStatic {
		res.AddWarning("unused_value",
			fmt.Sprintf("value is ignored by %s rules", m.Strategy), trStr, m.TargetField)
	}
}

// validateHistorySource checks a chain source exists in a stage bucket the
// cascade can read: the pinned stage, or any stage before the destination.
func validateHistorySource(res *diagnostic.Diagnostics, m *PrefillMapping) {
	trStr := m.Transition.String()
	field := m.SourceField()

	candidates := stage.Before(m.Transition.To)
	if m.Source.IsPinned() {
		pinned, _ := stage.Order(m.Source.Stage)
		from, _ := stage.Order(m.Transition.From)

		if pinned > from {
			res.AddError("invalid_source_stage",
				fmt.Sprintf("source stage %s is not before %s", m.Source.Stage, m.Transition.To),
				trStr, m.TargetField)

			return
		}

		candidates = []stage.Stage{m.Source.Stage}
	}

	var known []string

	for _, st := range candidates {
		if _, ok := project.Lookup(st, field); ok {
			return
		}

		known = append(known, project.FieldNames(st)...)
	}

	res.AddError("unknown_source_field",
		fmt.Sprintf("field %q is not carried by any source stage", field),
		trStr, m.TargetField, match.Suggest(field, dedupe(known), maxSuggestions)...)
}

func validateDerivationKey(res *diagnostic.Diagnostics, m *PrefillMapping, reg *derive.Registry, want derive.Kind) {
	trStr := m.Transition.String()

	if m.TransformKey == "" {
		res.AddError("missing_transform_key",
			fmt.Sprintf("%s rule needs a transform key", m.Strategy), trStr, m.TargetField)

		return
	}

	got := reg.Kind(m.TransformKey)
	switch got {
	case derive.KindUnknown:
		res.AddError("unknown_transform_key",
			fmt.Sprintf("derivation %q is not registered", m.TransformKey), trStr, m.TargetField,
			match.Suggest(m.TransformKey, reg.Keys(), maxSuggestions)...)
	case want:
	default:
		res.AddError("transform_kind_mismatch",
			fmt.Sprintf("derivation %q is a %s, rule needs a %s", m.TransformKey, got, want), trStr, m.TargetField)
	}
}

func suggestStrategy(name string) []string {
	return match.Suggest(name, StrategyNames(), 1)
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))

	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}

	return out
}
