package mapping

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cascade-engine/internal/derive"
	"cascade-engine/internal/diagnostic"
	"cascade-engine/internal/stage"
)

var toFieldCapture = stage.Transition{From: stage.Scheduling, To: stage.FieldCapture}

func findError(t *testing.T, err error, code string) diagnostic.Diagnostic {
	t.Helper()

	var diagErr *diagnostic.Error
	require.True(t, errors.As(err, &diagErr), "expected diagnostic error, got %v", err)

	for _, d := range diagErr.Diagnostics.Errors {
		if d.Code == code {
			return d
		}
	}

	require.Failf(t, "missing diagnostic", "code %s not in %v", code, err)

	return diagnostic.Diagnostic{}
}

func TestNewTableRejectsDuplicateTargets(t *testing.T) {
	_, err := NewTable(stockRegistry(t),
		PrefillMapping{TargetID: "FC-04", TargetField: "fieldTech", Transition: toFieldCapture, Strategy: StrategyChain},
		PrefillMapping{TargetID: "FC-04b", TargetField: "fieldTech", Transition: toFieldCapture, Strategy: StrategyManual},
	)

	d := findError(t, err, "duplicate_target")
	assert.Equal(t, "fieldTech", d.FieldPath)
	assert.Contains(t, d.Message, "FC-04")
}

func TestNewTableAllowsSameTargetAcrossTransitions(t *testing.T) {
	table, err := NewTable(stockRegistry(t),
		PrefillMapping{TargetField: "fieldTech", Transition: toFieldCapture, Strategy: StrategyManual},
		PrefillMapping{
			TargetField: "fieldTech",
			Transition:  stage.Transition{From: stage.FieldCapture, To: stage.Registration},
			Strategy:    StrategyChain,
		},
	)

	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestNewTableRejectsUnknownTransformKey(t *testing.T) {
	_, err := NewTable(stockRegistry(t), PrefillMapping{
		TargetField:  "estScanCount",
		Transition:   toFieldCapture,
		Strategy:     StrategyCalculation,
		TransformKey: "estScanCnt",
	})

	d := findError(t, err, "unknown_transform_key")
	assert.Equal(t, []string{"estScanCount"}, d.Suggestions)
}

func TestNewTableRejectsKindMismatch(t *testing.T) {
	_, err := NewTable(stockRegistry(t), PrefillMapping{
		TargetField:  "estScanCount",
		Transition:   toFieldCapture,
		Strategy:     StrategyTransform,
		Source:       FieldRef{Field: "estSF"},
		TransformKey: "estScanCount",
	})

	findError(t, err, "transform_kind_mismatch")
}

func TestNewTableRejectsUnknownTargetField(t *testing.T) {
	_, err := NewTable(stockRegistry(t), PrefillMapping{
		TargetField: "fieldTeck",
		Transition:  toFieldCapture,
		Strategy:    StrategyManual,
	})

	d := findError(t, err, "unknown_target_field")
	assert.Contains(t, d.Suggestions, "fieldTech")
}

func TestNewTableRejectsNonAdjacentTransition(t *testing.T) {
	_, err := NewTable(stockRegistry(t), PrefillMapping{
		TargetField: "fieldTech",
		Transition:  stage.Transition{From: stage.Scheduling, To: stage.Registration},
		Strategy:    StrategyChain,
	})

	findError(t, err, "invalid_transition")
}

func TestValidateStrategyRules(t *testing.T) {
	reg := stockRegistry(t)

	tests := []struct {
		name string
		m    PrefillMapping
		code string
	}{
		{
			name: "direct without source",
			m:    PrefillMapping{TargetField: "projectName", Transition: toFieldCapture, Strategy: StrategyDirect},
			code: "missing_source",
		},
		{
			name: "direct pinned to a stage",
			m: PrefillMapping{
				TargetField: "projectName", Transition: toFieldCapture, Strategy: StrategyDirect,
				Source: FieldRef{Stage: stage.Scheduling, Field: "projectName"},
			},
			code: "invalid_source",
		},
		{
			name: "chain from unknown field",
			m: PrefillMapping{
				TargetField: "fieldTech", Transition: toFieldCapture, Strategy: StrategyChain,
				Source: FieldRef{Field: "technician"},
			},
			code: "unknown_source_field",
		},
		{
			name: "chain pinned to a later stage",
			m: PrefillMapping{
				TargetField: "fieldTech", Transition: toFieldCapture, Strategy: StrategyChain,
				Source: FieldRef{Stage: stage.Registration, Field: "fieldTech"},
			},
			code: "invalid_source_stage",
		},
		{
			name: "transform without source",
			m: PrefillMapping{
				TargetField: "riskFactors", Transition: toFieldCapture, Strategy: StrategyTransform,
				TransformKey: "normalizeList",
			},
			code: "missing_source",
		},
		{
			name: "calculation without key",
			m:    PrefillMapping{TargetField: "sizeTier", Transition: toFieldCapture, Strategy: StrategyCalculation},
			code: "missing_transform_key",
		},
		{
			name: "static without value",
			m:    PrefillMapping{TargetField: "fieldNotes", Transition: toFieldCapture, Strategy: StrategyStatic},
			code: "missing_static_value",
		},
		{
			name: "static of the wrong kind",
			m: PrefillMapping{
				TargetField: "estScanCount", Transition: toFieldCapture, Strategy: StrategyStatic, Value: "many",
			},
			code: "static_kind_mismatch",
		},
		{
			name: "missing target",
			m:    PrefillMapping{TargetID: "FC-00", Transition: toFieldCapture, Strategy: StrategyManual},
			code: "missing_target",
		},
		{
			name: "unknown strategy",
			m:    PrefillMapping{TargetField: "fieldNotes", Transition: toFieldCapture},
			code: "unknown_strategy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(reg, tt.m)
			findError(t, err, tt.code)
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	mf := &MappingFile{Transitions: []TransitionBlock{{
		From: "scheduling",
		To:   "field_capture",
		Fields: []FieldRule{
			{ID: "FC-13", Target: "scanCount", Strategy: "manual", Transform: "estScanCount"},
			{ID: "FC-13", Target: "fieldNotes", Strategy: "blocked", Value: "x"},
		},
	}}}

	diags := Validate(mf, stockRegistry(t))

	assert.True(t, diags.IsValid())
	assert.True(t, diags.HasCode("unused_transform_key"))
	assert.True(t, diags.HasCode("unused_value"))
	assert.True(t, diags.HasCode("duplicate_target_id"))
}

func TestValidateReportsEverything(t *testing.T) {
	mf := &MappingFile{Transitions: []TransitionBlock{{
		From: "scheduling",
		To:   "field_capture",
		Fields: []FieldRule{
			{Target: "fieldTeck", Strategy: "manual"},
			{Target: "sizeTier", Strategy: "calculation", Transform: "nope"},
			{Target: "fieldNotes", Strategy: "manaul"},
		},
	}}}

	diags := Validate(mf, derive.NewRegistry())

	require.Len(t, diags.Errors, 3)
	assert.True(t, diags.HasCode("unknown_target_field"))
	assert.True(t, diags.HasCode("unknown_transform_key"))
	assert.True(t, diags.HasCode("unknown_strategy"))

	for _, d := range diags.Errors {
		if d.Code == "unknown_strategy" {
			assert.Equal(t, []string{"manual"}, d.Suggestions)
		}
	}
}
