package cascade

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cascade-engine/internal/derive/builtin"
	"cascade-engine/internal/mapping"
	"cascade-engine/internal/project"
	"cascade-engine/internal/stage"
)

func stockResolver(t *testing.T) *Resolver {
	t.Helper()

	reg, err := builtin.NewRegistry(builtin.Options{})
	require.NoError(t, err)

	table, err := mapping.Load("", reg)
	require.NoError(t, err)

	return New(table, reg)
}

func scopingSnapshot() project.Snapshot {
	return project.Snapshot{
		"projectName":       "Riverside Medical Office",
		"projectAddress":    "100 River Rd",
		"siteContact":       "Dana Lee",
		"dispatchLocation":  "Denver",
		"estSF":             22000,
		"hasBasement":       true,
		"basementSF":        4000,
		"hasRoofAccess":     true,
		"riskFactors":       []any{"Low_Light", "active_site", "low_light"},
		"georeferenced":     true,
		"lod":               "300",
		"disciplines":       "arch_struct_mep",
		"clientName":        "Acme Health",
		"pointCloudFormat":  "e57",
		"deliverableFormat": "rvt",
	}
}

func result(t *testing.T, plan *Plan, field string) PrefillResult {
	t.Helper()

	for i := len(plan.Results) - 1; i >= 0; i-- {
		if plan.Results[i].Mapping.TargetField == field {
			return plan.Results[i]
		}
	}

	require.Failf(t, "missing result", "no result for %s", field)

	return PrefillResult{}
}

var (
	toFieldCapture  = stage.Transition{From: stage.Scheduling, To: stage.FieldCapture}
	toRegistration  = stage.Transition{From: stage.FieldCapture, To: stage.Registration}
	toBIMQC         = stage.Transition{From: stage.Registration, To: stage.BIMQC}
	toFinalDelivery = stage.Transition{From: stage.PCDelivery, To: stage.FinalDelivery}
)
