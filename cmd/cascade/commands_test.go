package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cascade-engine/internal/mapping"
)

type cli struct {
	t      *testing.T
	config string
	store  string
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	dir := t.TempDir()
	config := filepath.Join(dir, "cascade.yaml")
	require.NoError(t, os.WriteFile(config, []byte("log_level: error\n"), 0o600))

	return &cli{t: t, config: config, store: filepath.Join(dir, "store.yaml")}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()

	cmd := newRootCmd()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", c.config, "--store", c.store}, args...))

	err := cmd.Execute()

	return out.String(), err
}

func (c *cli) mustRun(v any, args ...string) {
	c.t.Helper()

	out, err := c.run(args...)
	require.NoError(c.t, err, strings.Join(args, " "))

	if v != nil {
		require.NoError(c.t, json.Unmarshal([]byte(out), v), out)
	}
}

func TestLifecycleThroughCLI(t *testing.T) {
	c := newCLI(t)

	scoping := filepath.Join(t.TempDir(), "scoping.yaml")
	require.NoError(t, os.WriteFile(scoping, []byte(`
projectName: Riverside Medical Office
projectAddress: 100 River Rd
estSF: 22000
hasBasement: false
hasRoofAccess: true
riskFactors: [active_site]
lod: "300"
disciplines: arch_struct_mep
clientName: Acme Health
`), 0o600))

	var created struct {
		ID           string `json:"id"`
		CurrentStage string `json:"currentStage"`
	}

	c.mustRun(&created, "create", scoping)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "scheduling", created.CurrentStage)

	c.mustRun(nil, "set", created.ID, "scheduling", "fieldTech", "Mike Johnson")
	c.mustRun(nil, "set", created.ID, "scheduling", "scheduledDate", "2025-03-01")

	var preview struct {
		ToStage     string         `json:"toStage"`
		PrefillData map[string]any `json:"prefillData"`
	}

	c.mustRun(&preview, "preview", created.ID)
	assert.Equal(t, "field_capture", preview.ToStage)
	assert.Equal(t, "Mike Johnson", preview.PrefillData["fieldTech"])
	assert.InDelta(t, 15, preview.PrefillData["estScanCount"], 0)

	c.mustRun(nil, "advance", created.ID)

	var adv struct {
		AdvancedTo     string `json:"advancedTo"`
		PrefillResults []struct {
			Mapping struct {
				TargetField string `json:"targetField"`
			} `json:"mapping"`
			Skipped bool   `json:"skipped"`
			Reason  string `json:"reason"`
		} `json:"prefillResults"`
	}

	c.mustRun(&adv, "advance", created.ID)
	assert.Equal(t, "registration", adv.AdvancedTo)

	reasons := map[string]string{}
	for _, r := range adv.PrefillResults {
		if r.Skipped {
			reasons[r.Mapping.TargetField] = r.Reason
		}
	}

	assert.Equal(t, "manual entry required", reasons["scanCount"])

	var shown struct {
		CurrentStage string                    `json:"currentStage"`
		StageData    map[string]map[string]any `json:"stageData"`
		Version      int                       `json:"version"`
	}

	c.mustRun(&shown, "show", created.ID)
	assert.Equal(t, "registration", shown.CurrentStage)
	assert.Equal(t, "Mike Johnson", shown.StageData["registration"]["fieldTech"])
	assert.Equal(t, "2025-03-01", shown.StageData["registration"]["fieldDate"])
	assert.Equal(t, 5, shown.Version)
}

func TestPreviewSeveralProjects(t *testing.T) {
	c := newCLI(t)

	scoping := filepath.Join(t.TempDir(), "scoping.yaml")
	require.NoError(t, os.WriteFile(scoping, []byte("projectName: Riverside\nestSF: 9000\n"), 0o600))

	var first, second struct {
		ID string `json:"id"`
	}

	c.mustRun(&first, "create", scoping)
	c.mustRun(&second, "create", scoping)

	var previews []struct {
		ProjectID   string         `json:"projectId"`
		PrefillData map[string]any `json:"prefillData"`
	}

	c.mustRun(&previews, "preview", first.ID, second.ID)
	require.Len(t, previews, 2)
	assert.Equal(t, first.ID, previews[0].ProjectID)
	assert.Equal(t, second.ID, previews[1].ProjectID)
	assert.Equal(t, "S", previews[1].PrefillData["sizeTier"])
}

func TestSetRejectsUnknownField(t *testing.T) {
	c := newCLI(t)

	scoping := filepath.Join(t.TempDir(), "scoping.yaml")
	require.NoError(t, os.WriteFile(scoping, []byte("projectName: Riverside\n"), 0o600))

	var created struct {
		ID string `json:"id"`
	}

	c.mustRun(&created, "create", scoping)

	_, err := c.run("set", created.ID, "scheduling", "fieldTeck", "Mike")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fieldTech")

	_, err = c.run("advance", "no-such-project")
	require.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	c := newCLI(t)

	var report validateReport

	c.mustRun(&report, "validate")
	assert.True(t, report.Valid)
	assert.Equal(t, "built-in", report.Table)
	assert.Positive(t, report.Mappings)
	assert.Len(t, report.Transitions, 5)
	assert.Contains(t, report.Transitions, "scheduling->field_capture")
	assert.Contains(t, report.TransformKeys, "sizeTier")
	assert.Len(t, report.Infos, 5)
	assert.Contains(t, report.Infos[0], "[compiled_rules]")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
version: "1"
transitions:
  - from: scheduling
    to: field_capture
    fields:
      - id: FC-01
        target: projectNmae
        source: projectName
        strategy: direct
`), 0o600))

	out, err := c.run("validate", bad)
	require.ErrorIs(t, err, errInvalidTable)
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Valid)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "unknown_target_field")
	assert.Contains(t, report.Errors[0], "projectName")
}

func TestTableCommand(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("table")
	require.NoError(t, err)

	mf, err := mapping.Parse([]byte(out))
	require.NoError(t, err)
	require.Len(t, mf.Transitions, 5)
	assert.Equal(t, "scheduling", mf.Transitions[0].From)

	dumped := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(dumped, []byte(out), 0o600))

	var report validateReport

	c.mustRun(&report, "validate", dumped)
	assert.True(t, report.Valid)
	assert.Equal(t, dumped, report.Table)
}

func TestCatalogCommand(t *testing.T) {
	c := newCLI(t)

	var fields []struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
	}

	c.mustRun(&fields, "catalog", "scheduling")
	require.NotEmpty(t, fields)

	kinds := map[string]string{}
	for _, f := range fields {
		kinds[f.Name] = f.Kind
	}

	assert.Equal(t, "number", kinds["estSF"])
	assert.Equal(t, "text", kinds["projectName"])

	_, err := c.run("catalog", "survey")
	require.Error(t, err)
}

func TestMappingsCommand(t *testing.T) {
	c := newCLI(t)

	var mappings []struct {
		TargetID string `json:"targetId"`
		Strategy string `json:"strategy"`
		Source   string `json:"source"`
	}

	c.mustRun(&mappings, "mappings", "scheduling")
	require.NotEmpty(t, mappings)
	assert.Equal(t, "FC-01", mappings[0].TargetID)
	assert.Equal(t, "direct", mappings[0].Strategy)
	assert.Equal(t, "projectName", mappings[0].Source)

	_, err := c.run("mappings", "final_delivery")
	require.Error(t, err)

	_, err = c.run("mappings", "survey")
	require.Error(t, err)
}

func TestParseValue(t *testing.T) {
	cases := map[string]any{
		"15":           15,
		"2.5":          2.5,
		"true":         true,
		"Mike Johnson": "Mike Johnson",
		"[a, b]":       []any{"a", "b"},
		"":             "",
	}

	for raw, want := range cases {
		got, err := parseValue(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}
