package mapping

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"cascade-engine/internal/derive"
	"cascade-engine/internal/diagnostic"
	"cascade-engine/internal/stage"
)

//go:embed tables/prefill.yaml
var defaultTable []byte

// LoadFile loads and parses a YAML mapping file from the given path.
func LoadFile(path string) (*MappingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a MappingFile.
func Parse(data []byte) (*MappingFile, error) {
	var mf MappingFile

	err := yaml.Unmarshal(data, &mf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping YAML: %w", err)
	}

	applyDefaults(&mf)

	return &mf, nil
}

// DefaultFile returns the embedded stock prefill table.
func DefaultFile() (*MappingFile, error) {
	return Parse(defaultTable)
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(mf *MappingFile) {
	if mf.Version == "" {
		mf.Version = "1"
	}
}

// Marshal serializes a MappingFile to YAML.
func Marshal(mf *MappingFile) ([]byte, error) {
	return yaml.Marshal(mf)
}

// Build compiles and validates mf against reg.
func Build(mf *MappingFile, reg *derive.Registry) (*Table, error) {
	mappings, diags := Compile(mf)
	diags.Merge(*validateMappings(mappings, reg))

	if err := diags.Err(); err != nil {
		return nil, err
	}

	return newTable(mappings), nil
}

// Load reads path and builds a table from it. An empty path selects the
// embedded stock table.
func Load(path string, reg *derive.Registry) (*Table, error) {
	var (
		mf  *MappingFile
		err error
	)

	if path == "" {
		mf, err = DefaultFile()
	} else {
		mf, err = LoadFile(path)
	}

	if err != nil {
		return nil, err
	}

	return Build(mf, reg)
}

// Compile converts the YAML rules into PrefillMappings in declaration order.
// Rules whose stages, strategy or source can not be parsed are reported and
// left out.
func Compile(mf *MappingFile) ([]PrefillMapping, *diagnostic.Diagnostics) {
	diags := &diagnostic.Diagnostics{}
	if mf == nil {
		diags.AddError("mapping_is_nil", "mapping file is nil", "", "")
		return nil, diags
	}

	var out []PrefillMapping

	for _, block := range mf.Transitions {
		tr := stage.Transition{From: stage.Stage(block.From), To: stage.Stage(block.To)}
		trStr := tr.String()

		if err := stage.Validate(tr); err != nil {
			code := "invalid_transition"
			if !tr.From.IsValid() || !tr.To.IsValid() {
				code = "unknown_stage"
			}

			diags.AddError(code, err.Error(), trStr, "")

			continue
		}

		compiled := 0

		for _, rule := range block.Fields {
			m, ok := compileRule(rule, tr, diags)
			if ok {
				out = append(out, m)
				compiled++
			}
		}

		diags.AddInfo("compiled_rules", fmt.Sprintf("%d of %d rules compiled", compiled, len(block.Fields)), trStr, "")
	}

	return out, diags
}

func compileRule(rule FieldRule, tr stage.Transition, diags *diagnostic.Diagnostics) (PrefillMapping, bool) {
	trStr := tr.String()

	strategy, err := ParseStrategy(rule.Strategy)
	if err != nil {
		diags.AddError("unknown_strategy", err.Error(), trStr, rule.Target, suggestStrategy(rule.Strategy)...)
		return PrefillMapping{}, false
	}

	m := PrefillMapping{
		TargetID:     rule.ID,
		TargetField:  rule.Target,
		SourceID:     rule.SourceID,
		Transition:   tr,
		Strategy:     strategy,
		Description:  rule.Description,
		TransformKey: rule.Transform,
		Value:        rule.Value,
	}

	if rule.Source != "" {
		ref, err := ParseFieldRef(rule.Source)
		if err != nil {
			diags.AddError("invalid_source", err.Error(), trStr, rule.Target)
			return PrefillMapping{}, false
		}

		m.Source = ref
	}

	return m, true
}
