package builtin

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"cascade-engine/internal/derive"
)

// Registry keys of the stock derivations.
const (
	KeySizeTier            = "sizeTier"
	KeyEstScanCount        = "estScanCount"
	KeyBasementInScope     = "basementInScope"
	KeyDisciplineChecklist = "disciplineChecklist"
	KeyEquipmentChecklist  = "equipmentChecklist"
	KeyNormalizeList       = "normalizeList"
	KeyQCChecklist         = "qcChecklist"
)

// DefaultScanThroughput is the floor area one scan position covers, in sq ft.
const DefaultScanThroughput = 1500.0

var errNotNumber = errors.New("value is not a number")

// Tier is one size band, inclusive of its upper bound.
type Tier struct {
	Name  string  `yaml:"name"`
	MaxSF float64 `yaml:"max_sf"`
}

// DefaultTiers are used when Options.Tiers is empty. The last tier is open-ended.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "S", MaxSF: 10000},
		{Name: "M", MaxSF: 50000},
		{Name: "L", MaxSF: 150000},
		{Name: "XL", MaxSF: math.Inf(1)},
	}
}

// Options tune the calculations.
type Options struct {
	ScanThroughput float64
	Tiers          []Tier
}

func (o Options) withDefaults() Options {
	if o.ScanThroughput <= 0 {
		o.ScanThroughput = DefaultScanThroughput
	}

	if len(o.Tiers) == 0 {
		o.Tiers = DefaultTiers()
	}

	return o
}

// Register adds the stock derivations to reg.
func Register(reg *derive.Registry, opts Options) error {
	opts = opts.withDefaults()

	entries := []struct {
		key string
		d   derive.Derivation
	}{
		{KeySizeTier, derive.CalculationFunc(sizeTier(opts.Tiers))},
		{KeyEstScanCount, derive.CalculationFunc(estScanCount(opts.ScanThroughput))},
		{KeyBasementInScope, derive.TransformFunc(basementInScope)},
		{KeyDisciplineChecklist, derive.TransformFunc(disciplineChecklist)},
		{KeyEquipmentChecklist, derive.CalculationFunc(equipmentChecklist)},
		{KeyNormalizeList, derive.TransformFunc(normalizeList)},
		{KeyQCChecklist, derive.TransformFunc(qcChecklist)},
	}

	for _, e := range entries {
		if err := reg.Register(e.key, e.d); err != nil {
			return err
		}
	}

	return nil
}

// NewRegistry returns a registry holding only the stock derivations.
func NewRegistry(opts Options) (*derive.Registry, error) {
	reg := derive.NewRegistry()
	if err := Register(reg, opts); err != nil {
		return nil, err
	}

	return reg, nil
}

func sizeTier(tiers []Tier) func(derive.Inputs) (any, error) {
	return func(in derive.Inputs) (any, error) {
		raw, ok := in.Snapshot.Get("estSF")
		if !ok {
			return nil, errors.New("estSF not set")
		}

		sf, err := toFloat(raw)
		if err != nil {
			return nil, fmt.Errorf("estSF: %w", err)
		}

		if sf <= 0 {
			return nil, fmt.Errorf("estSF must be positive, got %v", sf)
		}

		for _, t := range tiers {
			if sf <= t.MaxSF {
				return t.Name, nil
			}
		}

		return tiers[len(tiers)-1].Name, nil
	}
}

func estScanCount(throughput float64) func(derive.Inputs) (any, error) {
	return func(in derive.Inputs) (any, error) {
		raw, ok := in.Snapshot.Get("estSF")
		if !ok {
			return nil, errors.New("estSF not set")
		}

		sf, err := toFloat(raw)
		if err != nil {
			return nil, fmt.Errorf("estSF: %w", err)
		}

		if sf <= 0 {
			return nil, fmt.Errorf("estSF must be positive, got %v", sf)
		}

		return int(math.Ceil(sf / throughput)), nil
	}
}

// basementInScope collapses the hasBasement/basementSF pair into one flag.
func basementInScope(source any, in derive.Inputs) (any, error) {
	has, ok := source.(bool)
	if !ok {
		return nil, fmt.Errorf("hasBasement: want bool, got %T", source)
	}

	if !has {
		return false, nil
	}

	raw, ok := in.Snapshot.Get("basementSF")
	if !ok {
		return true, nil
	}

	sf, err := toFloat(raw)
	if err != nil {
		return nil, fmt.Errorf("basementSF: %w", err)
	}

	return sf > 0, nil
}

var disciplineCodes = map[string]string{
	"arch":   "architecture",
	"struct": "structure",
	"mep":    "mep",
	"civil":  "civil",
	"site":   "site",
}

// disciplineChecklist expands a scoping dropdown value such as
// "arch_struct_mep" into a checklist.
func disciplineChecklist(source any, _ derive.Inputs) (any, error) {
	code, ok := source.(string)
	if !ok {
		return nil, fmt.Errorf("disciplines: want string, got %T", source)
	}

	var out []any

	for part := range strings.SplitSeq(strings.ToLower(code), "_") {
		name, known := disciplineCodes[part]
		if !known {
			return nil, fmt.Errorf("disciplines: unknown code %q", part)
		}

		out = append(out, name)
	}

	return out, nil
}

func equipmentChecklist(in derive.Inputs) (any, error) {
	out := []any{"terrestrial scanner", "tripod", "targets"}

	if v, ok := in.Snapshot.Get("hasRoofAccess"); ok && v == true {
		out = append(out, "drone")
	}

	risks, _ := asStrings(in.Snapshot["riskFactors"])
	if slices.Contains(risks, "confined_space") {
		out = append(out, "confined space kit")
	}

	if slices.Contains(risks, "low_light") {
		out = append(out, "lighting kit")
	}

	return out, nil
}

// normalizeList accepts a list or a comma separated string and returns a
// sorted, de-duplicated, lower-case list.
func normalizeList(source any, _ derive.Inputs) (any, error) {
	items, err := asStrings(source)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(items))
	norm := make([]string, 0, len(items))

	for _, s := range items {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}

		seen[s] = true
		norm = append(norm, s)
	}

	slices.Sort(norm)

	out := make([]any, len(norm))
	for i, s := range norm {
		out[i] = s
	}

	return out, nil
}

var qcByLOD = map[string][]string{
	"200": {"massing", "levels"},
	"300": {"massing", "levels", "openings", "mep mains"},
	"350": {"massing", "levels", "openings", "mep mains", "connections"},
	"400": {"massing", "levels", "openings", "mep mains", "connections", "fabrication detail"},
}

func qcChecklist(source any, _ derive.Inputs) (any, error) {
	lod := strings.TrimSpace(fmt.Sprint(source))

	items, ok := qcByLOD[lod]
	if !ok {
		return nil, fmt.Errorf("lod: no checklist for %q", lod)
	}

	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}

	return out, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float32:
		return toFloat(float64(n))
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, fmt.Errorf("%w: %v", errNotNumber, n)
		}

		return n, nil
	default:
		return 0, fmt.Errorf("%w: %T", errNotNumber, v)
	}
}

func asStrings(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return strings.Split(val, ","), nil
	case []string:
		return val, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, e := range val {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("list item: want string, got %T", e)
			}

			out = append(out, s)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("want list, got %T", v)
	}
}
