package builtin

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cascade-engine/internal/derive"
	"cascade-engine/internal/project"
)

func calc(t *testing.T, reg *derive.Registry, key string, in derive.Inputs) (any, error) {
	t.Helper()

	d, ok := reg.Lookup(key)
	require.True(t, ok, key)

	fn, ok := d.(derive.CalculationFunc)
	require.True(t, ok, key)

	return fn(in)
}

func transform(t *testing.T, reg *derive.Registry, key string, source any, in derive.Inputs) (any, error) {
	t.Helper()

	d, ok := reg.Lookup(key)
	require.True(t, ok, key)

	fn, ok := d.(derive.TransformFunc)
	require.True(t, ok, key)

	return fn(source, in)
}

func TestRegisterAll(t *testing.T) {
	reg, err := NewRegistry(Options{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		KeySizeTier, KeyEstScanCount, KeyBasementInScope, KeyDisciplineChecklist,
		KeyEquipmentChecklist, KeyNormalizeList, KeyQCChecklist,
	}, reg.Keys())

	require.ErrorIs(t, Register(reg, Options{}), derive.ErrDuplicateKey)
}

func TestEstScanCountIsStable(t *testing.T) {
	reg, err := NewRegistry(Options{ScanThroughput: 1500})
	require.NoError(t, err)

	in := derive.Inputs{Snapshot: project.Snapshot{"estSF": 22000}}

	for range 5 {
		v, err := calc(t, reg, KeyEstScanCount, in)
		require.NoError(t, err)
		assert.Equal(t, 15, v)
	}

	_, err = calc(t, reg, KeyEstScanCount, derive.Inputs{Snapshot: project.Snapshot{}})
	require.Error(t, err)

	_, err = calc(t, reg, KeyEstScanCount, derive.Inputs{Snapshot: project.Snapshot{"estSF": -3}})
	require.Error(t, err)
}

func TestSizeTier(t *testing.T) {
	reg, err := NewRegistry(Options{})
	require.NoError(t, err)

	tests := []struct {
		sf   any
		want string
	}{
		{5000, "S"},
		{10000, "S"},
		{22000.0, "M"},
		{int64(120000), "L"},
		{900000, "XL"},
	}

	for _, tt := range tests {
		v, err := calc(t, reg, KeySizeTier, derive.Inputs{Snapshot: project.Snapshot{"estSF": tt.sf}})
		require.NoError(t, err)
		assert.Equal(t, tt.want, v, "estSF=%v", tt.sf)
	}

	for _, sf := range []any{"big", math.Inf(1), math.Inf(-1), math.NaN(), float32(math.NaN()), 0, -5} {
		_, err = calc(t, reg, KeySizeTier, derive.Inputs{Snapshot: project.Snapshot{"estSF": sf}})
		require.Error(t, err, "estSF=%v", sf)

		_, err = calc(t, reg, KeyEstScanCount, derive.Inputs{Snapshot: project.Snapshot{"estSF": sf}})
		require.Error(t, err, "estSF=%v", sf)
	}
}

func TestBasementInScope(t *testing.T) {
	reg, err := NewRegistry(Options{})
	require.NoError(t, err)

	v, err := transform(t, reg, KeyBasementInScope, true, derive.Inputs{Snapshot: project.Snapshot{"basementSF": 2400}})
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = transform(t, reg, KeyBasementInScope, true, derive.Inputs{Snapshot: project.Snapshot{"basementSF": 0}})
	require.NoError(t, err)
	assert.Equal(t, false, v)

	v, err = transform(t, reg, KeyBasementInScope, false, derive.Inputs{})
	require.NoError(t, err)
	assert.Equal(t, false, v)

	_, err = transform(t, reg, KeyBasementInScope, "yes", derive.Inputs{})
	require.Error(t, err)
}

func TestDisciplineChecklist(t *testing.T) {
	reg, err := NewRegistry(Options{})
	require.NoError(t, err)

	v, err := transform(t, reg, KeyDisciplineChecklist, "arch_struct_mep", derive.Inputs{})
	require.NoError(t, err)
	assert.Equal(t, []any{"architecture", "structure", "mep"}, v)

	_, err = transform(t, reg, KeyDisciplineChecklist, "arch_plumbing", derive.Inputs{})
	require.Error(t, err)
}

func TestEquipmentChecklist(t *testing.T) {
	reg, err := NewRegistry(Options{})
	require.NoError(t, err)

	v, err := calc(t, reg, KeyEquipmentChecklist, derive.Inputs{Snapshot: project.Snapshot{
		"hasRoofAccess": true,
		"riskFactors":   []any{"confined_space"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []any{"terrestrial scanner", "tripod", "targets", "drone", "confined space kit"}, v)
}

func TestNormalizeList(t *testing.T) {
	reg, err := NewRegistry(Options{})
	require.NoError(t, err)

	v, err := transform(t, reg, KeyNormalizeList, "Asbestos, low_light,asbestos", derive.Inputs{})
	require.NoError(t, err)
	assert.Equal(t, []any{"asbestos", "low_light"}, v)

	_, err = transform(t, reg, KeyNormalizeList, 7, derive.Inputs{})
	require.Error(t, err)
}

func TestQCChecklist(t *testing.T) {
	reg, err := NewRegistry(Options{})
	require.NoError(t, err)

	v, err := transform(t, reg, KeyQCChecklist, "200", derive.Inputs{})
	require.NoError(t, err)
	assert.Equal(t, []any{"massing", "levels"}, v)

	v, err = transform(t, reg, KeyQCChecklist, 300, derive.Inputs{})
	require.NoError(t, err)
	assert.Len(t, v, 4)

	_, err = transform(t, reg, KeyQCChecklist, "500", derive.Inputs{})
	require.Error(t, err)
}
