package project

import (
	"maps"
	"reflect"
	"strings"

	"cascade-engine/internal/common"
	"cascade-engine/internal/stage"
)

// Fields is one stage's record of field name to value.
type Fields map[string]any

// StageData maps each stage to its field bucket.
type StageData map[stage.Stage]Fields

// Snapshot is the committed scoping-form record a project was created from.
type Snapshot map[string]any

// Get returns the value stored under name and whether it is present and non-empty.
func (f Fields) Get(name string) (any, bool) {
	v, ok := f[name]
	if !ok || IsEmpty(v) {
		return nil, false
	}

	return v, true
}

// Clone returns a deep copy of f.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}

	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = CloneValue(v)
	}

	return out
}

// Get returns the snapshot value for key when it is present and non-empty.
func (s Snapshot) Get(key string) (any, bool) {
	v, ok := s[key]
	if !ok || IsEmpty(v) {
		return nil, false
	}

	return v, true
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}

	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = CloneValue(v)
	}

	return out
}

// Clone returns a deep copy of d.
func (d StageData) Clone() StageData {
	if d == nil {
		return nil
	}

	out := make(StageData, len(d))
	for st, f := range d {
		out[st] = f.Clone()
	}

	return out
}

// Latest looks for field in the buckets of the given stages, in the order
// supplied, and returns the first non-empty value together with the stage
// that holds it.
func (d StageData) Latest(field string, stages []stage.Stage) (any, stage.Stage, bool) {
	for _, st := range stages {
		if v, ok := d[st].Get(field); ok {
			return v, st, true
		}
	}

	return nil, "", false
}

// MergeAbsent copies every key of patch into dst that dst does not hold or
// holds as nil. Any other value, a blank string or empty list included, was
// put there by an operator and is kept. It returns the keys written and the
// keys kept.
func MergeAbsent(dst, patch Fields) (written, kept []string) {
	for _, k := range common.SortedKeys(patch) {
		if cur, ok := dst[k]; ok && cur != nil {
			kept = append(kept, k)
			continue
		}

		dst[k] = CloneValue(patch[k])
		written = append(written, k)
	}

	return written, kept
}

// IsEmpty reports whether v counts as "not yet filled": nil, a blank string,
// or an empty list or map.
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	default:
		return false
	}
}

// CloneValue deep-copies the container shapes that field values may take.
// Scalars are returned as is.
func CloneValue(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = CloneValue(e)
		}

		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)

		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = CloneValue(e)
		}

		return out
	case Fields:
		return val.Clone()
	case map[string]string:
		return maps.Clone(val)
	default:
		return v
	}
}
