package common

import (
	"cmp"
	"slices"
)

// UnknownStr is the String() fallback for enum values outside their range.
const UnknownStr = "unknown"

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[M ~map[K]V, K cmp.Ordered, V any](m M) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
