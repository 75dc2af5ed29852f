// Package match provides identifier normalization and Levenshtein ranking
// used to suggest the intended name when a mapping table refers to an
// unknown field or derivation key.
package match
