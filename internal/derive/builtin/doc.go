// Package builtin registers the stock scan-to-BIM derivations referenced by
// the default prefill table: size tiering, scan-count estimation, and the
// reshaping transforms between scoping answers and field checklists.
package builtin
