// Package project holds the per-project production record: the scoping
// snapshot, the per-stage field buckets and the catalog of fields each stage
// may carry.
//
// Values are kept in open maps so mapping tables can be loaded from YAML, but
// every field name and value kind is checked against the stage catalog, both
// when a mapping table is built and when an operator edits a field by hand.
package project
