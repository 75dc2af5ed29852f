// Package stage defines the six production stages of a scan-to-BIM project
// and the adjacency rules between them.
//
// Stages form a strict total order:
//
//	scheduling -> field_capture -> registration -> bim_qc -> pc_delivery -> final_delivery
//
// A transition is valid only between a stage and its immediate successor.
// There is no regression path and no stage may be skipped.
package stage
