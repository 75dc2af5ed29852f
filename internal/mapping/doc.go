// Package mapping provides the YAML schema, loader, validation and the
// immutable table of prefill mappings that drive the stage cascade.
//
// A mapping table declares, per stage transition, how each destination field
// of the new stage is derived. Every rule names one strategy:
//
//	direct       copy a scoping snapshot value unchanged
//	chain        copy the value last committed to an earlier stage bucket
//	transform    reshape one source value with a registered TransformFunc
//	calculation  derive a value with a registered CalculationFunc
//	static       use a constant embedded in the rule
//	manual       leave the field for a human
//	blocked      intentionally unwired field; never filled
//
// # Schema Overview
//
//	version: "1"
//	transitions:
//	  - from: scheduling
//	    to: field_capture
//	    fields:
//	      - id: FC-04
//	        target: fieldTech
//	        source_id: SCH-09
//	        source: scheduling.fieldTech   # stage-qualified source pins the bucket
//	        strategy: chain
//	      - id: FC-08
//	        target: estScanCount
//	        strategy: calculation
//	        transform: estScanCount
//	      - id: FC-15
//	        target: fieldNotes
//	        strategy: manual
//
// # Validation
//
// Tables are validated once, when they are built. A table is rejected when a
// transition is not between adjacent stages, a target is not in the
// destination stage's field catalog, two rules claim the same target within
// one transition, or a rule references a derivation key the registry does not
// hold. Rejections are reported together as diagnostics, with suggestions for
// misspelled names.
package mapping
