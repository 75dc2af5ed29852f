// Package derive is the registry of business derivations the cascade calls
// for transform and calculation mappings.
//
// There are exactly two derivation kinds, each with its own statically
// checked signature:
//
//	TransformFunc   func(source any, in Inputs) (any, error)
//	CalculationFunc func(in Inputs) (any, error)
//
// A transform reshapes one source value (for example a boolean plus a
// measurement collapsing into a boolean). A calculation has no single source
// field and derives its result from the whole snapshot and history.
//
// The registry is populated once at start-up; mapping tables are validated
// against it so an unknown key fails at build time rather than per call.
package derive
