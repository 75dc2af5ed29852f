package stage

import (
	"errors"
	"fmt"
)

// Stage identifies one production stage.
type Stage string

const (
	Scheduling    Stage = "scheduling"
	FieldCapture  Stage = "field_capture"
	Registration  Stage = "registration"
	BIMQC         Stage = "bim_qc"
	PCDelivery    Stage = "pc_delivery"
	FinalDelivery Stage = "final_delivery"
)

// ErrUnknownStage is returned when a stage identifier is not one of the six stages.
var ErrUnknownStage = errors.New("unknown stage")

// ErrInvalidTransition is returned when a transition is not between adjacent stages.
var ErrInvalidTransition = errors.New("invalid stage transition")

var order = [...]Stage{
	Scheduling,
	FieldCapture,
	Registration,
	BIMQC,
	PCDelivery,
	FinalDelivery,
}

// All returns the stages in production order. The returned slice is a copy.
func All() []Stage {
	out := make([]Stage, len(order))
	copy(out, order[:])

	return out
}

// Order returns the zero-based position of s in the production order.
func Order(s Stage) (int, bool) {
	for i, st := range order {
		if st == s {
			return i, true
		}
	}

	return -1, false
}

// Next returns the successor of s. It returns false at the terminal stage
// and for unknown stages.
func Next(s Stage) (Stage, bool) {
	i, ok := Order(s)
	if !ok || i == len(order)-1 {
		return "", false
	}

	return order[i+1], true
}

// Parse converts a raw identifier into a Stage.
func Parse(raw string) (Stage, error) {
	s := Stage(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, raw)
	}

	return s, nil
}

// IsValid reports whether s is one of the known stages.
func (s Stage) IsValid() bool {
	_, ok := Order(s)
	return ok
}

// IsTerminal reports whether s is the last stage.
func (s Stage) IsTerminal() bool {
	return s == FinalDelivery
}

// String returns the stage identifier.
func (s Stage) String() string {
	return string(s)
}

// Before returns the stages strictly before s, most recent first.
func Before(s Stage) []Stage {
	i, ok := Order(s)
	if !ok {
		return nil
	}

	out := make([]Stage, 0, i)
	for j := i - 1; j >= 0; j-- {
		out = append(out, order[j])
	}

	return out
}
