package stage

import (
	"fmt"
)

// Transition is an ordered from->to stage pair.
type Transition struct {
	From Stage `yaml:"from" json:"from"`
	To   Stage `yaml:"to" json:"to"`
}

// String returns "from->to".
func (t Transition) String() string {
	return fmt.Sprintf("%s->%s", t.From, t.To)
}

// Validate returns ErrInvalidTransition unless To is the immediate
// successor of From.
func Validate(t Transition) error {
	if !t.From.IsValid() {
		return fmt.Errorf("%w: %w: from %q", ErrInvalidTransition, ErrUnknownStage, t.From)
	}

	if !t.To.IsValid() {
		return fmt.Errorf("%w: %w: to %q", ErrInvalidTransition, ErrUnknownStage, t.To)
	}

	next, ok := Next(t.From)
	if !ok || next != t.To {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, t)
	}

	return nil
}

// Forward returns the transition from s to its successor.
func Forward(s Stage) (Transition, bool) {
	next, ok := Next(s)
	if !ok {
		return Transition{}, false
	}

	return Transition{From: s, To: next}, true
}

// Transitions returns every valid transition in production order.
func Transitions() []Transition {
	out := make([]Transition, 0, len(order)-1)
	for i := 0; i+1 < len(order); i++ {
		out = append(out, Transition{From: order[i], To: order[i+1]})
	}

	return out
}
