package mapping

import (
	"fmt"
)

//go:generate go tool stringer -type=Strategy -linecomment -output=strategy_string.go

// Strategy is how a destination field is derived.
type Strategy int

const (
	StrategyUnknown     Strategy = iota // unknown
	StrategyDirect                      // direct
	StrategyChain                       // chain
	StrategyTransform                   // transform
	StrategyCalculation                 // calculation
	StrategyStatic                      // static
	StrategyManual                      // manual
	StrategyBlocked                     // blocked
)

var strategyByName = map[string]Strategy{
	"direct":      StrategyDirect,
	"chain":       StrategyChain,
	"transform":   StrategyTransform,
	"calculation": StrategyCalculation,
	"static":      StrategyStatic,
	"manual":      StrategyManual,
	"blocked":     StrategyBlocked,
}

// ParseStrategy converts a YAML strategy name.
func ParseStrategy(s string) (Strategy, error) {
	st, ok := strategyByName[s]
	if !ok {
		return StrategyUnknown, fmt.Errorf("unknown strategy %q", s)
	}

	return st, nil
}

// StrategyNames returns the valid strategy names in declaration order.
func StrategyNames() []string {
	out := make([]string, 0, len(strategyByName))
	for s := StrategyDirect; s <= StrategyBlocked; s++ {
		out = append(out, s.String())
	}

	return out
}

// IsDerivation reports whether the strategy calls the derivation registry.
func (s Strategy) IsDerivation() bool {
	return s == StrategyTransform || s == StrategyCalculation
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}
