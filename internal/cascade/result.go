package cascade

import (
	"cascade-engine/internal/mapping"
	"cascade-engine/internal/project"
	"cascade-engine/internal/stage"
)

// ReasonCode classifies why a mapping was skipped.
type ReasonCode string

const (
	ReasonManual           ReasonCode = "manual"
	ReasonBlocked          ReasonCode = "blocked"
	ReasonSourceNotReady   ReasonCode = "source_not_ready"
	ReasonDerivationFailed ReasonCode = "derivation_failed"
)

// Message returns the human-readable reason shown in previews.
func (c ReasonCode) Message() string {
	switch c {
	case ReasonManual:
		return "manual entry required"
	case ReasonBlocked:
		return "blocked"
	case ReasonSourceNotReady:
		return "source not yet filled"
	case ReasonDerivationFailed:
		return "derivation failed"
	default:
		return string(c)
	}
}

// PrefillResult is the outcome of one mapping.
type PrefillResult struct {
	Mapping mapping.PrefillMapping `json:"mapping"`
	Value   any                    `json:"value,omitempty"`
	Skipped bool                   `json:"skipped"`
	// Reason is the human-readable skip reason; Code is its stable form.
	Reason string     `json:"reason,omitempty"`
	Code   ReasonCode `json:"code,omitempty"`
	// Detail carries the diagnostic message of a failed derivation.
	Detail string `json:"detail,omitempty"`
	// SourceStage is the bucket a chain value was read from.
	SourceStage stage.Stage `json:"sourceStage,omitempty"`
}

// Plan is the output of one resolution: the patch to merge and the audit
// trail of every mapping, skipped or not.
type Plan struct {
	Transition stage.Transition `json:"transition"`
	Data       project.Fields   `json:"data"`
	Results    []PrefillResult  `json:"results"`
}

// Summary counts plan outcomes.
type Summary struct {
	Total    int                `json:"total"`
	Resolved int                `json:"resolved"`
	Skipped  int                `json:"skipped"`
	ByReason map[ReasonCode]int `json:"byReason,omitempty"`
}

// Resolved returns the results that produced a value.
func (p *Plan) Resolved() []PrefillResult {
	var out []PrefillResult

	for _, r := range p.Results {
		if !r.Skipped {
			out = append(out, r)
		}
	}

	return out
}

// Skipped returns the results that did not produce a value.
func (p *Plan) Skipped() []PrefillResult {
	var out []PrefillResult

	for _, r := range p.Results {
		if r.Skipped {
			out = append(out, r)
		}
	}

	return out
}

// Summary counts resolved and skipped results, and skips per reason.
func (p *Plan) Summary() Summary {
	s := Summary{Total: len(p.Results), ByReason: map[ReasonCode]int{}}

	for _, r := range p.Results {
		if r.Skipped {
			s.Skipped++
			s.ByReason[r.Code]++
		} else {
			s.Resolved++
		}
	}

	return s
}
