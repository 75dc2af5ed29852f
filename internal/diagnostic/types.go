package diagnostic

import (
	"fmt"
	"strings"

	"cascade-engine/internal/common"
)

// Diagnostics holds all diagnostic information from validation.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Transition identifies which stage transition this relates to (if any).
	Transition string
	// FieldPath identifies which field this relates to (if any).
	FieldPath string
	// Suggestions are potential fixes or alternatives.
	Suggestions []string
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, transition, fieldPath string, suggestions ...string) {
	d.Errors = append(d.Errors, Diagnostic{
		Severity:    DiagnosticError,
		Code:        code,
		Message:     message,
		Transition:  transition,
		FieldPath:   fieldPath,
		Suggestions: suggestions,
	})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, transition, fieldPath string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity:   DiagnosticWarning,
		Code:       code,
		Message:    message,
		Transition: transition,
		FieldPath:  fieldPath,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, transition, fieldPath string) {
	d.Infos = append(d.Infos, Diagnostic{
		Severity:   DiagnosticInfo,
		Code:       code,
		Message:    message,
		Transition: transition,
		FieldPath:  fieldPath,
	})
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// HasCode returns true if any diagnostic of any severity carries code.
func (d *Diagnostics) HasCode(code string) bool {
	for _, list := range [][]Diagnostic{d.Errors, d.Warnings, d.Infos} {
		for _, diag := range list {
			if diag.Code == code {
				return true
			}
		}
	}

	return false
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// Err returns the error diagnostics as an *Error, or nil if valid.
func (d *Diagnostics) Err() error {
	if d.IsValid() {
		return nil
	}

	return &Error{Diagnostics: d}
}

// Error wraps a failed validation so callers can recover the individual
// diagnostics with errors.As.
type Error struct {
	Diagnostics *Diagnostics
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Diagnostics.Errors))
	for _, diag := range e.Diagnostics.Errors {
		parts = append(parts, diag.String())
	}

	return strings.Join(parts, "; ")
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.Transition != "" {
		prefix = append(prefix, "["+d.Transition+"]")
	}

	if d.FieldPath != "" {
		prefix = append(prefix, d.FieldPath)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}
