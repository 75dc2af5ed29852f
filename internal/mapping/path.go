package mapping

import (
	"errors"
	"fmt"
	"strings"

	"cascade-engine/internal/stage"
)

// FieldRef is a parsed source reference: "field" or "stage.field".
type FieldRef struct {
	// Stage pins the reference to one stage bucket; empty means unpinned.
	Stage stage.Stage
	Field string
}

// String returns the reference in its YAML form.
func (r FieldRef) String() string {
	if r.Stage == "" {
		return r.Field
	}

	return string(r.Stage) + "." + r.Field
}

// MarshalText implements encoding.TextMarshaler.
func (r FieldRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// IsPinned returns true if the reference names a stage.
func (r FieldRef) IsPinned() bool {
	return r.Stage != ""
}

// ParseFieldRef parses "field" or "stage.field".
func ParseFieldRef(ref string) (FieldRef, error) {
	if ref == "" {
		return FieldRef{}, errors.New("empty field reference")
	}

	stageName, field, qualified := strings.Cut(ref, ".")
	if !qualified {
		if !isValidIdent(ref) {
			return FieldRef{}, fmt.Errorf("invalid field reference %q: invalid identifier", ref)
		}

		return FieldRef{Field: ref}, nil
	}

	st, err := stage.Parse(stageName)
	if err != nil {
		return FieldRef{}, fmt.Errorf("invalid field reference %q: %w", ref, err)
	}

	if !isValidIdent(field) {
		return FieldRef{}, fmt.Errorf("invalid field reference %q: invalid identifier %q", ref, field)
	}

	return FieldRef{Stage: st, Field: field}, nil
}

// isValidIdent checks the field name is a letter followed by letters, digits or underscores.
func isValidIdent(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !isLetter(r) {
				return false
			}
		} else if !isLetter(r) && !isDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
