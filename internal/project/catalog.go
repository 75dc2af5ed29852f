package project

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cascade-engine/internal/match"
	"cascade-engine/internal/stage"
)

// Kind is the value shape a catalog field accepts.
type Kind string

const (
	KindText   Kind = "text"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindDate   Kind = "date"
	KindList   Kind = "list"
)

// DateLayout is the layout date fields are stored in.
const DateLayout = "2006-01-02"

var (
	// ErrUnknownField is returned when a field is not in a stage's catalog.
	ErrUnknownField = errors.New("unknown field")
	// ErrKindMismatch is returned when a value does not fit the field's kind.
	ErrKindMismatch = errors.New("value does not match field kind")
)

// FieldSpec describes one field a stage carries.
type FieldSpec struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Accepts reports whether v is a valid value for k. Empty values are always
// accepted so a field can be cleared.
func (k Kind) Accepts(v any) bool {
	if IsEmpty(v) {
		return true
	}

	switch k {
	case KindText:
		_, ok := v.(string)
		return ok
	case KindNumber:
		switch v.(type) {
		case int, int32, int64, uint, uint32, uint64, float32, float64:
			return true
		}

		return false
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindDate:
		switch d := v.(type) {
		case time.Time:
			return true
		case string:
			_, err := time.Parse(DateLayout, d)
			return err == nil
		}

		return false
	case KindList:
		switch v.(type) {
		case []any, []string:
			return true
		}

		return false
	default:
		return false
	}
}

func text(name string) FieldSpec   { return FieldSpec{Name: name, Kind: KindText} }
func number(name string) FieldSpec { return FieldSpec{Name: name, Kind: KindNumber} }
func flag(name string) FieldSpec   { return FieldSpec{Name: name, Kind: KindBool} }
func date(name string) FieldSpec   { return FieldSpec{Name: name, Kind: KindDate} }
func list(name string) FieldSpec   { return FieldSpec{Name: name, Kind: KindList} }

var catalog = map[stage.Stage][]FieldSpec{
	stage.Scheduling: {
		text("projectName"),
		text("projectAddress"),
		text("clientName"),
		number("estSF"),
		text("buildingType"),
		text("siteContact"),
		text("dispatchLocation"),
		date("scheduledDate"),
		text("fieldTech"),
		text("schedulingNotes"),
	},
	stage.FieldCapture: {
		text("projectName"),
		text("projectAddress"),
		text("siteContact"),
		text("dispatchLocation"),
		text("fieldTech"),
		date("fieldDate"),
		text("sizeTier"),
		number("estScanCount"),
		flag("basementInScope"),
		flag("roofAccess"),
		list("riskFactors"),
		list("equipment"),
		number("scanCount"),
		flag("weatherDelay"),
		text("fieldNotes"),
	},
	stage.Registration: {
		text("projectName"),
		text("fieldTech"),
		date("fieldDate"),
		number("scanCount"),
		number("estScanCount"),
		text("registrationSoftware"),
		text("targetAccuracy"),
		flag("georeferenced"),
		text("registrationTech"),
		number("registrationRMS"),
		number("cloudSizeGB"),
		date("registrationDate"),
	},
	stage.BIMQC: {
		text("projectName"),
		number("scanCount"),
		number("registrationRMS"),
		text("sizeTier"),
		text("lod"),
		list("disciplines"),
		text("modelingSoftware"),
		text("modeler"),
		text("qcReviewer"),
		list("qcChecklist"),
		text("securityTier"),
		flag("qcPassed"),
	},
	stage.PCDelivery: {
		text("projectName"),
		text("clientName"),
		text("pointCloudFormat"),
		text("deliverableFormat"),
		text("deliveryMethod"),
		number("scanCount"),
		number("registrationRMS"),
		flag("georeferenced"),
		text("securityTier"),
		text("deliveredBy"),
		date("pcDeliveryDate"),
	},
	stage.FinalDelivery: {
		text("projectName"),
		text("clientName"),
		text("deliverableFormat"),
		text("deliveryMethod"),
		text("lod"),
		list("disciplines"),
		text("invoiceNumber"),
		flag("finalSignoff"),
		date("deliveredDate"),
		text("closeoutNotes"),
	},
}

// Catalog returns the field specs of st in declaration order.
func Catalog(st stage.Stage) []FieldSpec {
	specs := catalog[st]
	out := make([]FieldSpec, len(specs))
	copy(out, specs)

	return out
}

// FieldNames returns the names of the fields st carries.
func FieldNames(st stage.Stage) []string {
	specs := catalog[st]
	out := make([]string, len(specs))

	for i, s := range specs {
		out[i] = s.Name
	}

	return out
}

// Lookup returns the spec of field in st.
func Lookup(st stage.Stage, field string) (FieldSpec, bool) {
	for _, s := range catalog[st] {
		if s.Name == field {
			return s, true
		}
	}

	return FieldSpec{}, false
}

// CheckValue validates that field exists in st and that v fits its kind.
func CheckValue(st stage.Stage, field string, v any) error {
	spec, ok := Lookup(st, field)
	if !ok {
		if hint := match.Suggest(field, FieldNames(st), 3); len(hint) > 0 {
			return fmt.Errorf("%w: %s.%s (did you mean %s?)", ErrUnknownField, st, field, strings.Join(hint, ", "))
		}

		return fmt.Errorf("%w: %s.%s", ErrUnknownField, st, field)
	}

	if !spec.Kind.Accepts(v) {
		return fmt.Errorf("%w: %s.%s wants %s, got %T", ErrKindMismatch, st, field, spec.Kind, v)
	}

	return nil
}
