package project

import (
	"errors"
	"fmt"
	"time"

	"cascade-engine/internal/stage"
)

// ErrStageNotReached is returned when editing a stage the project has not entered yet.
var ErrStageNotReached = errors.New("stage not reached")

// Project is the aggregate root the cascade operates on. It is bound 1:1
// to a scoping form and advances monotonically through the stages.
type Project struct {
	ID            string      `yaml:"id" json:"id"`
	ScopingFormID string      `yaml:"scoping_form_id" json:"scopingFormId"`
	CurrentStage  stage.Stage `yaml:"current_stage" json:"currentStage"`
	StageData     StageData   `yaml:"stage_data" json:"stageData"`
	// Version increments on every persist and backs optimistic concurrency.
	Version   int64     `yaml:"version" json:"version"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updatedAt"`
}

// New creates a project at the scheduling stage.
func New(id, scopingFormID string) *Project {
	return &Project{
		ID:            id,
		ScopingFormID: scopingFormID,
		CurrentStage:  stage.Scheduling,
		StageData:     StageData{stage.Scheduling: Fields{}},
	}
}

// Clone returns a deep copy of p.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}

	cp := *p
	cp.StageData = p.StageData.Clone()

	return &cp
}

// Reached reports whether the project has entered st.
func (p *Project) Reached(st stage.Stage) bool {
	cur, ok := stage.Order(p.CurrentStage)
	if !ok {
		return false
	}

	i, ok := stage.Order(st)

	return ok && i <= cur
}

// SetField records an operator edit. Edits may correct any stage the project
// has already reached and always overwrite; only the cascade refuses to clobber.
func (p *Project) SetField(st stage.Stage, field string, v any) error {
	if !st.IsValid() {
		return fmt.Errorf("%w: %q", stage.ErrUnknownStage, st)
	}

	if !p.Reached(st) {
		return fmt.Errorf("%w: %s (current %s)", ErrStageNotReached, st, p.CurrentStage)
	}

	if err := CheckValue(st, field, v); err != nil {
		return err
	}

	if p.StageData == nil {
		p.StageData = StageData{}
	}

	if p.StageData[st] == nil {
		p.StageData[st] = Fields{}
	}

	p.StageData[st][field] = CloneValue(v)

	return nil
}

// ApplyPrefill merges patch into the bucket of st without overwriting
// non-empty values. It returns the keys written and the keys kept.
func (p *Project) ApplyPrefill(st stage.Stage, patch Fields) (written, kept []string) {
	if p.StageData == nil {
		p.StageData = StageData{}
	}

	if p.StageData[st] == nil {
		p.StageData[st] = Fields{}
	}

	return MergeAbsent(p.StageData[st], patch)
}
