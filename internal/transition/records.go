package transition

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cascade-engine/internal/project"
	"cascade-engine/internal/stage"
	"cascade-engine/internal/store"
)

// Create stores a scoping snapshot under a fresh scoping form id and starts a
// project bound to it.
func (s *Service) Create(ctx context.Context, snapshot project.Snapshot) (*project.Project, error) {
	formID := store.NewID()

	if err := s.store.SaveScopingSnapshot(ctx, formID, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save scoping snapshot: %w", err)
	}

	p, err := s.store.CreateProject(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.log.Info("transition: project created", zap.String("project", p.ID), zap.String("scoping_form", formID))

	return p, nil
}

// Project returns the stored project.
func (s *Service) Project(ctx context.Context, projectID string) (*project.Project, error) {
	p, err := s.store.LoadProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	return p, nil
}

// SetField records an operator edit on a stage the project has reached.
// Operator edits always overwrite.
func (s *Service) SetField(ctx context.Context, projectID string, st stage.Stage, field string, v any) (*project.Project, error) {
	p, err := s.store.LoadProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	expected := p.Version

	if err := p.SetField(st, field, v); err != nil {
		return nil, err
	}

	if err := s.store.Persist(ctx, p, expected); err != nil {
		return nil, fmt.Errorf("failed to persist project: %w", err)
	}

	s.log.Debug("transition: field set",
		zap.String("project", projectID),
		zap.Stringer("stage", st),
		zap.String("field", field),
	)

	return p, nil
}
