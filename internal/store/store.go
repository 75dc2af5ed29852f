package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"cascade-engine/internal/project"
)

var (
	// ErrNotFound is returned when a project or scoping snapshot does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when the stored project changed since it was loaded.
	ErrConflict = errors.New("concurrent update conflict")
)

// Store loads and persists projects and their scoping snapshots.
type Store interface {
	// LoadProject returns a copy of the stored project.
	LoadProject(ctx context.Context, id string) (*project.Project, error)
	// LoadScopingSnapshot returns a copy of the scoping answers.
	LoadScopingSnapshot(ctx context.Context, scopingFormID string) (project.Snapshot, error)
	// Persist stores p if the stored version still equals expectedVersion.
	// On success p.Version and p.UpdatedAt reflect the stored record.
	Persist(ctx context.Context, p *project.Project, expectedVersion int64) error
	// CreateProject starts a project at scheduling, bound to an existing
	// scoping snapshot.
	CreateProject(ctx context.Context, scopingFormID string) (*project.Project, error)
	// SaveScopingSnapshot stores the scoping answers under scopingFormID.
	SaveScopingSnapshot(ctx context.Context, scopingFormID string, snapshot project.Snapshot) error
}

// NewID returns a fresh identifier for projects and scoping forms.
func NewID() string {
	return uuid.NewString()
}
