package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cascade-engine/internal/project"
)

// Memory is a Store kept in process memory. Values are cloned on the way in
// and out, so callers never share state with the store.
type Memory struct {
	mu        sync.RWMutex
	projects  map[string]*project.Project
	snapshots map[string]project.Snapshot
	locks     map[string]*sync.Mutex

	now func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		projects:  map[string]*project.Project{},
		snapshots: map[string]project.Snapshot{},
		locks:     map[string]*sync.Mutex{},
		now:       time.Now,
	}
}

func (m *Memory) lockFor(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}

	return l
}

// LoadProject implements Store.
func (m *Memory) LoadProject(ctx context.Context, id string) (*project.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %q: %w", id, ErrNotFound)
	}

	return p.Clone(), nil
}

// LoadScopingSnapshot implements Store.
func (m *Memory) LoadScopingSnapshot(ctx context.Context, scopingFormID string) (project.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.snapshots[scopingFormID]
	if !ok {
		return nil, fmt.Errorf("scoping form %q: %w", scopingFormID, ErrNotFound)
	}

	return s.Clone(), nil
}

// Persist implements Store.
func (m *Memory) Persist(ctx context.Context, p *project.Project, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l := m.lockFor(p.ID)
	l.Lock()
	defer l.Unlock()

	m.mu.RLock()
	cur, ok := m.projects[p.ID]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("project %q: %w", p.ID, ErrNotFound)
	}

	if cur.Version != expectedVersion {
		return fmt.Errorf("project %q: %w: expected version %d, stored %d",
			p.ID, ErrConflict, expectedVersion, cur.Version)
	}

	p.Version = expectedVersion + 1
	p.UpdatedAt = m.now().UTC()

	m.mu.Lock()
	m.projects[p.ID] = p.Clone()
	m.mu.Unlock()

	return nil
}

// CreateProject implements Store.
func (m *Memory) CreateProject(ctx context.Context, scopingFormID string) (*project.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.snapshots[scopingFormID]; !ok {
		return nil, fmt.Errorf("scoping form %q: %w", scopingFormID, ErrNotFound)
	}

	p := project.New(NewID(), scopingFormID)
	p.Version = 1
	p.UpdatedAt = m.now().UTC()
	m.projects[p.ID] = p.Clone()

	return p, nil
}

// SaveScopingSnapshot implements Store.
func (m *Memory) SaveScopingSnapshot(ctx context.Context, scopingFormID string, snapshot project.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if scopingFormID == "" {
		return fmt.Errorf("scoping form id: %w", ErrNotFound)
	}

	if snapshot == nil {
		snapshot = project.Snapshot{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[scopingFormID] = snapshot.Clone()

	return nil
}
