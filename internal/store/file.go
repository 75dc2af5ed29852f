package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"cascade-engine/internal/project"
)

// document is the on-disk layout of a File store.
type document struct {
	Projects map[string]*project.Project `yaml:"projects"`
	Scoping  map[string]project.Snapshot `yaml:"scoping"`
}

// File is a Store backed by one YAML document. Every operation reads the
// document and every write replaces it atomically, so several processes
// sharing a path see each other's commits. The version check makes
// concurrent advances from one process safe; across processes it is best
// effort.
type File struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

var _ Store = (*File)(nil)

// NewFile returns a store persisting to path. The file is created on the
// first write.
func NewFile(path string) *File {
	return &File{path: path, now: time.Now}
}

func (f *File) read() (*document, error) {
	doc := &document{}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		data = nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}

	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse store %s: %w", f.path, err)
	}

	if doc.Projects == nil {
		doc.Projects = map[string]*project.Project{}
	}

	if doc.Scoping == nil {
		doc.Scoping = map[string]project.Snapshot{}
	}

	return doc, nil
}

func (f *File) write(doc *document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to write store: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write store: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write store: %w", err)
	}

	return nil
}

// LoadProject implements Store.
func (f *File) LoadProject(ctx context.Context, id string) (*project.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, err
	}

	p, ok := doc.Projects[id]
	if !ok || p == nil {
		return nil, fmt.Errorf("project %q: %w", id, ErrNotFound)
	}

	return p, nil
}

// LoadScopingSnapshot implements Store.
func (f *File) LoadScopingSnapshot(ctx context.Context, scopingFormID string) (project.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, err
	}

	s, ok := doc.Scoping[scopingFormID]
	if !ok {
		return nil, fmt.Errorf("scoping form %q: %w", scopingFormID, ErrNotFound)
	}

	if s == nil {
		s = project.Snapshot{}
	}

	return s, nil
}

// Persist implements Store.
func (f *File) Persist(ctx context.Context, p *project.Project, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}

	cur, ok := doc.Projects[p.ID]
	if !ok || cur == nil {
		return fmt.Errorf("project %q: %w", p.ID, ErrNotFound)
	}

	if cur.Version != expectedVersion {
		return fmt.Errorf("project %q: %w: expected version %d, stored %d",
			p.ID, ErrConflict, expectedVersion, cur.Version)
	}

	next := p.Clone()
	next.Version = expectedVersion + 1
	next.UpdatedAt = f.now().UTC()
	doc.Projects[p.ID] = next

	if err := f.write(doc); err != nil {
		return err
	}

	p.Version, p.UpdatedAt = next.Version, next.UpdatedAt

	return nil
}

// CreateProject implements Store.
func (f *File) CreateProject(ctx context.Context, scopingFormID string) (*project.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, err
	}

	if _, ok := doc.Scoping[scopingFormID]; !ok {
		return nil, fmt.Errorf("scoping form %q: %w", scopingFormID, ErrNotFound)
	}

	p := project.New(NewID(), scopingFormID)
	p.Version = 1
	p.UpdatedAt = f.now().UTC()
	doc.Projects[p.ID] = p.Clone()

	if err := f.write(doc); err != nil {
		return nil, err
	}

	return p, nil
}

// SaveScopingSnapshot implements Store.
func (f *File) SaveScopingSnapshot(ctx context.Context, scopingFormID string, snapshot project.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if scopingFormID == "" {
		return fmt.Errorf("scoping form id: %w", ErrNotFound)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}

	if snapshot == nil {
		snapshot = project.Snapshot{}
	}

	doc.Scoping[scopingFormID] = snapshot.Clone()

	return f.write(doc)
}
