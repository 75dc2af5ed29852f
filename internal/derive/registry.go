package derive

import (
	"errors"
	"fmt"
	"sync"

	"cascade-engine/internal/common"
	"cascade-engine/internal/project"
	"cascade-engine/internal/stage"
)

var (
	// ErrDuplicateKey is returned when a key is registered twice.
	ErrDuplicateKey = errors.New("derivation already registered")
	// ErrInvalidDerivation is returned for an empty key or a nil function.
	ErrInvalidDerivation = errors.New("invalid derivation")
)

// Kind is the derivation kind a key is bound to.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransform
	KindCalculation
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindTransform:
		return "transform"
	case KindCalculation:
		return "calculation"
	default:
		return common.UnknownStr
	}
}

// Inputs is what a derivation may read. The cascade hands every derivation
// its own deep copy, so derivations can not corrupt the caller's data.
type Inputs struct {
	Transition stage.Transition
	Snapshot   project.Snapshot
	History    project.StageData
}

// Derivation is implemented only by TransformFunc and CalculationFunc.
type Derivation interface {
	Kind() Kind
	isNil() bool
}

// TransformFunc reshapes a single source value.
type TransformFunc func(source any, in Inputs) (any, error)

// Kind implements Derivation.
func (TransformFunc) Kind() Kind { return KindTransform }

func (f TransformFunc) isNil() bool { return f == nil }

// CalculationFunc derives a value from the full inputs.
type CalculationFunc func(in Inputs) (any, error)

// Kind implements Derivation.
func (CalculationFunc) Kind() Kind { return KindCalculation }

func (f CalculationFunc) isNil() bool { return f == nil }

// Registry maps keys to derivations. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Derivation
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Derivation)}
}

// Register binds key to d.
func (r *Registry) Register(key string, d Derivation) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidDerivation)
	}

	if d == nil || d.isNil() {
		return fmt.Errorf("%w: %q has no function", ErrInvalidDerivation, key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.funcs[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}

	r.funcs[key] = d

	return nil
}

// MustRegister is Register for start-up code; it panics on error.
func (r *Registry) MustRegister(key string, d Derivation) {
	if err := r.Register(key, d); err != nil {
		panic(err)
	}
}

// Lookup returns the derivation bound to key.
func (r *Registry) Lookup(key string) (Derivation, bool) {
	if r == nil {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.funcs[key]

	return d, ok
}

// Kind returns the kind bound to key, or KindUnknown.
func (r *Registry) Kind(key string) Kind {
	d, ok := r.Lookup(key)
	if !ok {
		return KindUnknown
	}

	return d.Kind()
}

// Has returns true if key is registered.
func (r *Registry) Has(key string) bool {
	_, ok := r.Lookup(key)
	return ok
}

// Keys returns all registered keys, sorted.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return common.SortedKeys(r.funcs)
}
