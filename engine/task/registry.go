package task

import (
	"fmt"
	"sort"
	"sync"

	"github.com/taskwing/taskwing/engine/core"
	"github.com/taskwing/taskwing/pkg/logger"
)

// Registry maps task names to constructors. It is an explicit value meant
// to be injected into the workflow engine and hosts, so independent
// registries (per test, per tenant) can coexist. Lookups take a read lock;
// registration is rare and takes the write lock.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
	log   logger.Logger
}

type RegistryOption func(*Registry)

func WithRegistryLogger(l logger.Logger) RegistryOption {
	return func(r *Registry) {
		r.log = l
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		ctors: make(map[string]Constructor),
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register stores the constructor under name. Registering an existing
// name overwrites the previous entry; that is logged at warning level but
// never fails, so plugin re-registration at startup stays idempotent.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctors[name]; exists {
		r.log.Warn("overwriting registered task", "task", name)
	}
	r.ctors[name] = ctor
}

func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ctors, name)
}

// Create instantiates the named task bound to params. An unknown name
// yields a *NotFoundError carrying the sorted list of registered names.
func (r *Registry) Create(name string, params core.Input) (Task, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Name: name, Known: r.List()}
	}
	t, err := ctor(params)
	if err != nil {
		return nil, fmt.Errorf("failed to construct task %q: %w", name, err)
	}
	return t, nil
}

// Get is the non-throwing lookup for callers that probe for absence.
func (r *Registry) Get(name string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.ctors[name]
	return ctor, ok
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear empties the registry. Test isolation only.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors = make(map[string]Constructor)
}
