package table

import (
	"slices"
	"sync"

	"github.com/engagelively/sdtp/pkg/sdtp"
	"github.com/pkg/errors"
)

// Registry holds the tables served under their names. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]Table
}

func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]Table)}
}

// Add registers t under name. Names must be unique.
func (r *Registry) Add(name string, t Table) error {
	if name == "" {
		return errors.New("table name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[name]; ok {
		return errors.Errorf("table %q is already registered", name)
	}

	r.tables[name] = t
	return nil
}

// Get returns the table registered under name or a NotFoundError.
func (r *Registry) Get(name string) (Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tables[name]
	if !ok {
		return nil, sdtp.NotFoundErrorf("no table named %q", name)
	}

	return t, nil
}

// Names returns the names of all tables in ascending order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// Len returns the number of registered tables.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tables)
}
