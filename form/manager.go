package form

import (
	"fmt"
	"sort"
	"sync"

	"github.com/formstep-io/formstep/types"
)

// Manager keys live form instances by ID. Hosts running several forms
// share one manager instead of reaching for package-level state.
type Manager struct {
	mu    sync.Mutex
	forms map[string]*Form
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{forms: make(map[string]*Form)}
}

// Add registers a form. A duplicate ID is a caller error.
func (m *Manager) Add(f *Form) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.forms[f.ID()]; ok {
		return fmt.Errorf("%w: %s", types.ErrUsage, f.ID())
	}
	m.forms[f.ID()] = f
	return nil
}

// Get returns the form with the given ID.
func (m *Manager) Get(id string) (*Form, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.forms[id]
	return f, ok
}

// Remove drops a form from the manager. The form is not closed; the
// caller owns its lifecycle.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.forms[id]; !ok {
		return false
	}
	delete(m.forms, id)
	return true
}

// IDs returns the registered form IDs, sorted.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.forms))
	for id := range m.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered forms.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.forms)
}
