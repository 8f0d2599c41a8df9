package blueprint

import (
	"fmt"
	"sort"
	"sync"
)

// Info pairs a blueprint type with its registered shape, for API listing.
type Info struct {
	Type       string `json:"type"`
	Mode       string `json:"mode"`
	Onboarding bool   `json:"onboarding"`
}

// Registry holds registered blueprints keyed by task type. Callers resolve a
// type to its blueprint instead of constructing task logic directly.
type Registry struct {
	mu         sync.RWMutex
	blueprints map[string]*Blueprint
}

// NewRegistry creates an empty blueprint registry.
func NewRegistry() *Registry {
	return &Registry{
		blueprints: make(map[string]*Blueprint),
	}
}

// Register validates the blueprint's mode/logic pairing and adds it under
// its type key. Registering the same type twice is an error.
func (r *Registry) Register(b *Blueprint) error {
	if err := b.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.blueprints[b.Type]; exists {
		return fmt.Errorf("blueprint %q is already registered", b.Type)
	}
	r.blueprints[b.Type] = b
	return nil
}

// Resolve returns the blueprint registered for the given task type.
func (r *Registry) Resolve(taskType string) (*Blueprint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.blueprints[taskType]
	if !ok {
		return nil, fmt.Errorf("blueprint %q is not registered", taskType)
	}
	return b, nil
}

// List returns information about all registered blueprints, sorted by type
// for a stable API response.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.blueprints))
	for _, b := range r.blueprints {
		infos = append(infos, Info{
			Type:       b.Type,
			Mode:       b.Mode.String(),
			Onboarding: b.Onboarding != nil,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Type < infos[j].Type
	})
	return infos
}
