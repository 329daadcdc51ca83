package generator

import (
	"fmt"
	"sort"
	"sync"
)

// ConflictError is returned when two stages share a tag.
type ConflictError struct {
	Tag string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("stage %q is already registered", e.Tag)
}

// Registry holds the stages a run executes, keyed by tag.
//
// Thread-safe: all methods can be called concurrently.
type Registry struct {
	mu     sync.RWMutex
	stages map[string]Stage
}

// NewRegistry creates a registry holding stages.
func NewRegistry(stages ...Stage) (*Registry, error) {
	r := &Registry{stages: make(map[string]Stage)}
	for _, s := range stages {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry holds the built-in stages for m.
func DefaultRegistry(m Markers) *Registry {
	r, err := NewRegistry(Stages(m)...)
	if err != nil {
		// Built-in tags are distinct constants.
		panic(err)
	}
	return r
}

// Register adds a stage.
func (r *Registry) Register(s Stage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stages[s.Tag()]; ok {
		return &ConflictError{Tag: s.Tag()}
	}
	r.stages[s.Tag()] = s
	return nil
}

// Get returns the stage registered under tag.
func (r *Registry) Get(tag string) (Stage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stages[tag]
	return s, ok
}

// Stages returns every stage ordered by tag.
func (r *Registry) Stages() []Stage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Stage, 0, len(r.stages))
	for _, s := range r.stages {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag() < out[j].Tag() })
	return out
}
