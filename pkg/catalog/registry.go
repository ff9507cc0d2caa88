package catalog

import (
	"slices"
	"sync"
)

// Registry serves the current catalog to concurrent readers and lets the
// watcher swap it in one step.
type Registry struct {
	mu        sync.RWMutex
	current   Catalog
	listeners []func(Catalog)
}

func NewRegistry(c Catalog) *Registry {
	return &Registry{current: c}
}

func (r *Registry) Catalog() Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Catalog{
		Resources: slices.Clone(r.current.Resources),
		Tools:     slices.Clone(r.current.Tools),
		Prompts:   slices.Clone(r.current.Prompts),
	}
}

func (r *Registry) ListResources() []Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return nonNil(slices.Clone(r.current.Resources))
}

func (r *Registry) ListTools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return nonNil(slices.Clone(r.current.Tools))
}

func (r *Registry) ListPrompts() []Prompt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return nonNil(slices.Clone(r.current.Prompts))
}

func (r *Registry) Resource(uri string) (Resource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, resource := range r.current.Resources {
		if resource.URI == uri {
			return resource, true
		}
	}
	return Resource{}, false
}

func (r *Registry) Tool(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, tool := range r.current.Tools {
		if tool.Name == name {
			return tool, true
		}
	}
	return Tool{}, false
}

func (r *Registry) Prompt(name string) (Prompt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, prompt := range r.current.Prompts {
		if prompt.Name == name {
			return prompt, true
		}
	}
	return Prompt{}, false
}

// Replace installs a new catalog and notifies the change listeners.
func (r *Registry) Replace(c Catalog) {
	r.mu.Lock()
	r.current = c
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	for _, listener := range listeners {
		listener(c)
	}
}

// OnChange registers a callback invoked after every Replace.
func (r *Registry) OnChange(listener func(Catalog)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listeners = append(r.listeners, listener)
}

// JSON encoders render nil slices as null; listings are always arrays.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
