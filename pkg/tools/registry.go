// Package tools implements the Tool Registry (spec §4.8) and the Router
// (spec §4.7). The registry's registration/lookup shape — an RWMutex-
// guarded map with a rejects-duplicates Register and a sorted listing
// operation — follows the teacher's ai.ProviderRegistry
// (ai/registry.go): Register/MustRegister/GetProvider/ListProviders
// generalized from named AI providers to ToolType capabilities.
package tools

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cogpipe/core/pkg/types"
)

// Executor is what a registered tool actually runs when routed to.
type Executor func(method string, parameters map[string]interface{}) (interface{}, error)

type entry struct {
	capability types.ToolCapability
	executor   Executor
	available  bool
}

// Registry holds every registered tool capability, keyed by ToolType,
// with unique alias resolution (spec §4.8 invariants).
type Registry struct {
	mu      sync.RWMutex
	entries map[types.ToolType]*entry
	aliases map[string]types.ToolType
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[types.ToolType]*entry),
		aliases: make(map[string]types.ToolType),
	}
}

// Register adds a capability and its executor. It rejects a second
// registration for the same ToolType and rejects aliases already bound
// to a different type (spec §4.8).
func (r *Registry) Register(capability types.ToolCapability, executor Executor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[capability.Type]; exists {
		return fmt.Errorf("tool type %q is already registered", capability.Type)
	}
	for _, alias := range capability.Aliases {
		if bound, exists := r.aliases[alias]; exists && bound != capability.Type {
			return fmt.Errorf("alias %q already resolves to tool type %q", alias, bound)
		}
	}

	capability.Available = true
	r.entries[capability.Type] = &entry{capability: capability, executor: executor, available: true}
	for _, alias := range capability.Aliases {
		r.aliases[alias] = capability.Type
	}
	return nil
}

// Unregister removes a tool type and its aliases.
func (r *Registry) Unregister(toolType types.ToolType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[toolType]
	if !exists {
		return
	}
	for _, alias := range e.capability.Aliases {
		delete(r.aliases, alias)
	}
	delete(r.entries, toolType)
}

// Get returns the capability and executor registered for toolType.
func (r *Registry) Get(toolType types.ToolType) (types.ToolCapability, Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[toolType]
	if !exists {
		return types.ToolCapability{}, nil, false
	}
	return e.capability, e.executor, true
}

// GetByAlias resolves an alias to its registered capability.
func (r *Registry) GetByAlias(name string) (types.ToolCapability, Executor, bool) {
	r.mu.RLock()
	toolType, exists := r.aliases[name]
	r.mu.RUnlock()
	if !exists {
		return types.ToolCapability{}, nil, false
	}
	return r.Get(toolType)
}

// IsAvailable reports whether toolType is registered and available.
func (r *Registry) IsAvailable(toolType types.ToolType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[toolType]
	return exists && e.available
}

// SetAvailability flips a registered tool's availability flag.
func (r *Registry) SetAvailability(toolType types.ToolType, available bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, exists := r.entries[toolType]; exists {
		e.available = available
		e.capability.Available = available
	}
}

// GetAvailableTools returns every available capability, sorted by
// priority descending (spec §4.8).
func (r *Registry) GetAvailableTools() []types.ToolCapability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.ToolCapability, 0, len(r.entries))
	for _, e := range r.entries {
		if e.available {
			out = append(out, e.capability)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// GetToolsByOperation returns every capability advertising the named
// operation.
func (r *Registry) GetToolsByOperation(operation string) []types.ToolCapability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []types.ToolCapability
	for _, e := range r.entries {
		for _, op := range e.capability.Operations {
			if op == operation {
				out = append(out, e.capability)
				break
			}
		}
	}
	return out
}

// GetStreamingTools returns every capability that supports streaming.
func (r *Registry) GetStreamingTools() []types.ToolCapability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []types.ToolCapability
	for _, e := range r.entries {
		if e.capability.SupportsStreaming {
			out = append(out, e.capability)
		}
	}
	return out
}

// DependencyValidation is the result of ValidateDependencies.
type DependencyValidation struct {
	Valid   bool
	Missing []types.ToolType
}

// ValidateDependencies checks that every tool a capability declares as a
// dependency is itself registered and available.
func (r *Registry) ValidateDependencies(toolType types.ToolType) DependencyValidation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[toolType]
	if !exists {
		return DependencyValidation{Valid: false, Missing: []types.ToolType{toolType}}
	}

	var missing []types.ToolType
	for _, dep := range e.capability.Dependencies {
		d, ok := r.entries[dep]
		if !ok || !d.available {
			missing = append(missing, dep)
		}
	}
	return DependencyValidation{Valid: len(missing) == 0, Missing: missing}
}

// Stats summarizes the registry's current contents.
type Stats struct {
	Total       int
	Available   int
	Unavailable int
	Streaming   int
}

// GetStats returns a snapshot summary of the registry (spec §4.8).
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{Total: len(r.entries)}
	for _, e := range r.entries {
		if e.available {
			stats.Available++
		} else {
			stats.Unavailable++
		}
		if e.capability.SupportsStreaming {
			stats.Streaming++
		}
	}
	return stats
}
