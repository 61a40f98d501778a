package kstats

import (
	"sync"

	"github.com/go-logr/logr"
)

// Registry owns every Graph created through it, in creation order.
type Registry struct {
	log logr.Logger

	mu     sync.RWMutex
	graphs []*Graph
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		log: logr.Discard(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Graph creates a new graph named name and appends it.
//
// Graph does not deduplicate: calling it twice with the same name yields two
// graphs, each accumulating its own runs. Use LookupOrCreate to keep a single
// graph per name.
func (r *Registry) Graph(name string) *Graph {
	g := newGraph(name, r.log)

	r.mu.Lock()
	r.graphs = append(r.graphs, g)
	r.mu.Unlock()

	r.log.V(1).Info("Created graph", "graph", name)
	return g
}

// Lookup returns the first graph created with name.
func (r *Registry) Lookup(name string) (*Graph, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(name)
}

// LookupOrCreate returns the first graph named name, creating it if none
// exists. Check and append happen under one lock, so concurrent callers
// agree on a single graph.
func (r *Registry) LookupOrCreate(name string) *Graph {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.lookupLocked(name); ok {
		return g
	}

	g := newGraph(name, r.log)
	r.graphs = append(r.graphs, g)
	r.log.V(1).Info("Created graph", "graph", name)
	return g
}

func (r *Registry) lookupLocked(name string) (*Graph, bool) {
	for _, g := range r.graphs {
		if g.name == name {
			return g, true
		}
	}
	return nil, false
}

// Graphs returns all graphs in creation order.
func (r *Registry) Graphs() []*Graph {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Graph, len(r.graphs))
	copy(out, r.graphs)
	return out
}
