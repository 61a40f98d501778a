package kstats

import (
	"sync"

	"github.com/go-logr/logr"
)

// Graph collects the paths of every run that shares a name.
type Graph struct {
	name string
	log  logr.Logger

	mu    sync.RWMutex
	paths []*Path
}

func newGraph(name string, log logr.Logger) *Graph {
	return &Graph{
		name: name,
		log:  log.WithValues("graph", name),
	}
}

func (g *Graph) Name() string {
	return g.name
}

// Path appends a new, empty path and returns it. Deciding when a new route
// has begun is up to the caller; paths are never deduplicated.
func (g *Graph) Path() *Path {
	p := newPath()

	g.mu.Lock()
	g.paths = append(g.paths, p)
	idx := len(g.paths) - 1
	g.mu.Unlock()

	g.log.V(2).Info("Created path", "path", idx)
	return p
}

// Paths returns all paths in creation order. The slice is a copy; the paths
// are live and may still be updated.
func (g *Graph) Paths() []*Path {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Path, len(g.paths))
	copy(out, g.paths)
	return out
}

// Len returns the number of paths.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.paths)
}
