package kdag

import (
	"errors"
	"fmt"
)

// Builder constructs a task DAG.
//
// IMPORTANT: Builder is NOT safe for concurrent use. All registration
// methods must be called from a single goroutine. The resulting DAG
// is immutable and safe to use concurrently.
type Builder struct {
	graph *Graph
}

// NewBuilder creates a new DAG builder.
func NewBuilder() *Builder {
	return &Builder{
		graph: NewGraph(),
	}
}

// Build validates the graph and computes its routes.
func (b *Builder) Build() (*DAG, error) {
	if err := b.graph.Validate(); err != nil {
		return nil, err
	}

	order, err := b.graph.topologicalSort()
	if err != nil {
		return nil, err
	}

	routes, err := b.graph.computeRoutes(order)
	if err != nil {
		return nil, fmt.Errorf("failed to compute routes: %w", err)
	}

	return &DAG{
		graph:  b.graph,
		order:  order,
		routes: routes,
	}, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *DAG {
	dag, err := b.Build()
	if err != nil {
		panic(err)
	}
	return dag
}

// GetGraph returns the underlying graph for read-only access.
func (b *Builder) GetGraph() *Graph {
	return b.graph
}

// GetNode returns a node by ID if it exists.
func (b *Builder) GetNode(id TaskID) (*Node, bool) {
	node, ok := b.graph.Nodes[id]
	return node, ok
}

// AddTask adds a task that depends on deps. Every dependency must already be
// registered, so tasks are added in dependency order.
func (b *Builder) AddTask(name string, deps ...string) error {
	nodeID := TaskID(name)

	if err := nodeID.Validate(); err != nil {
		return err
	}

	if _, exists := b.graph.Nodes[nodeID]; exists {
		return fmt.Errorf("%w: task %q", ErrTaskAlreadyExists, name)
	}

	seen := make(map[string]bool, len(deps))
	for _, dep := range deps {
		if _, ok := b.graph.Nodes[TaskID(dep)]; !ok {
			return fmt.Errorf("%w: dependency %q of %q", ErrTaskNotFound, dep, name)
		}
		if seen[dep] {
			return fmt.Errorf("%w: %q listed twice as dependency of %q", ErrInvalidTopology, dep, name)
		}
		seen[dep] = true
	}

	node := &Node{
		ID:       nodeID,
		Parents:  []TaskID{},
		Children: []TaskID{},
	}
	if err := b.graph.AddNode(node); err != nil {
		return err
	}

	for _, dep := range deps {
		if err := b.graph.AddEdge(TaskID(dep), nodeID); err != nil {
			return fmt.Errorf("cannot connect %s -> %s: %w", dep, name, err)
		}
	}

	return nil
}

// MustAddTask is like AddTask but panics on error.
func (b *Builder) MustAddTask(name string, deps ...string) {
	must(b.AddTask(name, deps...))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Sentinel errors for common failure cases.
var (
	ErrTaskAlreadyExists   = errors.New("task already exists")
	ErrTaskNotFound        = errors.New("task not found")
	ErrCycleDetected       = errors.New("cycle detected in DAG")
	ErrInvalidTaskID       = errors.New("invalid task ID")
	ErrInvalidTopology     = errors.New("invalid topology")
	ErrRunEnded            = errors.New("run already ended")
	ErrTaskAlreadyReported = errors.New("task already reported")
)
