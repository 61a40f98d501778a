package kdag

import (
	"slices"
	"strings"
)

// Route is an ordered chain of tasks from a root to some task, each one
// depending on the previous.
type Route []TaskID

func (r Route) String() string {
	parts := make([]string, len(r))
	for i, id := range r {
		parts[i] = string(id)
	}
	return strings.Join(parts, "->")
}

// DAG is a fully built, validated task graph.
type DAG struct {
	graph  *Graph
	order  []TaskID
	routes []Route
}

// Tasks returns all tasks in deterministic topological order.
func (d *DAG) Tasks() []TaskID {
	return slices.Clone(d.order)
}

// Roots returns the tasks without dependencies.
func (d *DAG) Roots() []TaskID {
	return d.graph.Roots()
}

// Routes returns every root-to-task route. Routes are grouped by their last
// task in topological order. A diamond yields 5 routes:
//
//	top
//	top->left
//	top->right
//	top->left->bottom
//	top->right->bottom
func (d *DAG) Routes() []Route {
	out := make([]Route, len(d.routes))
	for i, r := range d.routes {
		out[i] = slices.Clone(r)
	}
	return out
}

// Has reports whether task is part of the DAG.
func (d *DAG) Has(task TaskID) bool {
	_, ok := d.graph.Nodes[task]
	return ok
}

// GetGraph returns the underlying graph for read-only access.
func (d *DAG) GetGraph() *Graph {
	return d.graph
}
