package kdag

import (
	"fmt"
	"strings"
)

// TaskID is a strongly-typed identifier for tasks.
// TaskIDs must be non-empty and cannot contain whitespace.
type TaskID string

// Validate checks if the TaskID is valid.
// Returns ErrInvalidTaskID if the ID is empty or contains whitespace.
func (id TaskID) Validate() error {
	if id == "" {
		return fmt.Errorf("%w: TaskID cannot be empty", ErrInvalidTaskID)
	}
	if strings.ContainsAny(string(id), " \t\n\r") {
		return fmt.Errorf("%w: TaskID %q cannot contain whitespace", ErrInvalidTaskID, id)
	}
	return nil
}

// Node is a task in the graph with its dependency edges.
type Node struct {
	ID TaskID

	// Tasks this one depends on (incoming)
	Parents []TaskID

	// Tasks depending on this one (outgoing)
	Children []TaskID
}

// Graph is the build-time DAG representation.
// It contains only structural information - no timings.
type Graph struct {
	Nodes map[TaskID]*Node

	// Deterministic node ordering (insertion order)
	NodeOrder []TaskID
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:     make(map[TaskID]*Node),
		NodeOrder: make([]TaskID, 0),
	}
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(node *Node) error {
	if err := node.ID.Validate(); err != nil {
		return err
	}
	if _, exists := g.Nodes[node.ID]; exists {
		return fmt.Errorf("%w: %s", ErrTaskAlreadyExists, node.ID)
	}
	g.Nodes[node.ID] = node
	g.NodeOrder = append(g.NodeOrder, node.ID)
	return nil
}

// AddEdge adds a directed edge from parent to child: child depends on parent.
func (g *Graph) AddEdge(parentID, childID TaskID) error {
	parent, ok := g.Nodes[parentID]
	if !ok {
		return fmt.Errorf("%w: parent %s", ErrTaskNotFound, parentID)
	}
	child, ok := g.Nodes[childID]
	if !ok {
		return fmt.Errorf("%w: child %s", ErrTaskNotFound, childID)
	}
	for _, p := range child.Parents {
		if p == parentID {
			return fmt.Errorf("%w: duplicate edge %s -> %s", ErrInvalidTopology, parentID, childID)
		}
	}

	parent.Children = append(parent.Children, childID)
	child.Parents = append(child.Parents, parentID)
	return nil
}

// Roots returns the tasks without dependencies, in insertion order.
func (g *Graph) Roots() []TaskID {
	var roots []TaskID
	for _, id := range g.NodeOrder {
		if len(g.Nodes[id].Parents) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}
