package kdag

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Validation limits to prevent pathological cases
const (
	MaxTasksPerDAG     = 10000
	MaxDepth           = 500
	MaxChildrenPerTask = 1000

	// Routes grow exponentially with stacked diamonds.
	MaxRoutes = 10000
)

// Validate performs all topology validations: size limits, cycle detection
// and edge consistency. Returns early on first error.
func (g *Graph) Validate() error {
	// Check size limits
	if len(g.Nodes) == 0 {
		return fmt.Errorf("%w: no tasks", ErrInvalidTopology)
	}
	if len(g.Nodes) > MaxTasksPerDAG {
		return fmt.Errorf("%w: task count %d exceeds maximum %d",
			ErrInvalidTopology, len(g.Nodes), MaxTasksPerDAG)
	}

	// 1. Edges reference known tasks and are mirrored
	if err := g.validateEdges(); err != nil {
		return fmt.Errorf("DAG validation failed: %w", err)
	}

	// 2. Cycle detection using DFS
	if err := g.detectCycles(); err != nil {
		return fmt.Errorf("DAG validation failed: %w", err)
	}

	return nil
}

// validateEdges checks that every edge points to a registered task and that
// each child lists the parent back.
func (g *Graph) validateEdges() error {
	for _, nodeID := range g.NodeOrder {
		node := g.Nodes[nodeID]
		for _, childID := range node.Children {
			child, ok := g.Nodes[childID]
			if !ok {
				return fmt.Errorf("%w: %s has unknown child %s", ErrTaskNotFound, nodeID, childID)
			}
			if !slices.Contains(child.Parents, nodeID) {
				return fmt.Errorf("%w: %s -> %s is not mirrored in parents",
					ErrInvalidTopology, nodeID, childID)
			}
		}
		for _, parentID := range node.Parents {
			if _, ok := g.Nodes[parentID]; !ok {
				return fmt.Errorf("%w: %s has unknown parent %s", ErrTaskNotFound, nodeID, parentID)
			}
		}
	}
	return nil
}

// detectCycles uses Depth-First Search (DFS) to find cycles in the DAG.
// Returns ErrCycleDetected if any cycle is found.
// Time complexity: O(V + E) where V is vertices and E is edges.
func (g *Graph) detectCycles() error {
	visited := make(map[TaskID]bool, len(g.Nodes))
	recStack := make(map[TaskID]bool, len(g.Nodes))

	var dfs func(TaskID, []TaskID, int) error
	dfs = func(nodeID TaskID, path []TaskID, depth int) error {
		if depth > MaxDepth {
			return fmt.Errorf("%w: maximum depth %d exceeded", ErrInvalidTopology, MaxDepth)
		}

		visited[nodeID] = true
		recStack[nodeID] = true
		path = append(path, nodeID)

		node := g.Nodes[nodeID]
		if len(node.Children) > MaxChildrenPerTask {
			return fmt.Errorf("%w: task %s has %d children, exceeds maximum %d",
				ErrInvalidTopology, nodeID, len(node.Children), MaxChildrenPerTask)
		}

		for _, childID := range node.Children {
			if !visited[childID] {
				if err := dfs(childID, path, depth+1); err != nil {
					return err
				}
			} else if recStack[childID] {
				// Cycle detected!
				cyclePath := append(path, childID)
				pathStr := make([]string, len(cyclePath))
				for i, id := range cyclePath {
					pathStr[i] = string(id)
				}
				return fmt.Errorf("%w: %s", ErrCycleDetected, strings.Join(pathStr, " -> "))
			}
		}

		recStack[nodeID] = false
		return nil
	}

	// Check all nodes in insertion order (handles disconnected components)
	for _, nodeID := range g.NodeOrder {
		if !visited[nodeID] {
			if err := dfs(nodeID, nil, 0); err != nil {
				return err
			}
		}
	}

	return nil
}

// insertSorted inserts an item into a sorted slice maintaining sort order.
func insertSorted(slice []TaskID, item TaskID) []TaskID {
	idx := sort.Search(len(slice), func(i int) bool {
		return slice[i] >= item
	})
	return slices.Insert(slice, idx, item)
}

// topologicalSort creates a deterministic topological ordering using Kahn's algorithm.
// Ties are broken by task name.
// Time complexity: O(V log V + E) where V is vertices and E is edges.
func (g *Graph) topologicalSort() ([]TaskID, error) {
	// Calculate in-degrees (pre-allocate for all nodes)
	inDegree := make(map[TaskID]int, len(g.Nodes))
	for nodeID := range g.Nodes {
		inDegree[nodeID] = 0
	}
	for _, node := range g.Nodes {
		for _, childID := range node.Children {
			inDegree[childID]++
		}
	}

	// Queue of nodes with no incoming edges (roots)
	queue := make([]TaskID, 0, len(g.Nodes)/4)
	for nodeID, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, nodeID)
		}
	}
	slices.Sort(queue)

	result := make([]TaskID, 0, len(g.Nodes))
	for len(queue) > 0 {
		nodeID := queue[0]
		queue = queue[1:]
		result = append(result, nodeID)

		node := g.Nodes[nodeID]
		children := slices.Clone(node.Children)
		slices.Sort(children)

		for _, childID := range children {
			inDegree[childID]--
			if inDegree[childID] == 0 {
				queue = insertSorted(queue, childID)
			}
		}
	}

	// If we didn't process all nodes, there must be a cycle
	if len(result) != len(g.Nodes) {
		return nil, fmt.Errorf("%w: topological sort failed", ErrCycleDetected)
	}

	return result, nil
}

// computeRoutes lists every route from a root to each task. A task without
// dependencies is a route by itself; a task with dependencies ends one route
// per route reaching each of its parents. order must be topological.
func (g *Graph) computeRoutes(order []TaskID) ([]Route, error) {
	routesTo := make(map[TaskID][]Route, len(order))
	all := make([]Route, 0, len(order))

	for _, nodeID := range order {
		node := g.Nodes[nodeID]

		var routes []Route
		if len(node.Parents) == 0 {
			routes = []Route{{nodeID}}
		} else {
			for _, parentID := range node.Parents {
				for _, r := range routesTo[parentID] {
					next := make(Route, len(r), len(r)+1)
					copy(next, r)
					routes = append(routes, append(next, nodeID))
				}
			}
		}

		if len(all)+len(routes) > MaxRoutes {
			return nil, fmt.Errorf("%w: more than %d routes", ErrInvalidTopology, MaxRoutes)
		}
		routesTo[nodeID] = routes
		all = append(all, routes...)
	}

	return all, nil
}
