// Package kdag describes task dependency topologies and records their runs
// into kstats.
//
// # Overview
//
// A DAG is built once per topology and is immutable afterwards:
//
//  1. **Build Phase**: register tasks with their dependencies on a Builder
//  2. **Profile Phase**: bind the DAG's routes to a kstats.Graph
//  3. **Run Phase**: report task outcomes per run, then End the run
//
// # Routes
//
// Every task constitutes at least one route, and a task with dependencies is
// the endpoint of one route per route reaching each dependency. A diamond
//
//	     top
//	    /   \
//	 left   right
//	    \   /
//	   bottom
//
// has 5 routes: top, top->left, top->right, top->left->bottom and
// top->right->bottom. Each route becomes one kstats.Path with one Segment
// per task.
//
// # Basic Usage
//
//	b := kdag.NewBuilder()
//	b.MustAddTask("top")
//	b.MustAddTask("left", "top")
//	b.MustAddTask("right", "top")
//	b.MustAddTask("bottom", "left", "right")
//	dag := b.MustBuild()
//
//	profile := kdag.NewProfile(dag, registry.LookupOrCreate("diamond"))
//
//	run := profile.Begin()
//	_ = run.Done("top", 3*time.Millisecond)  // from any worker goroutine
//	_ = run.Fail("left", err)
//	...
//	if err := run.End(); err != nil {
//	    // err is the failure, or a kerror Multi of all failures
//	}
//
// # Validation
//
// Build checks:
//
//   - **Cycle Detection**: DAGs cannot contain cycles (uses DFS)
//   - **Edge Consistency**: edges reference known tasks and are mirrored
//   - **Size Limits**: MaxTasksPerDAG, MaxDepth, MaxChildrenPerTask, MaxRoutes
//
// All validation errors wrap sentinel errors (ErrCycleDetected,
// ErrInvalidTopology, ...) that can be checked with errors.Is().
//
// # Thread Safety
//
// IMPORTANT: Builder is NOT safe for concurrent use. DAG and Profile are
// safe for concurrent use, as is Run.
package kdag
