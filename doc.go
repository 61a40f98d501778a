// Package kstats records execution timings of task dependency graphs.
//
// # Overview
//
// Statistics are kept in a three level hierarchy:
//
//   - **Registry** owns Graphs, in creation order
//   - **Graph** owns Paths; one Graph accumulates all runs sharing its name
//   - **Path** is one root-to-leaf route and owns one Segment per task on it
//
// Path and Segment both embed a Timing, which aggregates count, sum, min and
// max of the durations passed to Update.
//
// # Basic Usage
//
//	reg := kstats.NewRegistry(kstats.WithLogr(log))
//	g := reg.LookupOrCreate("checkout")
//
//	p := g.Path()
//	s := p.Segment("fetch-cart")
//	_ = s.Update(12 * time.Millisecond)
//	_ = p.Update(30 * time.Millisecond)
//
//	fmt.Print(reg.Report())
//
// The kdag sub-package derives paths from a task topology and records whole
// runs.
//
// # Thread Safety
//
// Every type is safe for concurrent use. Each Timing has its own lock, so
// updates to different segments or paths never contend. Creating graphs,
// paths and segments appends under the owner's lock.
package kstats
