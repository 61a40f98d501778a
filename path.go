package kstats

import (
	"strings"
	"sync"
)

// Segment holds the timing of one task within one Path.
// Segments are created by Path.Segment and never shared between paths.
type Segment struct {
	Timing
	task string
}

func newSegment(task string) *Segment {
	return &Segment{task: task}
}

// Task returns the name of the task this segment measures.
func (s *Segment) Task() string {
	return s.task
}

// Path is one root-to-leaf route through a dependency graph. Its own Timing
// tracks the whole route; per-task timings live in its segments. Callers
// update both if they want both.
//
// Every node in a graph constitutes at least one path, and a node with
// inputs is the endpoint of several. A diamond has 5 paths:
//
//	top
//	top->left
//	top->right
//	top->left->bottom
//	top->right->bottom
type Path struct {
	Timing

	segMu    sync.RWMutex
	segments []*Segment
}

func newPath() *Path {
	return &Path{}
}

// Segment appends a new segment for task and returns it. Repeated task names
// yield distinct segments.
func (p *Path) Segment(task string) *Segment {
	s := newSegment(task)

	p.segMu.Lock()
	p.segments = append(p.segments, s)
	p.segMu.Unlock()

	return s
}

// Segments returns the segments in creation order.
func (p *Path) Segments() []*Segment {
	p.segMu.RLock()
	defer p.segMu.RUnlock()
	out := make([]*Segment, len(p.segments))
	copy(out, p.segments)
	return out
}

// Tasks returns the task names of all segments in order.
func (p *Path) Tasks() []string {
	p.segMu.RLock()
	defer p.segMu.RUnlock()
	tasks := make([]string, len(p.segments))
	for i, s := range p.segments {
		tasks[i] = s.task
	}
	return tasks
}

func (p *Path) String() string {
	return strings.Join(p.Tasks(), "->")
}
