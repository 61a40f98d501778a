package kdag

import (
	"fmt"
	"sync"
	"time"

	"github.com/birdayz/kstats"
	"github.com/birdayz/kstats/kerror"
	"github.com/go-logr/logr"
)

// ProfileOption configures a Profile.
type ProfileOption func(*Profile)

// WithProfileLogr sets the logger used for run bookkeeping.
var WithProfileLogr = func(log logr.Logger) ProfileOption {
	return func(p *Profile) {
		p.log = log
	}
}

// RouteStats pairs a route with the path recording it.
type RouteStats struct {
	Route Route
	Path  *kstats.Path
}

type boundRoute struct {
	route    Route
	path     *kstats.Path
	segments []*kstats.Segment
}

// Profile binds the routes of a DAG to a kstats.Graph: one Path per route and
// one Segment per task on it, created once in NewProfile. Runs recorded
// through the profile update those paths and segments.
type Profile struct {
	dag   *DAG
	graph *kstats.Graph
	log   logr.Logger

	routes []boundRoute
}

// NewProfile creates the paths and segments for every route of d in g.
// Reuse one profile for all runs that should share statistics.
func NewProfile(d *DAG, g *kstats.Graph, opts ...ProfileOption) *Profile {
	p := &Profile{
		dag:   d,
		graph: g,
		log:   logr.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.WithValues("graph", g.Name())

	for _, route := range d.Routes() {
		path := g.Path()
		segments := make([]*kstats.Segment, len(route))
		for i, task := range route {
			segments[i] = path.Segment(string(task))
		}
		p.routes = append(p.routes, boundRoute{
			route:    route,
			path:     path,
			segments: segments,
		})
	}

	p.log.V(1).Info("Bound routes", "routes", len(p.routes))
	return p
}

// Graph returns the graph the profile records into.
func (p *Profile) Graph() *kstats.Graph {
	return p.graph
}

// Routes returns each route with its path, in DAG route order.
func (p *Profile) Routes() []RouteStats {
	out := make([]RouteStats, len(p.routes))
	for i, br := range p.routes {
		out[i] = RouteStats{Route: br.route, Path: br.path}
	}
	return out
}

// Begin starts recording a run.
func (p *Profile) Begin() *Run {
	return &Run{
		profile: p,
		done:    make(map[TaskID]time.Duration, len(p.dag.order)),
		failed:  make(map[TaskID]bool),
	}
}

// Run collects the task outcomes of one execution. Done and Fail may be
// called from concurrent workers. Nothing is recorded until End.
type Run struct {
	profile *Profile

	mu     sync.Mutex
	done   map[TaskID]time.Duration
	failed map[TaskID]bool
	ended  bool

	errs kerror.Collector
}

// Done reports that task completed after d.
func (r *Run) Done(task TaskID, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("task %s: %w: %v", task, kstats.ErrNegativeDuration, d)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkLocked(task); err != nil {
		return err
	}
	r.done[task] = d
	return nil
}

// Fail reports that task failed with cause. The cause is kept for End.
func (r *Run) Fail(task TaskID, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkLocked(task); err != nil {
		return err
	}
	r.failed[task] = true
	r.errs.Add(fmt.Errorf("task %s: %w", task, cause))
	return nil
}

func (r *Run) checkLocked(task TaskID) error {
	if r.ended {
		return ErrRunEnded
	}
	if !r.profile.dag.Has(task) {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, task)
	}
	if _, ok := r.done[task]; ok || r.failed[task] {
		return fmt.Errorf("%w: %s", ErrTaskAlreadyReported, task)
	}
	return nil
}

// Missing returns the tasks that were neither done nor failed, in
// topological order.
func (r *Run) Missing() []TaskID {
	r.mu.Lock()
	defer r.mu.Unlock()

	var missing []TaskID
	for _, task := range r.profile.dag.order {
		if _, ok := r.done[task]; !ok && !r.failed[task] {
			missing = append(missing, task)
		}
	}
	return missing
}

// End records the run. Every route whose tasks all completed updates each of
// its segments with the task's duration and its path with the route total.
// Routes touching a failed or unreported task are left alone.
//
// End returns nil, the single task failure, or a kerror Multi holding every
// failure in report order.
func (r *Run) End() error {
	r.mu.Lock()
	if r.ended {
		r.mu.Unlock()
		return ErrRunEnded
	}
	r.ended = true
	r.mu.Unlock()

	// done is no longer written once ended is set.
	recorded := 0
	for _, br := range r.profile.routes {
		durations := make([]time.Duration, len(br.route))
		complete := true
		for i, task := range br.route {
			d, ok := r.done[task]
			if !ok {
				complete = false
				break
			}
			durations[i] = d
		}
		if !complete {
			continue
		}

		var total time.Duration
		for i, d := range durations {
			// Negative durations are rejected by Done.
			_ = br.segments[i].Update(d)
			total += d
		}
		_ = br.path.Update(total)
		recorded++
	}

	err := r.errs.Err()
	if err != nil {
		r.profile.log.Info("Run failed", "routes", recorded, "failures", r.errs.Len(), "error", err)
	} else {
		r.profile.log.V(1).Info("Run recorded", "routes", recorded)
	}
	return err
}
