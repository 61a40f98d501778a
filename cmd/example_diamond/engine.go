package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/birdayz/kstats/kdag"
	"github.com/birdayz/kstats/kerror"
	"golang.org/x/sync/errgroup"
)

// engine executes the tasks of a DAG with simulated work. Each task starts as
// soon as all of its dependencies completed; a task whose dependency failed
// is never started.
type engine struct {
	dag         *kdag.DAG
	profile     *kdag.Profile
	failRate    float64
	maxTaskTime time.Duration
}

var errInjected = errors.New("injected failure")

func (e *engine) execute(ctx context.Context) error {
	run := e.profile.Begin()
	graph := e.dag.GetGraph()

	finished := make(map[kdag.TaskID]chan struct{}, len(graph.Nodes))
	succeeded := make(map[kdag.TaskID]*bool, len(graph.Nodes))
	for _, task := range e.dag.Tasks() {
		finished[task] = make(chan struct{})
		succeeded[task] = new(bool)
	}

	var grp errgroup.Group
	for _, task := range e.dag.Tasks() {
		grp.Go(func() error {
			defer close(finished[task])

			for _, parent := range graph.Nodes[task].Parents {
				select {
				case <-finished[parent]:
				case <-ctx.Done():
					return ctx.Err()
				}
				if !*succeeded[parent] {
					return nil
				}
			}

			start := time.Now()
			if err := e.work(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return run.Fail(task, err)
			}
			*succeeded[task] = true
			return run.Done(task, time.Since(start))
		})
	}

	if err := grp.Wait(); err != nil {
		_ = run.End()
		return err
	}

	// Every task either ran or sits behind a failed dependency. Anything
	// else was lost by the scheduler.
	ready := func(task kdag.TaskID) bool { return *succeeded[task] }
	for _, task := range stalled(run.Missing(), graph, ready) {
		if err := run.Fail(task, kerror.Stall(fmt.Sprintf("task %s was runnable but never started", task))); err != nil {
			return err
		}
	}
	return run.End()
}

// stalled returns the missing tasks whose dependencies all succeeded.
func stalled(missing []kdag.TaskID, graph *kdag.Graph, succeeded func(kdag.TaskID) bool) []kdag.TaskID {
	var out []kdag.TaskID
	for _, task := range missing {
		runnable := true
		for _, parent := range graph.Nodes[task].Parents {
			if !succeeded(parent) {
				runnable = false
				break
			}
		}
		if runnable {
			out = append(out, task)
		}
	}
	return out
}

// work sleeps for a random duration and fails with probability failRate,
// either with a timeout or a generic error.
func (e *engine) work(ctx context.Context) error {
	d := time.Duration(1)
	if e.maxTaskTime > 0 {
		d = rand.N(e.maxTaskTime) + 1
	}

	select {
	case <-time.After(d):
	case <-ctx.Done():
		return ctx.Err()
	}

	if e.failRate == 0 || rand.Float64() >= e.failRate {
		return nil
	}
	if rand.IntN(2) == 0 {
		return kerror.TimeoutAfter(d)
	}
	return kerror.Wrap("task failed", errInjected)
}
