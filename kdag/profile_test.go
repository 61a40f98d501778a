package kdag

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/birdayz/kstats"
	"github.com/birdayz/kstats/kerror"
	"github.com/go-logr/logr/testr"
	"golang.org/x/sync/errgroup"
)

func newDiamondProfile(t *testing.T) (*Profile, *kstats.Registry) {
	t.Helper()
	reg := kstats.NewRegistry(kstats.WithLogr(testr.New(t)))
	profile := NewProfile(buildDiamond(t), reg.LookupOrCreate("diamond"), WithProfileLogr(testr.New(t)))
	return profile, reg
}

func TestNewProfile(t *testing.T) {
	profile, reg := newDiamondProfile(t)

	g, ok := reg.Lookup("diamond")
	assert.True(t, ok)
	assert.True(t, profile.Graph() == g)
	assert.Equal(t, 5, g.Len())

	routes := profile.Routes()
	paths := g.Paths()
	assert.Equal(t, len(paths), len(routes))
	for i, rs := range routes {
		assert.True(t, rs.Path == paths[i])
		tasks := make([]string, len(rs.Route))
		for j, task := range rs.Route {
			tasks[j] = string(task)
		}
		assert.Equal(t, tasks, rs.Path.Tasks())
	}
}

func TestRunRecordsCompleteRoutes(t *testing.T) {
	profile, reg := newDiamondProfile(t)

	run := profile.Begin()
	assert.NoError(t, run.Done("top", 1))
	assert.NoError(t, run.Done("left", 2))
	assert.NoError(t, run.Done("right", 3))
	assert.NoError(t, run.Done("bottom", 4))
	assert.Equal(t, 0, len(run.Missing()))
	assert.NoError(t, run.End())

	report := reg.Report()
	paths := report.Graphs[0].Paths
	wantTotals := map[string]time.Duration{
		"top":                1,
		"top->left":          3,
		"top->right":         4,
		"top->left->bottom":  7,
		"top->right->bottom": 8,
	}
	for _, p := range paths {
		want, ok := wantTotals[p.Route()]
		assert.True(t, ok, "unexpected route %s", p.Route())
		assert.Equal(t, int64(1), p.Called)
		assert.Equal(t, want, p.Aggregate)
	}

	// "top" appears in every route; each appearance is its own segment.
	for _, p := range paths {
		assert.Equal(t, "top", p.Segments[0].Task)
		assert.Equal(t, time.Duration(1), p.Segments[0].Aggregate)
	}
}

func TestRunAccumulatesAcrossRuns(t *testing.T) {
	profile, _ := newDiamondProfile(t)

	for i := 1; i <= 3; i++ {
		run := profile.Begin()
		for _, task := range []TaskID{"top", "left", "right", "bottom"} {
			assert.NoError(t, run.Done(task, time.Duration(i)))
		}
		assert.NoError(t, run.End())
	}

	last := profile.Routes()[4].Path
	stats := last.Stats()
	assert.Equal(t, int64(3), stats.Called)
	assert.Equal(t, time.Duration(3+6+9), stats.Aggregate)
	assert.Equal(t, time.Duration(3), stats.Min)
	assert.Equal(t, time.Duration(9), stats.Max)

	for _, s := range last.Segments() {
		assert.Equal(t, int64(3), s.Called())
	}
}

func TestRunSkipsIncompleteRoutes(t *testing.T) {
	profile, _ := newDiamondProfile(t)

	boom := errors.New("boom")
	run := profile.Begin()
	assert.NoError(t, run.Done("top", 5))
	assert.NoError(t, run.Fail("left", boom))
	assert.NoError(t, run.Done("right", 5))
	assert.Equal(t, []TaskID{"bottom"}, run.Missing())

	err := run.End()
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "task left")
	assert.Equal(t, kerror.KindGeneric, kerror.KindOf(err))

	called := map[string]int64{}
	for _, rs := range profile.Routes() {
		called[rs.Route.String()] = rs.Path.Called()
	}
	assert.Equal(t, map[string]int64{
		"top":                1,
		"top->left":          0,
		"top->right":         1,
		"top->left->bottom":  0,
		"top->right->bottom": 0,
	}, called)
}

func TestRunCollapsesFailures(t *testing.T) {
	profile, _ := newDiamondProfile(t)

	timeout := kerror.Timeout(250)
	other := errors.New("refused")

	run := profile.Begin()
	assert.NoError(t, run.Done("top", 1))
	assert.NoError(t, run.Fail("left", timeout))
	assert.NoError(t, run.Fail("right", other))

	err := run.End()
	var multi *kerror.Error
	assert.True(t, errors.As(err, &multi))
	assert.Equal(t, kerror.KindMulti, multi.Kind())
	assert.Equal(t, 2, len(multi.Errors()))
	assert.Equal(t, "Multiple exceptions, first is: task left: Timed out after 250ms", multi.Error())
	assert.True(t, errors.Is(err, kerror.ErrTimeout))
	assert.True(t, errors.Is(err, other))
	assert.False(t, kerror.IsFatal(err))
}

func TestRunRejectsBadReports(t *testing.T) {
	profile, _ := newDiamondProfile(t)
	run := profile.Begin()

	assert.True(t, errors.Is(run.Done("ghost", 1), ErrTaskNotFound))
	assert.True(t, errors.Is(run.Done("top", -1), kstats.ErrNegativeDuration))

	assert.NoError(t, run.Done("top", 1))
	assert.True(t, errors.Is(run.Done("top", 1), ErrTaskAlreadyReported))
	assert.True(t, errors.Is(run.Fail("top", errors.New("late")), ErrTaskAlreadyReported))

	assert.NoError(t, run.End())
	assert.True(t, errors.Is(run.End(), ErrRunEnded))
	assert.True(t, errors.Is(run.Done("left", 1), ErrRunEnded))
	assert.True(t, errors.Is(run.Fail("left", errors.New("x")), ErrRunEnded))
}

func TestConcurrentRuns(t *testing.T) {
	const runs = 50

	profile, _ := newDiamondProfile(t)
	tasks := []TaskID{"top", "left", "right", "bottom"}

	var grp errgroup.Group
	for i := 0; i < runs; i++ {
		grp.Go(func() error {
			run := profile.Begin()
			var workers errgroup.Group
			for _, task := range tasks {
				workers.Go(func() error {
					return run.Done(task, time.Millisecond)
				})
			}
			if err := workers.Wait(); err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			return run.End()
		})
	}
	assert.NoError(t, grp.Wait())

	for _, rs := range profile.Routes() {
		stats := rs.Path.Stats()
		assert.Equal(t, int64(runs), stats.Called)
		assert.Equal(t, time.Duration(runs*len(rs.Route))*time.Millisecond, stats.Aggregate)
		for _, s := range rs.Path.Segments() {
			assert.Equal(t, int64(runs), s.Called())
		}
	}
}
