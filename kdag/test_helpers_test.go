package kdag

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

// buildDiamond returns top -> {left, right} -> bottom.
func buildDiamond(t testing.TB) *DAG {
	t.Helper()
	b := NewBuilder()
	assert.NoError(t, b.AddTask("top"))
	assert.NoError(t, b.AddTask("left", "top"))
	assert.NoError(t, b.AddTask("right", "top"))
	assert.NoError(t, b.AddTask("bottom", "left", "right"))
	dag, err := b.Build()
	assert.NoError(t, err)
	return dag
}

// buildChain returns a linear chain of the given tasks.
func buildChain(t testing.TB, tasks ...string) *DAG {
	t.Helper()
	b := NewBuilder()
	for i, task := range tasks {
		if i == 0 {
			assert.NoError(t, b.AddTask(task))
			continue
		}
		assert.NoError(t, b.AddTask(task, tasks[i-1]))
	}
	dag, err := b.Build()
	assert.NoError(t, err)
	return dag
}

func routeStrings(routes []Route) []string {
	out := make([]string, len(routes))
	for i, r := range routes {
		out[i] = r.String()
	}
	return out
}
