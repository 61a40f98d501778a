package kdag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestNewBuilder(t *testing.T) {
	tb := NewBuilder()
	assert.NotZero(t, tb)
	assert.NotZero(t, tb.GetGraph())
	// Maps are initialized (not nil)
	assert.NotEqual(t, (map[TaskID]*Node)(nil), tb.GetGraph().Nodes)
}

func TestTaskIDValidate(t *testing.T) {
	tests := []struct {
		id      TaskID
		wantErr bool
	}{
		{"fetch", false},
		{"fetch-cart_2", false},
		{"", true},
		{"fetch cart", true},
		{"fetch\tcart", true},
		{"fetch\n", true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.id), func(t *testing.T) {
			err := tt.id.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidTaskID))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAddTask(t *testing.T) {
	t.Run("root task", func(t *testing.T) {
		tb := NewBuilder()
		assert.NoError(t, tb.AddTask("top"))

		node, exists := tb.GetNode("top")
		assert.True(t, exists)
		assert.Equal(t, 0, len(node.Parents))
		assert.Equal(t, []TaskID{"top"}, tb.GetGraph().NodeOrder)
	})

	t.Run("dependencies are linked both ways", func(t *testing.T) {
		tb := NewBuilder()
		assert.NoError(t, tb.AddTask("a"))
		assert.NoError(t, tb.AddTask("b"))
		assert.NoError(t, tb.AddTask("c", "a", "b"))

		c, _ := tb.GetNode("c")
		assert.Equal(t, []TaskID{"a", "b"}, c.Parents)
		a, _ := tb.GetNode("a")
		assert.Equal(t, []TaskID{"c"}, a.Children)
	})

	t.Run("duplicate task", func(t *testing.T) {
		tb := NewBuilder()
		assert.NoError(t, tb.AddTask("a"))
		err := tb.AddTask("a")
		assert.True(t, errors.Is(err, ErrTaskAlreadyExists))
	})

	t.Run("unknown dependency", func(t *testing.T) {
		tb := NewBuilder()
		err := tb.AddTask("b", "a")
		assert.True(t, errors.Is(err, ErrTaskNotFound))
		_, exists := tb.GetNode("b")
		assert.False(t, exists)
	})

	t.Run("dependency listed twice", func(t *testing.T) {
		tb := NewBuilder()
		assert.NoError(t, tb.AddTask("a"))
		err := tb.AddTask("b", "a", "a")
		assert.True(t, errors.Is(err, ErrInvalidTopology))
		_, exists := tb.GetNode("b")
		assert.False(t, exists)
	})

	t.Run("invalid name", func(t *testing.T) {
		tb := NewBuilder()
		assert.True(t, errors.Is(tb.AddTask("has space"), ErrInvalidTaskID))
	})

	t.Run("must variant panics", func(t *testing.T) {
		tb := NewBuilder()
		assert.Panics(t, func() {
			tb.MustAddTask("b", "missing")
		})
	})
}

func TestBuild(t *testing.T) {
	t.Run("diamond builds successfully", func(t *testing.T) {
		dag := buildDiamond(t)
		assert.Equal(t, []TaskID{"top", "left", "right", "bottom"}, dag.Tasks())
		assert.Equal(t, []TaskID{"top"}, dag.Roots())
		assert.True(t, dag.Has("left"))
		assert.False(t, dag.Has("missing"))
	})

	t.Run("empty builder fails", func(t *testing.T) {
		_, err := NewBuilder().Build()
		assert.True(t, errors.Is(err, ErrInvalidTopology))
	})

	t.Run("build fails on cycle", func(t *testing.T) {
		tb := NewBuilder()
		assert.NoError(t, tb.AddTask("a"))
		assert.NoError(t, tb.AddTask("b", "a"))

		// Manually create a cycle in the graph (a -> b -> a)
		assert.NoError(t, tb.GetGraph().AddEdge("b", "a"))

		_, err := tb.Build()
		assert.Error(t, err)
		assert.True(t, errors.Is(err, ErrCycleDetected))
		assert.Contains(t, err.Error(), "validation failed")
	})

	t.Run("build fails on one-sided edge", func(t *testing.T) {
		tb := NewBuilder()
		assert.NoError(t, tb.AddTask("a"))
		assert.NoError(t, tb.AddTask("b"))
		tb.GetGraph().Nodes["a"].Children = []TaskID{"b"}

		_, err := tb.Build()
		assert.True(t, errors.Is(err, ErrInvalidTopology))
	})

	t.Run("build fails on unknown child", func(t *testing.T) {
		tb := NewBuilder()
		assert.NoError(t, tb.AddTask("a"))
		tb.GetGraph().Nodes["a"].Children = []TaskID{"ghost"}

		_, err := tb.Build()
		assert.True(t, errors.Is(err, ErrTaskNotFound))
	})
}

func TestMustBuild(t *testing.T) {
	t.Run("valid topology does not panic", func(t *testing.T) {
		tb := NewBuilder()
		tb.MustAddTask("a")
		assert.NotZero(t, tb.MustBuild())
	})

	t.Run("invalid topology panics", func(t *testing.T) {
		tb := NewBuilder()
		tb.MustAddTask("a")

		// Create self loop
		tb.GetGraph().Nodes["a"].Children = []TaskID{"a"}
		tb.GetGraph().Nodes["a"].Parents = []TaskID{"a"}

		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic but got none")
			}
		}()
		tb.MustBuild()
	})
}

func TestGraphAddEdge(t *testing.T) {
	g := NewGraph()
	assert.NoError(t, g.AddNode(&Node{ID: "a"}))
	assert.NoError(t, g.AddNode(&Node{ID: "b"}))

	assert.True(t, errors.Is(g.AddNode(&Node{ID: "a"}), ErrTaskAlreadyExists))
	assert.True(t, errors.Is(g.AddEdge("a", "x"), ErrTaskNotFound))
	assert.True(t, errors.Is(g.AddEdge("x", "a"), ErrTaskNotFound))

	assert.NoError(t, g.AddEdge("a", "b"))
	assert.True(t, errors.Is(g.AddEdge("a", "b"), ErrInvalidTopology))
	assert.Equal(t, []TaskID{"a"}, g.Roots())
}
