package flowgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Linear(t *testing.T) {
	compiled, err := NewGraph[State]().
		AddNode("a", trackingNode("a")).
		AddNode("b", trackingNode("b")).
		AddEdge("a", "b").
		AddEdge("b", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	assert.Equal(t, "a", compiled.EntryPoint())
	assert.Equal(t, []string{"a", "b"}, compiled.NodeIDs())
	assert.Equal(t, []string{"b"}, compiled.Successors("a"))
	assert.Equal(t, []string{END}, compiled.Successors("b"))
	assert.Equal(t, []string{"a"}, compiled.Predecessors("b"))
	assert.Empty(t, compiled.Predecessors("a"))
	assert.False(t, compiled.IsConditional("a"))
}

func TestCompile_SelfLoopWithExit(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("inc", increment).
		AddConditionalEdge("inc", func(_ Context, s Counter) string {
			if s.Value >= 3 {
				return END
			}
			return "inc"
		}, "inc", END).
		SetEntry("inc").
		Compile()
	require.NoError(t, err)

	assert.True(t, compiled.IsConditional("inc"))
	assert.ElementsMatch(t, []string{"inc", END}, compiled.Successors("inc"))
	assert.Equal(t, []string{"inc"}, compiled.Predecessors("inc"))
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Graph[Counter]
		want  error
	}{
		{"no entry", func() *Graph[Counter] {
			return NewGraph[Counter]().AddNode("a", increment).AddEdge("a", END)
		}, ErrNoEntryPoint},
		{"entry missing", func() *Graph[Counter] {
			return NewGraph[Counter]().AddNode("a", increment).AddEdge("a", END).SetEntry("zzz")
		}, ErrEntryNotFound},
		{"edge target missing", func() *Graph[Counter] {
			return NewGraph[Counter]().AddNode("a", increment).AddEdge("a", "zzz").SetEntry("a")
		}, ErrNodeNotFound},
		{"edge source missing", func() *Graph[Counter] {
			return NewGraph[Counter]().AddNode("a", increment).AddEdge("a", END).AddEdge("zzz", "a").SetEntry("a")
		}, ErrNodeNotFound},
		{"router target missing", func() *Graph[Counter] {
			return NewGraph[Counter]().AddNode("a", increment).
				AddConditionalEdge("a", func(Context, Counter) string { return END }, "zzz", END).
				SetEntry("a")
		}, ErrNodeNotFound},
		{"router without targets", func() *Graph[Counter] {
			return NewGraph[Counter]().AddNode("a", increment).
				AddConditionalEdge("a", func(Context, Counter) string { return END }).
				SetEntry("a")
		}, ErrNoRouterTargets},
		{"router source missing", func() *Graph[Counter] {
			return NewGraph[Counter]().AddNode("a", increment).AddEdge("a", END).
				AddConditionalEdge("zzz", func(Context, Counter) string { return END }, END).
				SetEntry("a")
		}, ErrNodeNotFound},
		{"no path to end", func() *Graph[Counter] {
			return NewGraph[Counter]().AddNode("a", increment).AddNode("b", increment).
				AddEdge("a", "b").AddEdge("b", "a").SetEntry("a")
		}, ErrNoPathToEnd},
		{"dead end node", func() *Graph[Counter] {
			return NewGraph[Counter]().AddNode("a", increment).AddNode("b", increment).
				AddEdge("a", END).SetEntry("a")
		}, ErrNoPathToEnd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Compile()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCompile_JoinsAllErrors(t *testing.T) {
	_, err := NewGraph[Counter]().
		AddNode("a", increment).
		AddEdge("a", "missing1").
		AddEdge("ghost", "missing2").
		Compile()
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrNoEntryPoint)
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.Contains(t, err.Error(), "missing1")
	assert.Contains(t, err.Error(), "ghost")
}

func TestCompile_GraphIsCopied(t *testing.T) {
	g := NewGraph[Counter]().AddNode("a", increment).AddEdge("a", END).SetEntry("a")
	first, err := g.Compile()
	require.NoError(t, err)

	g.AddNode("b", increment).AddEdge("b", END)

	assert.False(t, first.HasNode("b"))
	second, err := g.Compile()
	require.NoError(t, err)
	assert.True(t, second.HasNode("b"))
}
