package flowgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_AddNode(t *testing.T) {
	g := NewGraph[Counter]().AddNode("inc", increment)

	assert.Len(t, g.nodes, 1)
	assert.Equal(t, []string{"inc"}, g.order)
}

func TestGraph_AddNode_InvalidIDs_Panic(t *testing.T) {
	for _, id := range []string{"", "END", "end", "__end__", "__END__", "has space", "tab\there", "line\nbreak"} {
		t.Run(id, func(t *testing.T) {
			assert.Panics(t, func() {
				NewGraph[Counter]().AddNode(id, increment)
			})
		})
	}
}

func TestGraph_AddNode_NilFunc_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "flowgraph: node function cannot be nil", func() {
		NewGraph[Counter]().AddNode("n", nil)
	})
}

func TestGraph_AddNode_Duplicate_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "flowgraph: duplicate node ID: n", func() {
		NewGraph[Counter]().AddNode("n", increment).AddNode("n", increment)
	})
}

func TestGraph_AddNode_ValidIDs(t *testing.T) {
	for _, id := range []string{"ask_for_input", "validate-input", "node1", "Ending", "end_game"} {
		assert.NotPanics(t, func() {
			NewGraph[Counter]().AddNode(id, increment)
		}, id)
	}
}

func TestGraph_AddConditionalEdge(t *testing.T) {
	router := func(Context, Counter) string { return END }
	g := NewGraph[Counter]().
		AddNode("a", increment).
		AddConditionalEdge("a", router, "a", END)

	require.Contains(t, g.routers, "a")
	assert.Equal(t, []string{"a", END}, g.routerTargets["a"])
}

func TestGraph_AddConditionalEdge_NilRouter_Panics(t *testing.T) {
	assert.Panics(t, func() {
		NewGraph[Counter]().AddConditionalEdge("a", nil, END)
	})
}

func TestGraph_SetEntry_LastWins(t *testing.T) {
	g := NewGraph[Counter]().SetEntry("a").SetEntry("b")
	assert.Equal(t, "b", g.entryPoint)
}
