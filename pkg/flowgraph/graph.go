package flowgraph

import (
	"fmt"
	"strings"
	"sync"
)

// Graph is a mutable builder for execution graphs.
//
// Graph is not safe for concurrent building. Build it on one goroutine,
// then call Compile to get an immutable CompiledGraph that can be shared.
//
// Example:
//
//	graph := flowgraph.NewGraph[AgeState]().
//	    AddNode("collect_age", collectAge).
//	    AddNode("report_age", reportAge).
//	    AddEdge("collect_age", "report_age").
//	    AddEdge("report_age", flowgraph.END).
//	    SetEntry("collect_age")
//
//	compiled, err := graph.Compile()
type Graph[S any] struct {
	mu            sync.RWMutex
	nodes         map[string]NodeFunc[S]
	order         []string
	edges         map[string][]string
	routers       map[string]RouterFunc[S]
	routerTargets map[string][]string
	entryPoint    string
}

// NewGraph creates a graph builder for state type S.
func NewGraph[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:         make(map[string]NodeFunc[S]),
		edges:         make(map[string][]string),
		routers:       make(map[string]RouterFunc[S]),
		routerTargets: make(map[string][]string),
	}
}

// AddNode adds a named node to the graph.
//
// Panics if id is empty, is the reserved "END" or "__end__" (any case),
// contains whitespace, is already taken, or fn is nil.
func (g *Graph[S]) AddNode(id string, fn NodeFunc[S]) *Graph[S] {
	if id == "" {
		panic("flowgraph: node ID cannot be empty")
	}
	if lower := strings.ToLower(id); lower == "end" || lower == END {
		panic("flowgraph: node ID cannot be reserved word 'END'")
	}
	if strings.ContainsAny(id, " \t\n\r") {
		panic("flowgraph: node ID cannot contain whitespace")
	}
	if fn == nil {
		panic("flowgraph: node function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; exists {
		panic(fmt.Sprintf("flowgraph: duplicate node ID: %s", id))
	}
	g.nodes[id] = fn
	g.order = append(g.order, id)
	return g
}

// AddEdge adds an unconditional edge. to may be a node ID or END.
// Edges are validated by Compile, so they can be added in any order.
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges[from] = append(g.edges[from], to)
	return g
}

// AddConditionalEdge routes from a node using router. targets lists every
// value the router may return (END included when it can finish the
// thread). Compile rejects unknown targets, and a router returning a value
// outside targets fails at runtime.
//
// A conditional edge takes precedence over simple edges from the same node.
func (g *Graph[S]) AddConditionalEdge(from string, router RouterFunc[S], targets ...string) *Graph[S] {
	if router == nil {
		panic("flowgraph: router function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.routers[from] = router
	g.routerTargets[from] = append([]string(nil), targets...)
	return g
}

// SetEntry designates the entry point node.
func (g *Graph[S]) SetEntry(id string) *Graph[S] {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entryPoint = id
	return g
}
