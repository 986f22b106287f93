package flowgraph

import "slices"

// CompiledGraph is an immutable, executable graph created by Compile.
//
// CompiledGraph is safe for concurrent use: many threads may run through
// the same compiled graph at once.
type CompiledGraph[S any] struct {
	nodes         map[string]NodeFunc[S]
	order         []string
	edges         map[string][]string
	routers       map[string]RouterFunc[S]
	routerTargets map[string]map[string]bool
	entryPoint    string

	successors   map[string][]string
	predecessors map[string][]string
}

// EntryPoint returns the entry node ID.
func (cg *CompiledGraph[S]) EntryPoint() string {
	return cg.entryPoint
}

// NodeIDs returns node identifiers in the order they were added.
func (cg *CompiledGraph[S]) NodeIDs() []string {
	return slices.Clone(cg.order)
}

// HasNode reports whether id is a node of the graph.
func (cg *CompiledGraph[S]) HasNode(id string) bool {
	_, ok := cg.nodes[id]
	return ok
}

// Successors returns the nodes that may follow id, including declared
// router targets. END appears when the node can finish the thread.
func (cg *CompiledGraph[S]) Successors(id string) []string {
	return slices.Clone(cg.successors[id])
}

// Predecessors returns the nodes that may run immediately before id.
func (cg *CompiledGraph[S]) Predecessors(id string) []string {
	return slices.Clone(cg.predecessors[id])
}

// IsConditional reports whether id routes through a conditional edge.
func (cg *CompiledGraph[S]) IsConditional(id string) bool {
	_, ok := cg.routers[id]
	return ok
}
