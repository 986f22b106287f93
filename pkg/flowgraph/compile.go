package flowgraph

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// Compile validates the graph and returns an executable CompiledGraph.
// All validation failures are joined into one error.
//
// Checks:
//  1. Entry point is set and names an existing node
//  2. Edge sources and targets name existing nodes (targets may be END)
//  3. Conditional edges declare at least one target, each existing or END
//  4. Every node has an outgoing edge
//  5. END is reachable from the entry point
//
// Nodes unreachable from the entry point are logged as warnings.
func (g *Graph[S]) Compile() (*CompiledGraph[S], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var errs []error

	if g.entryPoint == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if _, ok := g.nodes[g.entryPoint]; !ok {
		errs = append(errs, fmt.Errorf("%w: %s", ErrEntryNotFound, g.entryPoint))
	}

	for _, from := range sortedKeys(g.edges) {
		if _, ok := g.nodes[from]; !ok {
			errs = append(errs, fmt.Errorf("%w: edge source '%s' does not exist", ErrNodeNotFound, from))
		}
		for _, to := range g.edges[from] {
			if !g.isTarget(to) {
				errs = append(errs, fmt.Errorf("%w: edge target '%s' does not exist", ErrNodeNotFound, to))
			}
		}
	}

	for _, from := range sortedKeys(g.routers) {
		if _, ok := g.nodes[from]; !ok {
			errs = append(errs, fmt.Errorf("%w: conditional edge source '%s' does not exist", ErrNodeNotFound, from))
		}
		targets := g.routerTargets[from]
		if len(targets) == 0 {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNoRouterTargets, from))
		}
		for _, to := range targets {
			if !g.isTarget(to) {
				errs = append(errs, fmt.Errorf("%w: router target '%s' from '%s' does not exist", ErrNodeNotFound, to, from))
			}
		}
	}

	for _, id := range g.order {
		if len(g.successorsOf(id)) == 0 {
			errs = append(errs, fmt.Errorf("%w: node '%s' has no outgoing edge", ErrNoPathToEnd, id))
		}
	}

	if _, ok := g.nodes[g.entryPoint]; ok && !g.reachable(g.entryPoint)[END] {
		errs = append(errs, ErrNoPathToEnd)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	g.warnUnreachableNodes()
	return g.buildCompiledGraph(), nil
}

func (g *Graph[S]) isTarget(id string) bool {
	if id == END {
		return true
	}
	_, ok := g.nodes[id]
	return ok
}

// successorsOf returns the possible next nodes: router targets when the
// node has a conditional edge, else its simple edges.
func (g *Graph[S]) successorsOf(id string) []string {
	if _, ok := g.routers[id]; ok {
		return g.routerTargets[id]
	}
	return g.edges[id]
}

// reachable returns every node (and END) reachable from start.
func (g *Graph[S]) reachable(start string) map[string]bool {
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.successorsOf(current) {
			if !seen[next] {
				seen[next] = true
				if next != END {
					queue = append(queue, next)
				}
			}
		}
	}
	return seen
}

func (g *Graph[S]) warnUnreachableNodes() {
	seen := g.reachable(g.entryPoint)
	for _, id := range g.order {
		if !seen[id] {
			slog.Warn("node is unreachable from entry", "node_id", id)
		}
	}
}

func (g *Graph[S]) buildCompiledGraph() *CompiledGraph[S] {
	cg := &CompiledGraph[S]{
		nodes:         make(map[string]NodeFunc[S], len(g.nodes)),
		order:         slices.Clone(g.order),
		edges:         make(map[string][]string, len(g.edges)),
		routers:       make(map[string]RouterFunc[S], len(g.routers)),
		routerTargets: make(map[string]map[string]bool, len(g.routers)),
		entryPoint:    g.entryPoint,
		successors:    make(map[string][]string, len(g.nodes)),
		predecessors:  make(map[string][]string, len(g.nodes)),
	}

	for id, fn := range g.nodes {
		cg.nodes[id] = fn
	}
	for from, targets := range g.edges {
		cg.edges[from] = slices.Clone(targets)
	}
	for from, router := range g.routers {
		cg.routers[from] = router
		allowed := make(map[string]bool, len(g.routerTargets[from]))
		for _, to := range g.routerTargets[from] {
			allowed[to] = true
		}
		cg.routerTargets[from] = allowed
	}

	for _, id := range g.order {
		succ := slices.Clone(g.successorsOf(id))
		cg.successors[id] = succ
		for _, to := range succ {
			if to != END && !slices.Contains(cg.predecessors[to], id) {
				cg.predecessors[to] = append(cg.predecessors[to], id)
			}
		}
	}
	return cg
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
