/*
Package flowgraph runs conversational agents built as directed graphs of
nodes that share a typed state and can pause to ask a human for input.

# Overview

A graph is a set of nodes (functions from state to state) joined by
edges. Conditional edges use a router to pick the next node from the
current state. Execution starts at the entry point and stops at END.

A node that needs input calls Interrupt. The executor checkpoints the
thread (the state the node received, plus "next node = this node") and
returns. Later, Resume re-enters the suspended node from its first line,
and this time Interrupt returns the human's answer. Nodes that completed
before the suspension never run again.

# Basic Usage

	type AgeState struct {
	    Age   int
	    Valid bool
	}

	func collectAge(ctx flowgraph.Context, s AgeState) (AgeState, error) {
	    answer, err := flowgraph.Interrupt(ctx, "Please enter your age:")
	    if err != nil {
	        return s, err
	    }
	    s.Age, s.Valid = parseAge(answer)
	    return s, nil
	}

	graph := flowgraph.NewGraph[AgeState]().
	    AddNode("collect_age", collectAge).
	    AddConditionalEdge("collect_age", func(_ flowgraph.Context, s AgeState) string {
	        if s.Valid {
	            return flowgraph.END
	        }
	        return "collect_age"
	    }, "collect_age", flowgraph.END).
	    SetEntry("collect_age")

	compiled, err := graph.Compile()

# Suspend and Resume

	store := checkpoint.NewMemoryStore()
	ctx := flowgraph.NewContext(context.Background())

	res, err := compiled.Invoke(ctx, AgeState{},
	    flowgraph.WithCheckpointing(store),
	    flowgraph.WithThreadID(threadID))
	for err == nil && res.Interrupted() {
	    answer := readLine(res.Pending.Prompt)
	    res, err = compiled.Resume(ctx, store, threadID, flowgraph.WithResumeValue(answer))
	}

The driver package wraps this loop.

# Routers

Routers declare every node they may return when the edge is added, so a
typo in a router target fails Compile instead of a conversation. A router
returning a value outside its declared targets fails at runtime with a
*RouterError.

# Errors

Node errors are wrapped in *NodeError, recovered panics become
*PanicError, and cancellation between nodes is a *CancellationError.
Interrupts are reported as *InterruptError by Run and through
Result.Pending by Invoke and Resume. Loops are bounded by
WithMaxIterations (default 1000 per invocation).

# Observability

WithObservabilityLogger, WithMetrics, WithMetricsRecorder and WithTracing
enable slog lifecycle logs, OpenTelemetry or Prometheus metrics, and
OpenTelemetry spans. All are off by default.
*/
package flowgraph
