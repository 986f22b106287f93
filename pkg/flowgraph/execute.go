package flowgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/randalmurphal/flowchat/pkg/flowgraph/checkpoint"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Run executes the graph from the entry point until END.
//
// If a node interrupts, Run stops and returns the state that node received
// together with an *InterruptError. With checkpointing enabled the thread
// can then be resumed with Resume. On any other error the returned state
// is the state at the point of failure.
//
// Example:
//
//	ctx := flowgraph.NewContext(context.Background())
//	final, err := compiled.Run(ctx, initial)
func (cg *CompiledGraph[S]) Run(ctx Context, state S, opts ...RunOption) (S, error) {
	if ctx == nil {
		return state, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cg.invoke(ctx, state, cg.entryPoint, nil, &cfg)
}

// Invoke starts a thread from the entry point. Unlike Run, an interrupt is
// not an error: it is reported through Result.Pending.
//
//	res, err := compiled.Invoke(ctx, initial,
//	    flowgraph.WithCheckpointing(store),
//	    flowgraph.WithThreadID(threadID))
//	if res.Interrupted() {
//	    answer := ask(res.Pending.Prompt)
//	    res, err = compiled.Resume(ctx, store, threadID, flowgraph.WithResumeValue(answer))
//	}
func (cg *CompiledGraph[S]) Invoke(ctx Context, state S, opts ...RunOption) (Result[S], error) {
	return resultOf(cg.Run(ctx, state, opts...))
}

// invoke runs one invocation starting at startNode. slot carries the
// resume value, if any.
func (cg *CompiledGraph[S]) invoke(ctx Context, state S, startNode string, slot *resumeSlot, cfg *runConfig) (result S, err error) {
	if cfg.checkpointStore != nil && cfg.threadID == "" {
		return state, ErrThreadIDRequired
	}

	ec := forInvocation(ctx, cfg.threadID, slot)
	threadID := ec.threadID
	start := time.Now()

	observability.LogInvokeStart(cfg.logger, threadID, startNode)

	var spanCtx context.Context = ec
	if cfg.tracingEnabled {
		var span trace.Span
		spanCtx, span = cfg.spans.StartInvokeSpan(ec, threadID, startNode)
		defer func() {
			if IsInterrupt(err) {
				cfg.spans.EndSpanWithError(span, nil)
				return
			}
			cfg.spans.EndSpanWithError(span, err)
		}()
	}

	result, nodeCount, lastNode, err := cg.loop(spanCtx, ec, state, startNode, cfg)

	duration := time.Since(start)
	durationMs := float64(duration.Milliseconds())
	switch {
	case err == nil:
		cfg.metrics.RecordInvoke(ec, observability.OutcomeDone, duration)
		observability.LogInvokeComplete(cfg.logger, threadID, durationMs, nodeCount)
	case IsInterrupt(err):
		cfg.metrics.RecordInvoke(ec, observability.OutcomeInterrupted, duration)
	default:
		cfg.metrics.RecordInvoke(ec, observability.OutcomeError, duration)
		observability.LogInvokeError(cfg.logger, threadID, err, durationMs, lastNode)
	}
	return result, err
}

// loop is the executor state machine. It returns the state, the number of
// nodes completed, and the node that was current when it stopped.
func (cg *CompiledGraph[S]) loop(spanCtx context.Context, ec *executionContext, state S, startNode string, cfg *runConfig) (S, int, string, error) {
	current := startNode
	prevNode := ""
	nodeCount := 0

	for iterations := 1; current != END; iterations++ {
		if iterations > cfg.maxIterations {
			return state, nodeCount, current, &MaxIterationsError{
				Max:        cfg.maxIterations,
				LastNodeID: current,
				State:      state,
			}
		}

		if err := ec.Err(); err != nil {
			return state, nodeCount, current, &CancellationError{
				NodeID: current,
				State:  state,
				Cause:  err,
			}
		}

		observability.LogNodeStart(cfg.logger, current)
		nodeSpanCtx := spanCtx
		var nodeSpan trace.Span
		if cfg.tracingEnabled {
			nodeSpanCtx, nodeSpan = cfg.spans.StartNodeSpan(spanCtx, current)
		}

		nodeStart := time.Now()
		input := state
		output, nodeErr := cg.executeNode(ec, current, state)
		nodeDuration := time.Since(nodeStart)
		ec.resume.expire(current)

		var interrupt *InterruptError
		if errors.As(nodeErr, &interrupt) {
			if interrupt.NodeID == "" {
				interrupt.NodeID = current
			}
			cfg.metrics.RecordNodeExecution(nodeSpanCtx, current, nodeDuration, nil)
			cfg.metrics.RecordInterrupt(nodeSpanCtx, current)
			if cfg.tracingEnabled {
				cfg.spans.AddSpanEvent(nodeSpanCtx, "interrupt", attribute.String("node.id", current))
				cfg.spans.EndSpanWithError(nodeSpan, nil)
			}
			observability.LogInterrupt(cfg.logger, ec.threadID, current, interrupt.Prompt)

			// The node re-runs from the start on resume, so it resumes with
			// the state it received, not whatever it returned.
			if cfg.checkpointStore != nil {
				if err := cg.saveCheckpoint(nodeSpanCtx, ec, cfg, current, prevNode, input, current, interrupt, true); err != nil {
					return input, nodeCount, current, err
				}
			}
			return input, nodeCount, current, interrupt
		}

		if nodeErr != nil && ec.Err() != nil && errors.Is(nodeErr, ec.Err()) {
			nodeErr = &CancellationError{
				NodeID:       current,
				State:        output,
				Cause:        ec.Err(),
				WasExecuting: true,
			}
		}

		cfg.metrics.RecordNodeExecution(nodeSpanCtx, current, nodeDuration, nodeErr)
		if cfg.tracingEnabled {
			cfg.spans.EndSpanWithError(nodeSpan, nodeErr)
		}
		if nodeErr != nil {
			observability.LogNodeError(cfg.logger, current, nodeErr)
			return output, nodeCount, current, nodeErr
		}
		observability.LogNodeComplete(cfg.logger, current, float64(nodeDuration.Milliseconds()))
		nodeCount++
		state = output

		next, err := cg.nextNode(ec, state, current)
		if err != nil {
			return state, nodeCount, current, err
		}

		if cfg.checkpointStore != nil {
			if err := cg.saveCheckpoint(nodeSpanCtx, ec, cfg, current, prevNode, state, next, nil, cfg.checkpointFailureFatal); err != nil {
				return state, nodeCount, current, err
			}
		}

		prevNode = current
		current = next
	}

	return state, nodeCount, prevNode, nil
}

// saveCheckpoint persists state with next as the node to run on resume.
// Failures are logged and swallowed unless fatal.
func (cg *CompiledGraph[S]) saveCheckpoint(ctx context.Context, ec *executionContext, cfg *runConfig,
	nodeID, prevNodeID string, state S, next string, interrupt *InterruptError, fatal bool) error {
	fail := func(op string, err error) error {
		if fatal {
			return &CheckpointError{NodeID: nodeID, Op: op, Err: err}
		}
		observability.LogCheckpointError(cfg.logger, nodeID, op, err)
		return nil
	}

	stateBytes, err := json.Marshal(state)
	if err != nil {
		return fail("serialize", fmt.Errorf("%w: %v", ErrSerializeState, err))
	}

	cfg.sequence++
	cp := checkpoint.New(ec.threadID, nodeID, cfg.sequence, stateBytes, next).
		WithPrevNode(prevNodeID).
		WithAttempt(ec.attempt)
	if interrupt != nil {
		cp = cp.WithPending(interrupt.NodeID, interrupt.Prompt)
	}

	data, err := cp.Marshal()
	if err != nil {
		return fail("marshal", err)
	}
	if err := cfg.checkpointStore.Save(ec, ec.threadID, nodeID, data); err != nil {
		return fail("save", err)
	}

	observability.LogCheckpoint(cfg.logger, nodeID, len(data))
	cfg.metrics.RecordCheckpoint(ctx, nodeID, int64(len(data)))
	return nil
}

// executeNode runs one node with panic recovery. Interrupts pass through
// unwrapped; other errors are wrapped in *NodeError.
func (cg *CompiledGraph[S]) executeNode(ec *executionContext, nodeID string, state S) (result S, err error) {
	fn, ok := cg.nodes[nodeID]
	if !ok {
		return state, &NodeError{
			NodeID: nodeID,
			Op:     "lookup",
			Err:    fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			result = state
			err = &PanicError{
				NodeID: nodeID,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()

	result, err = fn(ec.withNodeID(nodeID), state)
	if err != nil {
		if IsInterrupt(err) {
			return result, err
		}
		return result, &NodeError{NodeID: nodeID, Op: "execute", Err: err}
	}
	return result, nil
}

// nextNode picks the node after current: the router's choice when the
// node has a conditional edge, else its first simple edge.
func (cg *CompiledGraph[S]) nextNode(ec *executionContext, state S, current string) (string, error) {
	if router, ok := cg.routers[current]; ok {
		next := router(ec.withNodeID(current), state)
		if next == "" {
			return "", &RouterError{FromNode: current, Returned: next, Err: ErrInvalidRouterResult}
		}
		if !cg.routerTargets[current][next] {
			return "", &RouterError{FromNode: current, Returned: next, Err: ErrRouterTargetNotFound}
		}
		return next, nil
	}

	edges := cg.edges[current]
	if len(edges) == 0 {
		return "", &NodeError{
			NodeID: current,
			Op:     "routing",
			Err:    fmt.Errorf("no outgoing edge from node %s", current),
		}
	}
	return edges[0], nil
}
