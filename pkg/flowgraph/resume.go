package flowgraph

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/flowchat/pkg/flowgraph/checkpoint"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/observability"
)

// Resume continues a thread from its latest checkpoint.
//
// If the thread is suspended, the suspended node runs again from its
// start; pass WithResumeValue to answer its interrupt. Nodes that completed
// before the suspension are not re-executed. Resuming a finished thread
// returns its final state without running anything.
//
// Returns ErrNoCheckpoints (wrapped) when the store has no such thread.
func (cg *CompiledGraph[S]) Resume(ctx Context, store checkpoint.Store, threadID string, opts ...ResumeOption) (Result[S], error) {
	if ctx == nil {
		return Result[S]{}, ErrNilContext
	}

	cp, err := checkpoint.Latest(ctx, store, threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return Result[S]{}, fmt.Errorf("%w: %s", ErrNoCheckpoints, threadID)
	}
	if err != nil {
		return Result[S]{}, err
	}
	return cg.resumeCheckpoint(ctx, store, threadID, cp, opts)
}

// ResumeFrom continues a thread from the checkpoint saved at nodeID rather
// than the latest one. Combined with WithReplay it re-executes that node.
func (cg *CompiledGraph[S]) ResumeFrom(ctx Context, store checkpoint.Store, threadID, nodeID string, opts ...ResumeOption) (Result[S], error) {
	if ctx == nil {
		return Result[S]{}, ErrNilContext
	}

	data, err := store.Load(ctx, threadID, nodeID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return Result[S]{}, fmt.Errorf("%w: %s at node %s", ErrNoCheckpoints, threadID, nodeID)
	}
	if err != nil {
		return Result[S]{}, fmt.Errorf("load checkpoint: %w", err)
	}

	cp, err := checkpoint.Unmarshal(data)
	if err != nil {
		return Result[S]{}, fmt.Errorf("%w: %v", ErrDeserializeState, err)
	}
	return cg.resumeCheckpoint(ctx, store, threadID, cp, opts)
}

func (cg *CompiledGraph[S]) resumeCheckpoint(ctx Context, store checkpoint.Store, threadID string, cp *checkpoint.Checkpoint, opts []ResumeOption) (Result[S], error) {
	cfg := resumeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	state, err := decodeState[S](cp)
	if err != nil {
		return Result[S]{}, err
	}

	if cfg.stateOverride != nil {
		if typed, ok := cfg.stateOverride(state).(S); ok {
			state = typed
		}
	}
	if cfg.validateState != nil {
		if err := cfg.validateState(state); err != nil {
			return Result[S]{State: state}, fmt.Errorf("state validation failed: %w", err)
		}
	}

	startNode := cp.NextNode
	if cfg.replayNode {
		startNode = cp.NodeID
	}
	if startNode == END {
		return Result[S]{State: state}, nil
	}
	if !cg.HasNode(startNode) {
		return Result[S]{State: state}, fmt.Errorf("%w: %s", ErrInvalidResumeNode, startNode)
	}

	runCfg := defaultRunConfig()
	for _, opt := range cfg.runOpts {
		opt(&runCfg)
	}
	runCfg.checkpointStore = store
	runCfg.threadID = threadID
	runCfg.sequence = cp.Sequence

	var slot *resumeSlot
	if cp.Pending != nil {
		if cfg.value != nil {
			slot = newResumeSlot(cp.Pending.NodeID, *cfg.value)
		}
		runCfg.metrics.RecordResume(ctx, cp.Pending.NodeID)
		observability.LogResume(runCfg.logger, threadID, cp.Pending.NodeID, cfg.value != nil)
	}

	return resultOf(cg.invoke(ctx, state, startNode, slot, &runCfg))
}
