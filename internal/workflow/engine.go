// Package workflow implements the typed-state DAG engine that threads a
// *models.WorkflowState through the analyzer, scout, enhancer, retrieval,
// merge, and generation nodes named in spec §4.9.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/simpleflo/rdfusion/internal/observability"
	"github.com/simpleflo/rdfusion/pkg/models"
)

// Node is one workflow step. It receives the current state and returns the
// state with its delta applied (spec §3 "functional update"); node
// implementations call state.Clone() and mutate the clone.
type Node interface {
	Name() string
	Run(ctx context.Context, state *models.WorkflowState) (*models.WorkflowState, error)
}

// Router decides the next node name given the state a node just produced.
// An empty returned name ends the turn (spec §4.9's implicit "exit").
type Router func(state *models.WorkflowState) string

// Engine is a static node/edge registry executed per turn (spec §4.9
// "Topology (static)"), modeled on `Tangerg-lynx/flow`'s Node/Branch
// composition but specialized to *models.WorkflowState rather than a
// generic I/O pair, since every node in this pipeline shares one state type.
type Engine struct {
	entry  string
	nodes  map[string]Node
	routes map[string]Router
	logger zerolog.Logger
}

// StepHook is called after every node completes (success or failure) with
// the node name and the state as it stood after that node's delta was
// applied. It backs the daemon's per-node SSE progress events (spec §6); it
// must not block or mutate state. It is passed per-call to RunWithHook
// rather than stored on Engine, since Engine is a process-wide singleton
// shared across concurrent turns (spec §5 "reentrant").
type StepHook func(node string, state *models.WorkflowState, err error)

// NewEngine constructs an engine with the given entry node name.
func NewEngine(entry string) *Engine {
	return &Engine{entry: entry, nodes: map[string]Node{}, routes: map[string]Router{}, logger: observability.Logger("workflow")}
}

// Register adds a node and the router that decides what runs after it. A
// nil router ends the turn immediately after the node runs.
func (e *Engine) Register(node Node, router Router) {
	e.nodes[node.Name()] = node
	if router != nil {
		e.routes[node.Name()] = router
	}
}

// maxSteps bounds the number of node executions per turn as a runaway-loop
// backstop; the topology in spec §4.9 never revisits a node, so this is
// generous headroom rather than a tight budget.
const maxSteps = 20

// Run drives the state through the registered topology starting at entry,
// recording each node's elapsed time into state.StageTiming (spec §4.9,
// modeled on the teacher's per-node SSE timing emission).
func (e *Engine) Run(ctx context.Context, state *models.WorkflowState) (*models.WorkflowState, error) {
	return e.RunWithHook(ctx, state, nil)
}

// RunWithHook is Run plus a per-call progress hook (see StepHook).
func (e *Engine) RunWithHook(ctx context.Context, state *models.WorkflowState, onStep StepHook) (*models.WorkflowState, error) {
	current := e.entry
	for i := 0; i < maxSteps; i++ {
		if current == "" {
			return state, nil
		}
		node, ok := e.nodes[current]
		if !ok {
			return state, fmt.Errorf("workflow: no node registered for %q", current)
		}

		start := time.Now()
		next, err := node.Run(ctx, state)
		elapsedMs := float64(time.Since(start).Microseconds()) / 1000.0
		if err != nil {
			state = state.Clone()
			state.Error = err.Error()
			state.StageTiming[current] = elapsedMs
			e.logger.Warn().Err(err).Str("node", current).Msg("workflow node failed")
			if onStep != nil {
				onStep(current, state, err)
			}
			return state, err
		}
		state = next
		if state.StageTiming == nil {
			state.StageTiming = map[string]float64{}
		}
		state.StageTiming[current] = elapsedMs
		if onStep != nil {
			onStep(current, state, nil)
		}

		router, ok := e.routes[current]
		if !ok {
			return state, nil
		}
		current = router(state)
	}
	return state, fmt.Errorf("workflow: exceeded %d steps, possible routing cycle", maxSteps)
}
