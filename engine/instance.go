package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/graph"
	"github.com/hupe1980/codemesh/logging"
	"github.com/hupe1980/codemesh/proxy"
)

// invocation is one pending step-function delivery on the instance queue.
type invocation struct {
	target graph.Target
	ev     core.Event
}

// Instance is one live execution of a workflow template, keyed by session
// id. It owns its event queue, per-step state and transcript. All mutation
// happens on the worker currently draining the queue; the busy flag
// guarantees a single drainer at a time.
type Instance struct {
	sessionID string
	def       *graph.Definition
	prx       *proxy.Proxy
	conn      proxy.Connection
	logger    logging.Logger
	recorder  Recorder

	mu           sync.Mutex
	status       core.Status
	inbox        []invocation
	queue        []invocation
	states       map[string]core.StepState
	transcript   *core.Transcript
	busy         bool
	runActive    bool
	lastActivity time.Time
}

// NewInstance constructs an instance bound to the shared, read-only graph
// definition.
func NewInstance(sessionID string, def *graph.Definition, prx *proxy.Proxy, conn proxy.Connection, logger logging.Logger, recorder Recorder) *Instance {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if wl, ok := logger.(*logging.WorkflowLogger); ok {
		logger = wl.WithSession(sessionID)
	}
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	return &Instance{
		sessionID:    sessionID,
		def:          def,
		prx:          prx,
		conn:         conn,
		logger:       logger,
		recorder:     recorder,
		status:       core.StatusCreated,
		states:       map[string]core.StepState{},
		transcript:   core.NewTranscript(),
		lastActivity: time.Now(),
	}
}

// SessionID returns the owning session id.
func (in *Instance) SessionID() string { return in.sessionID }

// Status returns the current lifecycle status.
func (in *Instance) Status() core.Status {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.status
}

// Transcript returns the instance's conversation transcript.
func (in *Instance) Transcript() *core.Transcript { return in.transcript }

// Idle reports whether the instance is eligible for reclamation: no pending
// input, queue drained, no step in flight, and no activity since the given
// deadline.
func (in *Instance) Idle(since time.Time) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return !in.busy && len(in.inbox) == 0 && len(in.queue) == 0 && in.lastActivity.Before(since)
}

// Accept injects a declared input event and, if no worker is already
// draining this instance, drives the queue to exhaustion on the calling
// goroutine. A second submission while draining only enqueues; the active
// drainer picks it up, preserving the single-threaded actor model.
func (in *Instance) Accept(ctx context.Context, ev core.Event) error {
	target, ok := in.def.Entry(ev.ID)
	if !ok {
		return fmt.Errorf("event %s is not a declared graph input", ev.ID)
	}
	if err := in.def.ValidatePayload(ev); err != nil {
		return fmt.Errorf("input rejected: %w", err)
	}

	in.mu.Lock()
	// Input events go to the inbox, not the run queue: a terminal edge or a
	// fatal step error discards the rest of the current run, never a
	// submission that has already been accepted.
	in.inbox = append(in.inbox, invocation{target: target, ev: ev})
	in.lastActivity = time.Now()
	if in.busy {
		in.mu.Unlock()
		return nil
	}
	in.busy = true
	in.mu.Unlock()

	return in.drain(ctx)
}

// drain processes queued invocations strictly in order, starting the next
// run from the inbox whenever the current one has ended. It owns the busy
// flag; the flag is released atomically with the exit check so a concurrent
// Accept either sees the drainer still active or finds it fully gone, never
// a gap. On an instance-fatal error the remaining inbox runs still execute;
// the first error is returned once everything has drained.
func (in *Instance) drain(ctx context.Context) error {
	var firstErr error
	for {
		in.mu.Lock()
		var next invocation
		switch {
		case !in.status.Terminal() && len(in.queue) > 0:
			next = in.queue[0]
			in.queue = in.queue[1:]
		case len(in.inbox) > 0:
			// A fresh input starts the next run; the transcript and per-step
			// state carry over for session continuity.
			next = in.inbox[0]
			in.inbox = in.inbox[1:]
			in.queue = nil
		default:
			in.busy = false
			in.lastActivity = time.Now()
			in.mu.Unlock()
			return firstErr
		}
		in.status = core.StatusRunning
		startedRun := !in.runActive
		in.runActive = true
		in.mu.Unlock()

		if startedRun {
			in.recorder.InstanceStarted()
		}

		if err := in.invoke(ctx, next); err != nil {
			in.mu.Lock()
			in.status = core.StatusFailed
			in.queue = nil
			in.runActive = false
			in.lastActivity = time.Now()
			in.mu.Unlock()
			in.recorder.InstanceFinished(core.StatusFailed.String())
			if firstErr == nil {
				firstErr = err
			}
		}
	}
}

// invoke runs one step function and routes everything it emitted. Any error
// escaping the handler is instance-fatal.
func (in *Instance) invoke(ctx context.Context, inv invocation) error {
	step, ok := in.def.Step(inv.target.Step)
	if !ok {
		return &core.StepExecutionError{Step: inv.target.Step, Function: inv.target.Function, Err: fmt.Errorf("step not in graph")}
	}
	handler, ok := step.Function(inv.target.Function)
	if !ok {
		return &core.StepExecutionError{Step: inv.target.Step, Function: inv.target.Function, Err: fmt.Errorf("function not in step")}
	}

	in.mu.Lock()
	state, ok := in.states[step.Name]
	if !ok {
		state = core.StepState{}
		in.states[step.Name] = state
	}
	in.mu.Unlock()

	var emitted []core.Event
	sc := core.NewStepContext(
		ctx,
		in.sessionID,
		step.Name,
		inv.target.Function,
		state,
		in.transcript,
		in.logger,
		func(ev core.Event) { emitted = append(emitted, ev) },
	)

	start := time.Now()
	err := handler(sc, inv.ev)
	sc.Seal()
	logging.StepExecution(in.logger, step.Name, inv.target.Function, time.Since(start), err)
	if err != nil {
		return &core.StepExecutionError{Step: step.Name, Function: inv.target.Function, Err: err}
	}

	for _, ev := range emitted {
		if err := in.route(ctx, step.Name, ev); err != nil {
			return err
		}
		if in.terminal() {
			return nil
		}
	}

	// Wildcard completion edges fire on successful return, delivering the
	// triggering event for pass-through chaining.
	return in.route(ctx, step.Name, core.Event{ID: graph.FunctionResult, Payload: inv.ev.Payload, Visibility: inv.ev.Visibility})
}

// route resolves all matching edges for an emitted event in declaration
// order: internal edges enqueue, external edges go to the proxy, terminal
// edges end the run.
func (in *Instance) route(ctx context.Context, fromStep string, ev core.Event) error {
	if ev.ID != graph.FunctionResult {
		if err := in.def.ValidatePayload(ev); err != nil {
			// Malformed payloads are fatal step errors, never silent drops.
			return &core.StepExecutionError{Step: fromStep, Function: "emit", Err: err}
		}
	}

	for _, edge := range in.def.EdgesFrom(fromStep, ev.ID) {
		switch {
		case edge.External:
			in.prx.Forward(ctx, in.conn, edge.Topic, ev.Payload)
			in.recorder.NotificationForwarded(edge.Topic)

		case edge.Terminal:
			status := core.StatusStopped
			if edge.Completion {
				status = core.StatusCompleted
			}
			// Only the current run's pending invocations are discarded;
			// inputs accepted in the meantime stay in the inbox.
			in.mu.Lock()
			in.status = status
			in.queue = nil
			in.runActive = false
			in.mu.Unlock()
			in.logger.Info("workflow run ended at terminal edge",
				"session_id", in.sessionID, "event", ev.ID, "status", status.String())
			in.recorder.InstanceFinished(status.String())
			return nil

		default:
			in.mu.Lock()
			in.queue = append(in.queue, invocation{
				target: graph.Target{Step: edge.ToStep, Function: edge.ToFunction},
				ev:     ev,
			})
			in.mu.Unlock()
			in.recorder.EventRouted(ev.ID)
		}
	}
	return nil
}

func (in *Instance) terminal() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.status.Terminal()
}
