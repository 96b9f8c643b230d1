package core

import (
	"context"
	"sync"

	"github.com/hupe1980/codemesh/logging"
)

// StepState is the mutable per-step state owned by a workflow instance and
// passed explicitly into each handler invocation. Handlers never keep state
// on shared objects, which lets every instance of one graph definition run
// independently.
type StepState map[string]any

// Handler is the entry function contract of a step. It receives the emission
// context and the triggering event, performs (possibly blocking) work through
// injected collaborators and emits zero or more events before returning.
// Emission after return is rejected with ErrEmitAfterReturn.
type Handler func(sc *StepContext, ev Event) error

// StepContext carries the per-invocation execution scope handed to a step
// handler: cancellation context, identifiers, the step's own state, the
// shared instance transcript, a logger and the event sink. The sink is
// sealed by the router once the handler returns.
type StepContext struct {
	Context    context.Context
	SessionID  string
	Step       string
	Function   string
	State      StepState
	Transcript *Transcript
	Logger     logging.Logger

	mu     sync.Mutex
	sealed bool
	sink   func(Event)
}

// NewStepContext constructs a step context bound to the given event sink.
func NewStepContext(
	ctx context.Context,
	sessionID, step, function string,
	state StepState,
	transcript *Transcript,
	logger logging.Logger,
	sink func(Event),
) *StepContext {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &StepContext{
		Context:    ctx,
		SessionID:  sessionID,
		Step:       step,
		Function:   function,
		State:      state,
		Transcript: transcript,
		Logger:     logger,
		sink:       sink,
	}
}

// Emit produces an event from the running handler. Events are collected by
// the router in emission order and routed after validation against the graph
// definition.
func (sc *StepContext) Emit(id string, payload any, vis Visibility) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.sealed {
		return ErrEmitAfterReturn
	}
	sc.sink(Event{ID: id, Payload: payload, Visibility: vis})
	return nil
}

// Seal invalidates the emission sink. Called by the router immediately after
// the handler returns; any later Emit fails.
func (sc *StepContext) Seal() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.sealed = true
}

// Done mirrors context.Context's Done for convenience in handlers.
func (sc *StepContext) Done() <-chan struct{} { return sc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (sc *StepContext) Err() error { return sc.Context.Err() }
