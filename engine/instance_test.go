package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/graph"
	"github.com/hupe1980/codemesh/internal/testutil"
	"github.com/hupe1980/codemesh/proxy"
)

// chainDefinition builds a two-step pipeline: Begin -> first -> second, with
// an external notification after each step and a completion edge at the end.
func chainDefinition(t *testing.T) *graph.Definition {
	t.Helper()

	b := graph.NewBuilder()
	b.AddStep("first", map[string]core.Handler{
		"run": func(sc *core.StepContext, ev core.Event) error {
			in, err := core.PayloadAs[string](ev)
			if err != nil {
				return err
			}
			return sc.Emit("Produced", in+"-handled", core.VisibilityPublic)
		},
	})
	b.AddStep("second", map[string]core.Handler{
		"run": func(sc *core.StepContext, ev core.Event) error {
			return sc.Emit("Finished", 1, core.VisibilityPublic)
		},
	})
	b.DeclareEvent("Begin", graph.PayloadOf[string]())
	b.DeclareEvent("Produced", graph.PayloadOf[string]())
	b.DeclareEvent("Finished", graph.PayloadOf[int]())
	b.AddInput("Begin", "first", "run")
	b.OnEvent("first", "Produced").
		EmitExternal("FIRST_DONE").
		SendEventTo("second", "run")
	b.OnEvent("second", "Finished").
		EmitExternal("ALL_DONE").
		Complete()

	def, err := b.Build()
	require.NoError(t, err)
	return def
}

func newTestInstance(def *graph.Definition, rec *testutil.RecordingNotifier) *Instance {
	return NewInstance("s1", def, proxy.New(rec), "conn", nil, nil)
}

func TestInstanceRunsChainToCompletion(t *testing.T) {
	rec := testutil.NewRecordingNotifier()
	inst := newTestInstance(chainDefinition(t), rec)

	err := inst.Accept(context.Background(), core.NewEvent("Begin", "task"))
	require.NoError(t, err)

	assert.Equal(t, core.StatusCompleted, inst.Status())
	assert.Equal(t, []string{"FIRST_DONE", "ALL_DONE"}, rec.Topics())
	assert.Equal(t, "task-handled", rec.Deliveries()[0].Payload)
}

func TestInstanceRejectsUndeclaredInput(t *testing.T) {
	inst := newTestInstance(chainDefinition(t), testutil.NewRecordingNotifier())

	err := inst.Accept(context.Background(), core.NewEvent("Bogus", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a declared graph input")
	assert.Equal(t, core.StatusCreated, inst.Status())
}

func TestInstanceRejectsMalformedInputPayload(t *testing.T) {
	inst := newTestInstance(chainDefinition(t), testutil.NewRecordingNotifier())

	err := inst.Accept(context.Background(), core.NewEvent("Begin", 42))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input rejected")
}

func TestInstanceStopEdge(t *testing.T) {
	b := graph.NewBuilder()
	b.AddStep("gate", map[string]core.Handler{
		"run": func(sc *core.StepContext, ev core.Event) error {
			return sc.Emit("Rejected", "missing data", core.VisibilityPublic)
		},
	})
	b.DeclareEvent("Begin", graph.NoPayload())
	b.DeclareEvent("Rejected", graph.PayloadOf[string]())
	b.AddInput("Begin", "gate", "run")
	b.OnEvent("gate", "Rejected").
		EmitExternal("REJECTED").
		Stop()
	def, err := b.Build()
	require.NoError(t, err)

	rec := testutil.NewRecordingNotifier()
	inst := newTestInstance(def, rec)

	require.NoError(t, inst.Accept(context.Background(), core.NewEvent("Begin", nil)))

	assert.Equal(t, core.StatusStopped, inst.Status())
	assert.Equal(t, []string{"REJECTED"}, rec.Topics())
}

func TestInstanceHandlerErrorFailsRun(t *testing.T) {
	cause := errors.New("segfault in step")
	b := graph.NewBuilder()
	b.AddStep("broken", map[string]core.Handler{
		"run": func(*core.StepContext, core.Event) error { return cause },
	})
	b.DeclareEvent("Begin", graph.NoPayload())
	b.AddInput("Begin", "broken", "run")
	def, err := b.Build()
	require.NoError(t, err)

	inst := newTestInstance(def, testutil.NewRecordingNotifier())

	err = inst.Accept(context.Background(), core.NewEvent("Begin", nil))
	require.Error(t, err)

	var serr *core.StepExecutionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "broken", serr.Step)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, core.StatusFailed, inst.Status())
}

func TestInstanceMalformedEmissionFailsRun(t *testing.T) {
	b := graph.NewBuilder()
	b.AddStep("liar", map[string]core.Handler{
		"run": func(sc *core.StepContext, ev core.Event) error {
			// Declared as int below, emitted as string.
			return sc.Emit("Typed", "wrong", core.VisibilityInternal)
		},
	})
	b.DeclareEvent("Begin", graph.NoPayload())
	b.DeclareEvent("Typed", graph.PayloadOf[int]())
	b.AddInput("Begin", "liar", "run")
	b.OnEvent("liar", "Typed").Stop()
	def, err := b.Build()
	require.NoError(t, err)

	inst := newTestInstance(def, testutil.NewRecordingNotifier())

	err = inst.Accept(context.Background(), core.NewEvent("Begin", nil))
	require.Error(t, err)
	assert.Equal(t, core.StatusFailed, inst.Status())
}

func TestInstanceWildcardCompletionEdge(t *testing.T) {
	var secondGot any
	b := graph.NewBuilder()
	b.AddStep("silent", map[string]core.Handler{
		"run": func(*core.StepContext, core.Event) error { return nil },
	})
	b.AddStep("next", map[string]core.Handler{
		"run": func(sc *core.StepContext, ev core.Event) error {
			secondGot = ev.Payload
			return sc.Emit("Done", true, core.VisibilityInternal)
		},
	})
	b.DeclareEvent("Begin", graph.PayloadOf[string]())
	b.DeclareEvent("Done", graph.PayloadOf[bool]())
	b.AddInput("Begin", "silent", "run")
	b.OnFunctionResult("silent").SendEventTo("next", "run")
	b.OnEvent("next", "Done").Complete()
	def, err := b.Build()
	require.NoError(t, err)

	inst := newTestInstance(def, testutil.NewRecordingNotifier())

	require.NoError(t, inst.Accept(context.Background(), core.NewEvent("Begin", "payload-through")))

	// The wildcard edge hands the triggering event's payload onward.
	assert.Equal(t, "payload-through", secondGot)
	assert.Equal(t, core.StatusCompleted, inst.Status())
}

func TestInstanceResubmissionStartsFreshRun(t *testing.T) {
	rec := testutil.NewRecordingNotifier()
	inst := newTestInstance(chainDefinition(t), rec)

	require.NoError(t, inst.Accept(context.Background(), core.NewEvent("Begin", "one")))
	require.Equal(t, core.StatusCompleted, inst.Status())

	require.NoError(t, inst.Accept(context.Background(), core.NewEvent("Begin", "two")))
	assert.Equal(t, core.StatusCompleted, inst.Status())

	assert.Equal(t, []string{"FIRST_DONE", "ALL_DONE", "FIRST_DONE", "ALL_DONE"}, rec.Topics())
}

// countingRecorder tallies run starts and finishes.
type countingRecorder struct {
	NoopRecorder
	mu       sync.Mutex
	started  int
	finished []string
}

func (r *countingRecorder) InstanceStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *countingRecorder) InstanceFinished(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, status)
}

// gatedDefinition builds a single-step graph whose handler parks on release
// after signaling entered, so tests can submit while a run is in flight.
func gatedDefinition(t *testing.T, entered chan struct{}, release chan struct{}, handler core.Handler) *graph.Definition {
	t.Helper()

	b := graph.NewBuilder()
	b.AddStep("work", map[string]core.Handler{
		"run": func(sc *core.StepContext, ev core.Event) error {
			entered <- struct{}{}
			<-release
			return handler(sc, ev)
		},
	})
	b.DeclareEvent("Begin", graph.NoPayload())
	b.DeclareEvent("Done", graph.PayloadOf[bool]())
	b.AddInput("Begin", "work", "run")
	b.OnEvent("work", "Done").EmitExternal("DONE").Complete()

	def, err := b.Build()
	require.NoError(t, err)
	return def
}

func TestInstanceKeepsSubmissionAcceptedMidRun(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var runs int32

	def := gatedDefinition(t, entered, release, func(sc *core.StepContext, ev core.Event) error {
		atomic.AddInt32(&runs, 1)
		return sc.Emit("Done", true, core.VisibilityPublic)
	})

	rec := testutil.NewRecordingNotifier()
	inst := newTestInstance(def, rec)

	done := make(chan error, 1)
	go func() { done <- inst.Accept(context.Background(), core.NewEvent("Begin", nil)) }()

	// First run is parked inside its handler; a second submission must only
	// enqueue and survive the completion edge of the first run.
	<-entered
	require.NoError(t, inst.Accept(context.Background(), core.NewEvent("Begin", nil)))
	release <- struct{}{}

	// The active drainer picks the second submission up itself.
	<-entered
	release <- struct{}{}

	require.NoError(t, <-done)
	assert.Equal(t, int32(2), atomic.LoadInt32(&runs))
	assert.Equal(t, []string{"DONE", "DONE"}, rec.Topics())
	assert.Equal(t, core.StatusCompleted, inst.Status())
}

func TestInstanceFailedRunDoesNotDropLaterSubmission(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	cause := errors.New("tooling unavailable")
	var runs int32

	def := gatedDefinition(t, entered, release, func(sc *core.StepContext, ev core.Event) error {
		if atomic.AddInt32(&runs, 1) == 1 {
			return cause
		}
		return sc.Emit("Done", true, core.VisibilityPublic)
	})

	rec := testutil.NewRecordingNotifier()
	inst := newTestInstance(def, rec)

	done := make(chan error, 1)
	go func() { done <- inst.Accept(context.Background(), core.NewEvent("Begin", nil)) }()

	<-entered
	require.NoError(t, inst.Accept(context.Background(), core.NewEvent("Begin", nil)))
	release <- struct{}{}

	<-entered
	release <- struct{}{}

	// The first run's failure is still reported, but the second run executed
	// and finished the workflow.
	assert.ErrorIs(t, <-done, cause)
	assert.Equal(t, int32(2), atomic.LoadInt32(&runs))
	assert.Equal(t, []string{"DONE"}, rec.Topics())
	assert.Equal(t, core.StatusCompleted, inst.Status())
}

func TestInstanceRunMetricsPairUp(t *testing.T) {
	rec := &countingRecorder{}
	inst := NewInstance("s1", chainDefinition(t), proxy.New(testutil.NewRecordingNotifier()), "conn", nil, rec)

	require.NoError(t, inst.Accept(context.Background(), core.NewEvent("Begin", "one")))
	require.NoError(t, inst.Accept(context.Background(), core.NewEvent("Begin", "two")))

	// Each run records exactly one start and one finish, so gauges built on
	// these hooks stay balanced across re-submitted sessions.
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 2, rec.started)
	assert.Equal(t, []string{"completed", "completed"}, rec.finished)
}

func TestInstanceIdle(t *testing.T) {
	inst := newTestInstance(chainDefinition(t), testutil.NewRecordingNotifier())

	// Fresh instances are active until the idle window passes.
	assert.False(t, inst.Idle(inst.lastActivity.Add(-time.Second)))
	assert.True(t, inst.Idle(inst.lastActivity.Add(time.Second)))
}
