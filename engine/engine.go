package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/graph"
	"github.com/hupe1980/codemesh/logging"
	"github.com/hupe1980/codemesh/proxy"
)

// TopicWorkflowFailed is the notification topic used when an instance fails
// on an unexpected step error, outside any declared graph edge.
const TopicWorkflowFailed = "WORKFLOW_FAILED"

// Options configure an Engine.
type Options struct {
	// Workers is the size of the pool draining the ingestion queue.
	Workers int
	// IdleWindow is how long an instance may sit idle before the sweeper
	// evicts it from the registry.
	IdleWindow time.Duration
	// SweepInterval is how often the idle sweeper runs.
	SweepInterval time.Duration
	// Logger receives engine diagnostics.
	Logger logging.Logger
	// Recorder observes engine activity for monitoring.
	Recorder Recorder
}

// DefaultOptions are safe for local development and tests.
var DefaultOptions = Options{
	Workers:       8,
	IdleWindow:    30 * time.Minute,
	SweepInterval: time.Minute,
}

// Engine drives workflow instances of one graph template. Submit enqueues
// work and returns immediately; pool workers pick tasks up, resolve the
// owning instance through the registry and drive it to a terminal state.
// Each worker runs behind a panic boundary so one misbehaving instance can
// never take down the ingestion loop or other in-flight instances.
type Engine struct {
	def      *graph.Definition
	prx      *proxy.Proxy
	registry *Registry
	queue    *submissionQueue
	logger   logging.Logger
	recorder Recorder
	opts     Options

	cancel context.CancelFunc
	group  *errgroup.Group
	stop   chan struct{}
}

// New constructs an Engine over the shared graph definition and proxy.
func New(def *graph.Definition, prx *proxy.Proxy, optFns ...func(o *Options)) *Engine {
	opts := DefaultOptions
	opts.Logger = logging.NoOpLogger{}
	opts.Recorder = NoopRecorder{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultOptions.Workers
	}
	return &Engine{
		def:      def,
		prx:      prx,
		registry: NewRegistry(),
		queue:    newSubmissionQueue(),
		logger:   opts.Logger,
		recorder: opts.Recorder,
		opts:     opts,
	}
}

// Start launches the worker pool and the idle sweeper. It returns
// immediately; use Close for an orderly shutdown.
func (e *Engine) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.stop = make(chan struct{})
	g, gctx := errgroup.WithContext(runCtx)
	e.group = g

	for i := 0; i < e.opts.Workers; i++ {
		g.Go(func() error {
			e.workerLoop(gctx)
			return nil
		})
	}
	g.Go(func() error {
		e.sweepLoop(gctx)
		return nil
	})
}

// Submit enqueues a declared input event for a session. It never blocks on
// workflow execution and returns only immediate validation errors (unknown
// input event).
func (e *Engine) Submit(sessionID string, conn proxy.Connection, ev core.Event) error {
	if sessionID == "" {
		return fmt.Errorf("session id required")
	}
	if _, ok := e.def.Entry(ev.ID); !ok {
		return fmt.Errorf("event %s is not a declared graph input", ev.ID)
	}
	e.queue.Push(Submission{SessionID: sessionID, Conn: conn, Event: ev})
	e.recorder.SubmissionQueued()
	return nil
}

// Instance returns the live instance for a session id, if any.
func (e *Engine) Instance(sessionID string) (*Instance, bool) {
	return e.registry.Get(sessionID)
}

// Registry exposes the instance registry for introspection.
func (e *Engine) Registry() *Registry { return e.registry }

// Close stops intake, lets in-flight steps finish draining and waits for
// the pool to exit. The registry is never corrupted by shutdown; instances
// are simply abandoned in place.
func (e *Engine) Close() error {
	e.queue.Close()
	if e.stop != nil {
		close(e.stop)
	}
	if e.group != nil {
		if err := e.group.Wait(); err != nil {
			return err
		}
	}
	if e.cancel != nil {
		e.cancel()
	}
	return nil
}

// workerLoop pops submissions until the queue closes. Every task runs
// behind its own error boundary.
func (e *Engine) workerLoop(ctx context.Context) {
	for {
		sub, ok := e.queue.Pop()
		if !ok {
			return
		}
		e.process(ctx, sub)
	}
}

// process is the per-task error boundary: a panic or instance-fatal error
// inside one workflow is logged and contained.
func (e *Engine) process(ctx context.Context, sub Submission) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("workflow worker recovered from panic",
				"session_id", sub.SessionID, "panic", fmt.Sprintf("%v", r))
			e.recorder.WorkerPanicked()
		}
	}()

	inst, created := e.registry.GetOrCreate(sub.SessionID, func() *Instance {
		return NewInstance(sub.SessionID, e.def, e.prx, sub.Conn, e.logger, e.recorder)
	})
	if created {
		e.logger.Info("workflow instance created", "session_id", sub.SessionID)
	}

	if err := inst.Accept(ctx, sub.Event); err != nil {
		// Instance-fatal errors are contained here; the instance is already
		// marked Failed and other sessions are unaffected. The observer still
		// hears about it, best-effort like every other notification.
		e.logger.Error("workflow instance failed",
			"session_id", sub.SessionID, "error", err.Error())
		e.prx.Forward(ctx, sub.Conn, TopicWorkflowFailed, err.Error())
	}
}

// sweepLoop periodically evicts idle instances from the registry.
func (e *Engine) sweepLoop(ctx context.Context) {
	interval := e.opts.SweepInterval
	if interval <= 0 {
		interval = DefaultOptions.SweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-e.opts.IdleWindow)
			if n := e.registry.Sweep(cutoff); n > 0 {
				e.logger.Info("idle workflow instances reclaimed", "count", n)
			}
		}
	}
}
