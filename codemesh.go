// Package codemesh provides a high-level façade over the workflow engine for
// building coding assistant services. Most applications interact with this
// package by:
//  1. Creating a CodeMesh via New() (optionally overriding the model client,
//     environment manager, notifier or configuration)
//  2. Starting the worker pool with Start()
//  3. Submitting requirements per session with Submit()
//
// The façade delegates orchestration to engine.Engine while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a real model provider, a
// container runtime and a structured logger.
package codemesh

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/codemesh/config"
	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/engine"
	"github.com/hupe1980/codemesh/environ"
	"github.com/hupe1980/codemesh/logging"
	"github.com/hupe1980/codemesh/model"
	"github.com/hupe1980/codemesh/model/anthropic"
	"github.com/hupe1980/codemesh/model/openai"
	"github.com/hupe1980/codemesh/proxy"
	"github.com/hupe1980/codemesh/workflow"
)

// Options configures the CodeMesh instance.
type Options struct {
	// Config tunes engine concurrency, group ceilings, the environment
	// image and the model provider. Defaults to config.Default().
	Config *config.Config

	// Client overrides the model client built from Config.Model. Supply a
	// model.Mock here for deterministic tests.
	Client model.Client

	// Environment overrides the container manager (defaults to the local
	// docker/podman CLI).
	Environment environ.Manager

	// Notifier delivers external notifications to client connections
	// (defaults to the websocket notifier).
	Notifier proxy.Notifier

	// Recorder observes engine activity; wire metrics.NewPrometheusRecorder
	// for monitoring. Defaults to a no-op.
	Recorder engine.Recorder

	// Logger overrides the structured logger built from Config.Logging.
	Logger logging.Logger
}

// CodeMesh is the high-level façade aggregating the workflow graph, the
// notification proxy and the underlying engine.
type CodeMesh struct {
	opts   Options
	engine *engine.Engine
}

// New creates a new CodeMesh instance with optional overrides. Any unset
// collaborator is initialized from the configuration.
func New(optFns ...func(o *Options)) (*CodeMesh, error) {
	opts := Options{
		Config: config.Default(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NewLogger(&logging.LoggerConfig{
			Level:     logging.ParseLevel(opts.Config.Logging.Level),
			Format:    opts.Config.Logging.Format,
			Component: "codemesh",
		})
	}

	if opts.Client == nil {
		client, err := buildClient(opts.Config.Model)
		if err != nil {
			return nil, err
		}
		opts.Client = client
	}

	if opts.Environment == nil {
		opts.Environment = environ.NewDocker(func(o *environ.DockerOptions) {
			o.ExecTimeout = opts.Config.Environment.Timeout.Std()
			o.Logger = opts.Logger
		})
	}

	if opts.Notifier == nil {
		opts.Notifier = proxy.NewWebsocketNotifier()
	}

	def, err := workflow.NewDefinition(opts.Client, opts.Environment, func(o *workflow.Options) {
		o.MaxIterations = opts.Config.Group.MaxIterations
		o.HistoryWindow = opts.Config.Group.HistoryWindow
		o.PlanPhrase = opts.Config.Group.PlanPhrase
		o.DonePhrase = opts.Config.Group.DonePhrase
		o.Environment = environ.Spec{
			Image:   opts.Config.Environment.Image,
			WorkDir: opts.Config.Environment.WorkDir,
		}
		o.Decider = opts.Client
	})
	if err != nil {
		return nil, fmt.Errorf("build workflow definition: %w", err)
	}

	prx := proxy.New(opts.Notifier, func(o *proxy.Options) {
		o.Logger = opts.Logger
	})

	eng := engine.New(def, prx, func(o *engine.Options) {
		o.Workers = opts.Config.Engine.Workers
		o.IdleWindow = opts.Config.Engine.IdleWindow.Std()
		o.SweepInterval = opts.Config.Engine.SweepInterval.Std()
		o.Logger = opts.Logger
		if opts.Recorder != nil {
			o.Recorder = opts.Recorder
		}
	})

	return &CodeMesh{opts: opts, engine: eng}, nil
}

// Start launches the worker pool and the idle sweeper. It returns
// immediately; cancel ctx or call Close to shut down.
func (cm *CodeMesh) Start(ctx context.Context) {
	cm.engine.Start(ctx)
}

// Submit starts (or resumes) the workflow for sessionID with the given
// requirement. conn is the client connection that receives notifications for
// this session; repo optionally names a git repository to clone into the
// execution environment. Submit returns as soon as the work is queued.
func (cm *CodeMesh) Submit(sessionID string, conn proxy.Connection, requirement, repo string) error {
	ev := core.NewPublicEvent(workflow.EventWorkflowStart, workflow.Request{
		Requirement: requirement,
		Repository:  repo,
	})
	return cm.engine.Submit(sessionID, conn, ev)
}

// SubmitEvent queues a raw event for sessionID. The event must be a declared
// graph input; use Submit for the common requirement intake.
func (cm *CodeMesh) SubmitEvent(sessionID string, conn proxy.Connection, ev core.Event) error {
	return cm.engine.Submit(sessionID, conn, ev)
}

// Engine exposes the underlying engine for registry inspection and tests.
func (cm *CodeMesh) Engine() *engine.Engine { return cm.engine }

// Close drains the ingestion queue and stops the worker pool.
func (cm *CodeMesh) Close() error {
	return cm.engine.Close()
}

func buildClient(cfg config.ModelConfig) (model.Client, error) {
	switch cfg.Provider {
	case "openai":
		return openai.New(func(o *openai.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = cfg.MaxTokens
		}), nil
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			if cfg.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Name)
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
		}), nil
	case "mock":
		return model.NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
