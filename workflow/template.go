package workflow

import (
	"errors"

	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/environ"
	"github.com/hupe1980/codemesh/graph"
	"github.com/hupe1980/codemesh/group"
	"github.com/hupe1980/codemesh/model"
)

// Default group chat tuning when no option overrides them.
const (
	DefaultMaxIterations = 10
	DefaultPlanPhrase    = "plan complete"
	DefaultDonePhrase    = "implementation complete"
)

// Options configure the coding workflow template.
type Options struct {
	// MaxIterations is the group chat turn ceiling.
	MaxIterations int
	// HistoryWindow bounds how much transcript each group turn sees. Zero
	// means the full transcript.
	HistoryWindow int
	// PlanPhrase ends the analysis agent's planning turn.
	PlanPhrase string
	// DonePhrase, spoken by the implementation agent, terminates the group.
	DonePhrase string
	// Selection overrides the group's speaker selection. Defaults to
	// round-robin; pass group.NewModelSelection for model-driven routing.
	Selection group.SelectionStrategy
	// Environment describes the container image and working directory the
	// run executes in.
	Environment environ.Spec
	// Decider, when set, performs the intake completeness check. Without it
	// intake only applies structural validation.
	Decider model.Decider
}

// NewDefinition assembles the coding workflow graph: intake validation,
// environment provisioning, and the planning/implementation group chat,
// with client-facing notifications along the way.
//
// The graph accepts WorkflowStart as its only input event and finishes in
// one of three ways: Completed after GroupCompleted, stopped at a terminal
// edge after a validation or setup failure, or Failed on an unexpected step
// error.
func NewDefinition(client model.Completer, manager environ.Manager, optFns ...func(o *Options)) (*graph.Definition, error) {
	if client == nil {
		return nil, errors.New("workflow requires a model completer")
	}
	if manager == nil {
		return nil, errors.New("workflow requires an environment manager")
	}

	opts := Options{
		MaxIterations: DefaultMaxIterations,
		PlanPhrase:    DefaultPlanPhrase,
		DonePhrase:    DefaultDonePhrase,
		Environment:   environ.Spec{Image: "ubuntu:24.04", WorkDir: "/workspace"},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	intake := &intakeStep{decider: opts.Decider}
	environment := &environmentStep{manager: manager, spec: opts.Environment}
	coding := &codingStep{
		completer:     client,
		selection:     opts.Selection,
		maxIterations: opts.MaxIterations,
		historyWindow: opts.HistoryWindow,
		planPhrase:    opts.PlanPhrase,
		donePhrase:    opts.DonePhrase,
		workDir:       opts.Environment.WorkDir,
	}

	b := graph.NewBuilder()

	b.AddStep(StepIntake, map[string]core.Handler{
		FuncValidateRequirement: intake.validateRequirement,
	})
	b.AddStep(StepEnvironment, map[string]core.Handler{
		FuncProvision: environment.provision,
	})
	b.AddStep(StepCoding, map[string]core.Handler{
		FuncRunGroup: coding.runGroup,
	})

	b.DeclareEvent(EventWorkflowStart, graph.PayloadOf[Request]())
	b.DeclareEvent(EventValidationSucceeded, graph.PayloadOf[ValidatedRequest]())
	b.DeclareEvent(EventValidationFailed, graph.PayloadOf[ValidationFailure]())
	b.DeclareEvent(EventSetupSucceeded, graph.PayloadOf[EnvironmentReady]())
	b.DeclareEvent(EventSetupFailed, graph.PayloadOf[SetupFailure]())
	b.DeclareEvent(EventGroupMessage, graph.PayloadOf[core.Message]())
	b.DeclareEvent(EventGroupCompleted, graph.PayloadOf[GroupOutcome]())

	b.AddInput(EventWorkflowStart, StepIntake, FuncValidateRequirement)

	b.OnEvent(StepIntake, EventValidationSucceeded).
		SendEventTo(StepEnvironment, FuncProvision)
	b.OnEvent(StepIntake, EventValidationFailed).
		EmitExternal(TopicValidationFailed).
		Stop()

	b.OnEvent(StepEnvironment, EventSetupSucceeded).
		EmitExternal(TopicSetupSucceeded).
		SendEventTo(StepCoding, FuncRunGroup)
	b.OnEvent(StepEnvironment, EventSetupFailed).
		EmitExternal(TopicSetupFailed).
		Stop()

	b.OnEvent(StepCoding, EventGroupMessage).
		EmitExternal(TopicWorkflowUpdate)
	b.OnEvent(StepCoding, EventGroupCompleted).
		EmitExternal(TopicGroupCompleted).
		Complete()

	return b.Build()
}
